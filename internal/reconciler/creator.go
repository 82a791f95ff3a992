package reconciler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/avoylenko/jira-asset-sync/internal/config"
	"github.com/avoylenko/jira-asset-sync/internal/metrics"
	"github.com/avoylenko/jira-asset-sync/pkg/assets"
	"github.com/avoylenko/jira-asset-sync/pkg/jira"
)

// customFieldAssetRef is the issue custom field carrying the back-reference
// to the asset object, in the Assets object picker format.
const customFieldAssetRef = "customfield_10191"

// createRemediationIssue builds and submits a new remediation issue for the
// asset. Every precondition failure is a hard stop for this asset only: it
// is logged and nothing is created. The overdue flag is informational.
func (r *Reconciler) createRemediationIssue(ctx context.Context, logger zerolog.Logger, obj assets.Object, fields AssetFields, overdue bool) {
	if r.cfg.WorkspaceID == "" || r.cfg.ProjectKey == "" {
		logger.Error().Msg("Workspace ID or project key is not configured, cannot create issue")
		return
	}

	assetID := obj.ID.String()
	if assetID == "" {
		logger.Error().Msg("Asset id is missing, cannot create issue")
		return
	}
	if fields.Name == "" {
		logger.Error().Str("asset", assetID).Msg("Asset name attribute is missing, cannot create issue")
		return
	}
	if fields.RawDueDate == "" {
		logger.Error().Str("asset", assetID).Msg("Asset due date attribute is missing, cannot create issue")
		return
	}

	// Missing mapping or a zero-valued account id both mean "unassigned".
	assigneeID := r.mappings.AssigneeID(fields.ResponsibleName)
	if assigneeID == "0" {
		assigneeID = ""
	}

	vars := map[string]string{"asset_name": fields.Name}
	req := jira.CreateIssueRequest{
		ProjectKey:  r.cfg.ProjectKey,
		Summary:     config.Render(config.TaskSummaryTemplate, vars),
		Description: config.Render(config.TaskDescriptionTemplate, vars),
		IssueType:   "Task",
		DueDate:     fields.RawDueDate,
		Labels:      []string{r.cfg.RemediationLabel},
		AssigneeID:  assigneeID,
		CustomFields: map[string]any{
			customFieldAssetRef: []map[string]any{{
				"workspaceId": r.cfg.WorkspaceID,
				"id":          r.cfg.WorkspaceID + ":" + assetID,
				"objectId":    assetID,
			}},
		},
	}

	created, err := r.issues.CreateIssue(ctx, req)
	if err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("jira").Inc()
		logger.Error().Err(err).Str("asset", assetID).Msg("Failed to create remediation issue")
		return
	}

	metrics.IssuesCreatedTotal.Inc()
	logger.Info().
		Str("asset", assetID).
		Str("issue", created.Key).
		Bool("overdue", overdue).
		Msg("Created remediation issue")
}
