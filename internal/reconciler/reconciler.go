// Package reconciler implements the core decision engine: for each asset
// with a due date it ensures exactly one active remediation issue exists and
// nudges existing issues whose state has drifted from the asset's.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avoylenko/jira-asset-sync/internal/config"
	"github.com/avoylenko/jira-asset-sync/internal/metrics"
	"github.com/avoylenko/jira-asset-sync/pkg/assets"
	"github.com/avoylenko/jira-asset-sync/pkg/jira"
)

// IssueService is the capability the reconciler needs from the ticket
// tracker.
type IssueService interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
	CreateIssue(ctx context.Context, req jira.CreateIssueRequest) (*jira.CreatedIssue, error)
	AddComment(ctx context.Context, key, body string) error
	TransitionIssueByName(ctx context.Context, key, name string) error
}

// AssetService is the capability the reconciler needs from the asset
// catalog.
type AssetService interface {
	QueryAQL(ctx context.Context, query string) ([]assets.Object, error)
	GetConnectedTickets(ctx context.Context, objectID string) ([]assets.ConnectedTicket, error)
}

// Urgency classifies how close an asset's due date is.
type Urgency int

const (
	UrgencyCurrent Urgency = iota
	UrgencyDueSoon
	UrgencyOverdue
)

func (u Urgency) String() string {
	switch u {
	case UrgencyOverdue:
		return "overdue"
	case UrgencyDueSoon:
		return "due_soon"
	default:
		return "current"
	}
}

// classifyUrgency derives the urgency class from the due date, the current
// instant and the warning window. A due date exactly now is overdue; a due
// date exactly at the window edge is due soon.
func classifyUrgency(dueDate, now time.Time, window time.Duration) Urgency {
	if !dueDate.After(now) {
		return UrgencyOverdue
	}
	if !dueDate.After(now.Add(window)) {
		return UrgencyDueSoon
	}
	return UrgencyCurrent
}

// Reconciler drives one pass over the asset catalog. Assets are processed
// strictly sequentially; the pass-scoped ticket cache assumes no concurrent
// ticket mutation mid-pass.
type Reconciler struct {
	issues   IssueService
	assets   AssetService
	mappings *config.Mappings
	cfg      *config.Config
	cache    *TicketCache

	nowFunc func() time.Time
}

// New creates a Reconciler. The ticket cache it owns lives for the lifetime
// of the reconciler but is rebuilt from empty at the start of every pass.
func New(issues IssueService, assetSvc AssetService, mappings *config.Mappings, cfg *config.Config) *Reconciler {
	return &Reconciler{
		issues:   issues,
		assets:   assetSvc,
		mappings: mappings,
		cfg:      cfg,
		cache:    NewTicketCache(issues),
		nowFunc:  time.Now,
	}
}

// RunPass executes one full reconciliation sweep. Per-asset failures are
// contained; only a failed catalog query aborts the pass.
func (r *Reconciler) RunPass(ctx context.Context) error {
	passID := uuid.NewString()[:8]
	logger := log.With().Str("pass", passID).Logger()
	start := r.nowFunc()

	r.cache.Reset()

	query := fmt.Sprintf("objectTypeId = %s AND %s is not EMPTY", r.cfg.ObjectTypeID, attrDueDate)
	objects, err := r.assets.QueryAQL(ctx, query)
	if err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("assets").Inc()
		return fmt.Errorf("query assets: %w", err)
	}

	logger.Info().Int("assets", len(objects)).Msg("Reconciliation pass started")
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.reconcileAsset(ctx, logger, obj)
	}

	metrics.PassesTotal.Inc()
	metrics.PassDurationSeconds.Observe(time.Since(start).Seconds())
	logger.Info().Dur("duration", time.Since(start)).Msg("Reconciliation pass finished")
	return nil
}

// reconcileAsset classifies one asset's urgency and dispatches. An asset
// without a parseable due date is not eligible and is skipped.
func (r *Reconciler) reconcileAsset(ctx context.Context, logger zerolog.Logger, obj assets.Object) {
	assetID := obj.ID.String()
	attributes := ExtractAttributes(obj, r.mappings.AttributeMap())
	fields := ParseFields(attributes)

	if !fields.HasDueDate {
		metrics.AssetsSkippedTotal.Inc()
		logger.Warn().Str("asset", assetID).Str("raw_due_date", fields.RawDueDate).Msg("Asset has no valid due date, skipping")
		return
	}

	now := r.nowFunc()
	urgency := classifyUrgency(fields.DueDate, now, r.cfg.WarningWindow)
	metrics.AssetsProcessedTotal.WithLabelValues(urgency.String()).Inc()

	switch urgency {
	case UrgencyOverdue:
		logger.Info().Str("asset", assetID).Str("due", fields.RawDueDate).Msg("Asset requires update")
		r.handleOverdue(ctx, logger, obj, fields)
	case UrgencyDueSoon:
		logger.Info().Str("asset", assetID).Str("due", fields.RawDueDate).Msg("Asset is scheduled for update soon")
		r.handleDueSoon(ctx, logger, obj, fields)
	default:
		logger.Debug().Str("asset", assetID).Str("due", fields.RawDueDate).Msg("Asset is up to date")
	}
}

// remediationIssueKeys fetches the asset's linked issues and keeps those
// carrying the remediation label. Links whose issue cannot be fetched are
// excluded with a warning.
func (r *Reconciler) remediationIssueKeys(ctx context.Context, logger zerolog.Logger, assetID string) ([]string, error) {
	links, err := r.assets.GetConnectedTickets(ctx, assetID)
	if err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("assets").Inc()
		return nil, fmt.Errorf("get linked issues: %w", err)
	}

	keys := make([]string, 0, len(links))
	for _, link := range links {
		issue, err := r.cache.Get(ctx, link.Key)
		if err != nil {
			metrics.RemoteErrorsTotal.WithLabelValues("jira").Inc()
			logger.Warn().Err(err).Str("asset", assetID).Str("issue", link.Key).Msg("Linked issue fetch failed, excluding from pass")
			continue
		}
		if issue == nil {
			logger.Warn().Str("asset", assetID).Str("issue", link.Key).Msg("Linked issue not found")
			continue
		}
		if issue.HasLabel(r.cfg.RemediationLabel) {
			keys = append(keys, link.Key)
		}
	}
	return keys, nil
}

// handleOverdue routes every linked remediation issue through the lifecycle
// decider, or creates a new issue if none exist.
func (r *Reconciler) handleOverdue(ctx context.Context, logger zerolog.Logger, obj assets.Object, fields AssetFields) {
	assetID := obj.ID.String()
	keys, err := r.remediationIssueKeys(ctx, logger, assetID)
	if err != nil {
		logger.Error().Err(err).Str("asset", assetID).Msg("Cannot resolve linked issues, skipping asset")
		return
	}

	if len(keys) == 0 {
		r.createRemediationIssue(ctx, logger, obj, fields, true)
		return
	}
	for _, key := range keys {
		r.processRemediationIssue(ctx, logger, assetID, key, fields)
	}
}

// handleDueSoon creates a remediation issue unless one is already active.
// The scan stops at the first To Do / In Progress issue.
func (r *Reconciler) handleDueSoon(ctx context.Context, logger zerolog.Logger, obj assets.Object, fields AssetFields) {
	assetID := obj.ID.String()
	keys, err := r.remediationIssueKeys(ctx, logger, assetID)
	if err != nil {
		logger.Error().Err(err).Str("asset", assetID).Msg("Cannot resolve linked issues, skipping asset")
		return
	}

	for _, key := range keys {
		issue, err := r.cache.Get(ctx, key)
		if err != nil || issue == nil {
			continue
		}
		if status := statusFromName(issue.Fields.Status.Name); status.active() {
			logger.Info().Str("asset", assetID).Str("issue", key).Stringer("status", status).Msg("Active remediation issue already exists")
			return
		}
	}

	r.createRemediationIssue(ctx, logger, obj, fields, false)
}

// processRemediationIssue applies the lifecycle decision to one linked
// remediation issue. Comment or transition failures are isolated to this
// issue.
func (r *Reconciler) processRemediationIssue(ctx context.Context, logger zerolog.Logger, assetID, key string, fields AssetFields) {
	issue, err := r.cache.Get(ctx, key)
	if err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("jira").Inc()
		logger.Warn().Err(err).Str("asset", assetID).Str("issue", key).Msg("Issue fetch failed")
		return
	}
	if issue == nil {
		logger.Warn().Str("asset", assetID).Str("issue", key).Msg("Issue not found")
		return
	}

	status := statusFromName(issue.Fields.Status.Name)
	action := decideLifecycle(status, fields.DueDate, r.nowFunc(), fields.RawDueDate)

	if action.isNoop() {
		logger.Info().Str("asset", assetID).Str("issue", key).Stringer("status", status).Msg("Remediation issue requires no action")
		return
	}
	if action.Note != "" {
		logger.Info().Str("asset", assetID).Str("issue", key).Msg(action.Note)
		return
	}

	if action.Comment != "" {
		if err := r.issues.AddComment(ctx, key, action.Comment); err != nil {
			metrics.RemoteErrorsTotal.WithLabelValues("jira").Inc()
			logger.Error().Err(err).Str("asset", assetID).Str("issue", key).Msg("Failed to add comment")
		} else {
			metrics.CommentsPostedTotal.Inc()
		}
	}
	if action.Transition != "" {
		if err := r.issues.TransitionIssueByName(ctx, key, action.Transition); err != nil {
			metrics.RemoteErrorsTotal.WithLabelValues("jira").Inc()
			logger.Error().Err(err).Str("asset", assetID).Str("issue", key).Str("transition", action.Transition).Msg("Failed to transition issue")
		} else {
			metrics.TransitionsTotal.Inc()
			logger.Info().Str("asset", assetID).Str("issue", key).Str("transition", action.Transition).Msg("Issue escalated")
		}
	}
}
