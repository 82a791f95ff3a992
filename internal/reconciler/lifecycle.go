package reconciler

import (
	"time"

	"github.com/avoylenko/jira-asset-sync/internal/config"
)

// lifecycleAction is the decided outcome for one remediation issue. The zero
// value means "leave the issue alone".
type lifecycleAction struct {
	Comment    string // comment to post, if any
	Transition string // transition name to execute, if any
	Note       string // informational log line, no remote effect
}

func (a lifecycleAction) isNoop() bool {
	return a.Comment == "" && a.Transition == "" && a.Note == ""
}

// decideLifecycle is the pure decision procedure for an existing remediation
// issue: given the issue's workflow status and the asset's due date relative
// to now, it picks the comment and transition to apply.
//
//   - Open issue, due date passed, not yet In Progress: remind and escalate.
//   - Open issue, due date passed, already In Progress: nothing to do.
//   - Open issue, due date in the future: the issue predates the current
//     cycle; flag it for review but touch nothing.
//   - Done issue, due date passed: the closure is stale, ask for a fresh
//     update.
//   - Done issue, due date in the future: correctly closed.
func decideLifecycle(status Status, dueDate time.Time, now time.Time, rawDueDate string) lifecycleAction {
	dueReached := !dueDate.After(now)

	if status != StatusDone {
		if dueReached {
			if status != StatusInProgress {
				return lifecycleAction{
					Comment:    config.Render(config.CommentReminder, map[string]string{"update_date": rawDueDate}),
					Transition: statusNameInProgress,
				}
			}
			return lifecycleAction{}
		}
		return lifecycleAction{
			Note: config.Render(config.CommentFutureStuck, map[string]string{"update_date": rawDueDate}),
		}
	}

	if dueReached {
		return lifecycleAction{Comment: config.CommentRequestUpdate}
	}
	return lifecycleAction{}
}
