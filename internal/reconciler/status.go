package reconciler

import "strings"

// Status is the closed set of issue workflow states the reconciler reasons
// about. Remote status strings are mapped here once, at the boundary, so the
// decision logic never compares strings.
type Status int

const (
	StatusUnknown Status = iota
	StatusToDo
	StatusInProgress
	StatusDone
)

// Workflow labels as they appear in Jira. Matching is exact except for
// "To Do", which some boards render upper-case.
const (
	statusNameDone       = "Done"
	statusNameInProgress = "In Progress"
	statusNameToDo       = "To Do"
)

func statusFromName(name string) Status {
	switch {
	case name == statusNameDone:
		return StatusDone
	case name == statusNameInProgress:
		return StatusInProgress
	case strings.EqualFold(name, statusNameToDo):
		return StatusToDo
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	switch s {
	case StatusToDo:
		return statusNameToDo
	case StatusInProgress:
		return statusNameInProgress
	case StatusDone:
		return statusNameDone
	default:
		return "Unknown"
	}
}

// active reports whether the status represents a remediation issue that is
// already being worked, for the due-soon pre-check.
func (s Status) active() bool {
	return s == StatusToDo || s == StatusInProgress
}
