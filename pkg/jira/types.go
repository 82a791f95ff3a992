package jira

// Issue represents a Jira issue as returned by the REST API, reduced to the
// fields this module reads.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the subset of issue fields relevant to remediation tracking.
type IssueFields struct {
	Summary string      `json:"summary"`
	Labels  []string    `json:"labels"`
	Status  IssueStatus `json:"status"`
	DueDate string      `json:"duedate"`
}

// IssueStatus is the workflow status of an issue.
type IssueStatus struct {
	Name string `json:"name"`
}

// HasLabel reports whether the issue carries the given label.
func (i *Issue) HasLabel(label string) bool {
	for _, l := range i.Fields.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Transition is one workflow transition available on an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreatedIssue is the response to an issue creation request.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// CreateIssueRequest describes a new issue. CustomFields entries are merged
// verbatim into the outgoing fields object, keyed by custom field id.
type CreateIssueRequest struct {
	ProjectKey   string
	Summary      string
	Description  string
	IssueType    string
	DueDate      string // ISO calendar date (2006-01-02), optional
	Labels       []string
	AssigneeID   string // Atlassian account id, optional
	CustomFields map[string]any
}
