package types

import "time"

// Snippet is a saved program/tests pair attached to an issue
type Snippet struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	IssueID     string    `json:"issueId"`
	ProgramCode string    `json:"programCode"`
	TestCode    string    `json:"testCode"`
	Creator     string    `json:"creator,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SnippetInput is the body of snippet create and update requests
type SnippetInput struct {
	ProgramCode *string `json:"programCode"`
	TestCode    *string `json:"testCode"`
	Creator     string  `json:"creator,omitempty"`
}
