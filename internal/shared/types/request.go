package types

// RunRequest is the wire form of an execution request. Both fields are
// required; pointers distinguish a missing field from an empty program.
type RunRequest struct {
	Code  *string `json:"code"`
	Tests *string `json:"tests"`
}

// RunResponse is the single response to a RunRequest. Success responses carry
// output and counts, failure responses carry error and optionally stack.
type RunResponse struct {
	Success     bool    `json:"success"`
	Output      *string `json:"output,omitempty"`
	TestCount   *int    `json:"testCount,omitempty"`
	PassedCount *int    `json:"passedCount,omitempty"`
	FailedCount *int    `json:"failedCount,omitempty"`
	Error       *string `json:"error,omitempty"`
	Stack       *string `json:"stack,omitempty"`
}

// RunEnvelope wraps a response with the identifier of the run that produced it
type RunEnvelope struct {
	RunID    string      `json:"runId"`
	Response RunResponse `json:"response"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type  string  `json:"type"`
	ID    string  `json:"id,omitempty"`
	Code  *string `json:"code,omitempty"`
	Tests *string `json:"tests,omitempty"`
}

// WSReply is a server frame. Run results carry RunID and Response.
type WSReply struct {
	Type      string       `json:"type"`
	ID        string       `json:"id,omitempty"`
	RunID     string       `json:"runId,omitempty"`
	Response  *RunResponse `json:"response,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp int64        `json:"timestamp"`
}
