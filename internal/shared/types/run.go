package types

import "time"

// RunRecord is a finished run kept in history
type RunRecord struct {
	ID          string        `json:"id"`
	Source      string        `json:"source"` // http, ws, nats, snippet
	Fingerprint string        `json:"fingerprint,omitempty"`
	Outcome     string        `json:"outcome"`
	Response    RunResponse   `json:"response"`
	Iterations  int64         `json:"iterations"`
	Duration    time.Duration `json:"duration"`
	StartedAt   time.Time     `json:"startedAt"`
}

// RunStats summarizes the run history
type RunStats struct {
	Total      int            `json:"total"`
	ByOutcome  map[string]int `json:"byOutcome"`
	MeanMillis float64        `json:"meanMillis"`
	P95Millis  float64        `json:"p95Millis"`
	MaxMillis  float64        `json:"maxMillis"`
	TestsRun   int            `json:"testsRun"`
	TestsFail  int            `json:"testsFailed"`
}
