package sandbox

import (
	"time"
)

// Limits bounds a single run
type Limits struct {
	Timeout       time.Duration // Wall-clock deadline
	MaxIterations int64         // Guard calls allowed before the run aborts
	MaxCallStack  int           // goja call stack depth
}

// Config defines engine and pool configuration
type Config struct {
	Limits
	MaxParallel    int           // Concurrent runs
	AcquireTimeout time.Duration // Wait for a free slot
}

// DefaultLimits returns the reference limits
func DefaultLimits() Limits {
	return Limits{
		Timeout:       5 * time.Second,
		MaxIterations: 1_000_000,
		MaxCallStack:  1024,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Limits:         DefaultLimits(),
		MaxParallel:    4,
		AcquireTimeout: 5 * time.Second,
	}
}

// Request is one program/tests pair
type Request struct {
	Code  string
	Tests string
}

// EventKind classifies a recorded event
type EventKind string

const (
	EventPass EventKind = "pass"
	EventFail EventKind = "fail"
	EventLog  EventKind = "log"
)

// Event is a single test outcome or log line, in emission order
type Event struct {
	Kind        EventKind `json:"kind"`
	Index       int       `json:"index,omitempty"`       // 1-based test number, zero for logs
	Description string    `json:"description,omitempty"` // Test description
	Message     string    `json:"message,omitempty"`     // Failure detail or log text
}

// Counters tracks test totals for a run
type Counters struct {
	Tests  int `json:"tests"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Outcome is how a run terminated
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeProgramError
	OutcomeTimedOut
	OutcomeIterationOverflow
	OutcomeCancelled
	OutcomeInvalidRequest
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeProgramError:
		return "program_error"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeIterationOverflow:
		return "iteration_overflow"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Result holds the single response of a run
type Result struct {
	Outcome    Outcome
	Output     string   // Rendered report, completed runs only
	Counters   Counters // Completed runs only
	Events     []Event
	Error      string // Failure message
	Stack      string // Failure stack, may be empty
	Iterations int64  // Guard calls observed
	Duration   time.Duration
}

// Success reports whether the run completed, regardless of failed tests
func (r *Result) Success() bool {
	return r.Outcome == OutcomeCompleted
}
