package sandbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const (
	timeoutMessage        = "Timeout"
	iterationLimitMessage = "Nombre maximum d'itérations atteint (boucle infinie probable)"
	stackOverflowMessage  = "Maximum call stack size exceeded"
)

var (
	ErrTimeout        = errors.New("sandbox: execution deadline exceeded")
	ErrIterationLimit = errors.New("sandbox: iteration limit exceeded")
)

// State is the governor lifecycle
type State int32

const (
	StateRunning State = iota
	StateCompleted
	StateTimedOut
	StateIterationOverflow
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateIterationOverflow:
		return "iteration_overflow"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Governor enforces the deadline and the iteration ceiling of one run.
// Every terminal transition goes through a compare-and-swap out of
// StateRunning, so only the first one wins.
type Governor struct {
	limits     Limits
	state      atomic.Int32
	iterations atomic.Int64
	overflowed atomic.Bool

	mu    sync.Mutex
	timer *time.Timer
}

// NewGovernor creates a governor in StateRunning
func NewGovernor(limits Limits) *Governor {
	return &Governor{limits: limits}
}

// Start zeroes the counter and arms the deadline. onDeadline runs on the
// timer goroutine, only if the deadline wins.
func (g *Governor) Start(onDeadline func()) {
	g.iterations.Store(0)
	g.overflowed.Store(false)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.timer = time.AfterFunc(g.limits.Timeout, func() {
		if g.transition(StateTimedOut) && onDeadline != nil {
			onDeadline()
		}
	})
}

// Check is the guard body. It fails once the deadline has fired, the run was
// cancelled, or the ceiling is exceeded.
func (g *Governor) Check() error {
	switch g.State() {
	case StateTimedOut:
		return ErrTimeout
	case StateCancelled:
		return context.Canceled
	}
	if g.iterations.Add(1) > g.limits.MaxIterations {
		g.overflowed.Store(true)
		return ErrIterationLimit
	}
	return nil
}

// Finish stops the deadline and settles a run that returned on its own.
// It returns the terminal state, which may already be TimedOut or Cancelled.
func (g *Governor) Finish() State {
	g.stop()
	next := StateCompleted
	if g.overflowed.Load() {
		next = StateIterationOverflow
	}
	g.transition(next)
	return g.State()
}

// Abort cancels a running run. It reports false if the run already ended.
func (g *Governor) Abort() bool {
	if !g.transition(StateCancelled) {
		return false
	}
	g.stop()
	return true
}

// State returns the current state
func (g *Governor) State() State {
	return State(g.state.Load())
}

// Iterations returns the number of guard calls so far
func (g *Governor) Iterations() int64 {
	return g.iterations.Load()
}

func (g *Governor) transition(to State) bool {
	return g.state.CompareAndSwap(int32(StateRunning), int32(to))
}

func (g *Governor) stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
}

// guardMessage is the JavaScript error text thrown by the guard
func guardMessage(err error) string {
	switch {
	case errors.Is(err, ErrIterationLimit):
		return iterationLimitMessage
	case errors.Is(err, ErrTimeout):
		return timeoutMessage
	default:
		return err.Error()
	}
}
