package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Engine executes requests, one fresh runtime per run
type Engine struct {
	limits  Limits
	rewrite func(string) string
}

// NewEngine creates an engine, filling unset limits with defaults
func NewEngine(limits Limits) *Engine {
	def := DefaultLimits()
	if limits.Timeout <= 0 {
		limits.Timeout = def.Timeout
	}
	if limits.MaxIterations <= 0 {
		limits.MaxIterations = def.MaxIterations
	}
	if limits.MaxCallStack <= 0 {
		limits.MaxCallStack = def.MaxCallStack
	}
	return &Engine{limits: limits, rewrite: Instrument}
}

// Limits returns the effective limits
func (e *Engine) Limits() Limits {
	return e.limits
}

// Run executes req and returns its single result. It returns when the run
// completes, its deadline fires, or ctx is done, whichever happens first.
func (e *Engine) Run(ctx context.Context, req Request) *Result {
	start := time.Now()
	governor := NewGovernor(e.limits)
	rec := newRecorder()

	rt, err := newRuntime(e.limits, governor, rec, e.rewrite)
	if err != nil {
		return &Result{
			Outcome:  OutcomeProgramError,
			Error:    err.Error(),
			Events:   []Event{},
			Duration: time.Since(start),
		}
	}

	// Buffered so a losing goroutine never blocks
	results := make(chan *Result, 1)
	var once sync.Once
	post := func(res *Result) {
		once.Do(func() {
			res.Iterations = governor.Iterations()
			res.Duration = time.Since(start)
			results <- res
		})
	}

	governor.Start(func() {
		rec.seal()
		post(&Result{
			Outcome: OutcomeTimedOut,
			Error:   TimeoutMessage(e.limits.Timeout),
			Events:  []Event{},
		})
		rt.Interrupt(ErrTimeout)
	})

	go func() {
		runErr := rt.Execute(req)
		state := governor.Finish()
		post(settle(state, runErr, rec))
	}()

	select {
	case res := <-results:
		return res
	case <-ctx.Done():
		if governor.Abort() {
			rec.seal()
			post(&Result{
				Outcome: OutcomeCancelled,
				Error:   fmt.Sprintf("execution cancelled: %v", context.Cause(ctx)),
				Events:  []Event{},
			})
			rt.Interrupt(context.Cause(ctx))
		}
		return <-results
	}
}

// settle builds the result of a run that returned from the runtime
func settle(state State, runErr error, rec *recorder) *Result {
	events, counters := rec.snapshot()

	switch state {
	case StateIterationOverflow:
		var stack string
		if runErr != nil {
			_, stack = describeError(runErr)
		}
		return &Result{
			Outcome: OutcomeIterationOverflow,
			Error:   iterationLimitMessage,
			Stack:   stack,
			Events:  events,
		}
	case StateTimedOut:
		return &Result{Outcome: OutcomeTimedOut, Error: timeoutMessage, Events: events}
	case StateCancelled:
		return &Result{Outcome: OutcomeCancelled, Error: context.Canceled.Error(), Events: events}
	}

	if runErr != nil {
		message, stack := describeError(runErr)
		return &Result{
			Outcome: OutcomeProgramError,
			Error:   message,
			Stack:   stack,
			Events:  events,
		}
	}

	return &Result{
		Outcome:  OutcomeCompleted,
		Output:   Render(events, counters),
		Counters: counters,
		Events:   events,
	}
}
