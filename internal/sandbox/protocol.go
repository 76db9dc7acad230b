package sandbox

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

// ParseRequest validates and decodes a raw run request. Source fields larger
// than maxSourceBytes are rejected.
func ParseRequest(data []byte, maxSourceBytes int) (Request, error) {
	if err := utils.ValidateRunRequest(data); err != nil {
		return Request{}, err
	}

	var wire types.RunRequest
	if err := sonic.Unmarshal(data, &wire); err != nil {
		return Request{}, fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
	}
	return FromWire(wire, maxSourceBytes)
}

// FromWire checks a decoded request
func FromWire(wire types.RunRequest, maxSourceBytes int) (Request, error) {
	if wire.Code == nil {
		return Request{}, fmt.Errorf("%w: code is required", utils.ErrInvalidRequest)
	}
	if wire.Tests == nil {
		return Request{}, fmt.Errorf("%w: tests is required", utils.ErrInvalidRequest)
	}
	if err := utils.ValidateSource(*wire.Code, "code", maxSourceBytes); err != nil {
		return Request{}, err
	}
	if err := utils.ValidateSource(*wire.Tests, "tests", maxSourceBytes); err != nil {
		return Request{}, err
	}
	return Request{Code: *wire.Code, Tests: *wire.Tests}, nil
}

// Rejected is the result for a request that failed validation. Nothing runs.
func Rejected(err error) *Result {
	return &Result{
		Outcome: OutcomeInvalidRequest,
		Error:   err.Error(),
		Events:  []Event{},
	}
}

// Response converts a result to its wire form
func (r *Result) Response() types.RunResponse {
	if r.Success() {
		output := r.Output
		tests, passed, failed := r.Counters.Tests, r.Counters.Passed, r.Counters.Failed
		return types.RunResponse{
			Success:     true,
			Output:      &output,
			TestCount:   &tests,
			PassedCount: &passed,
			FailedCount: &failed,
		}
	}

	message := r.Error
	resp := types.RunResponse{
		Success: false,
		Error:   &message,
	}
	// Timeouts always carry an empty stack
	if r.Stack != "" || r.Outcome == OutcomeTimedOut {
		stack := r.Stack
		resp.Stack = &stack
	}
	return resp
}
