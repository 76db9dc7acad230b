package suite

import (
	"context"
	"fmt"
	"strings"

	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
)

// CaseResult is the outcome of one case
type CaseResult struct {
	Suite      string
	Case       string
	Result     *sandbox.Result
	Mismatches []string
	Err        error
}

// OK reports whether the case ran and met its expectation
func (r CaseResult) OK() bool {
	return r.Err == nil && len(r.Mismatches) == 0
}

// Report collects the results of one or more suites
type Report struct {
	Results []CaseResult
}

// Failed returns the number of cases that did not meet their expectation
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// Run executes every case of s in order
func Run(ctx context.Context, exec testrun.Executor, s *Suite, report *Report) {
	for _, c := range s.Cases {
		if ctx.Err() != nil {
			return
		}
		res, err := exec.Execute(ctx, c.Request())
		cr := CaseResult{Suite: s.Name, Case: c.Name, Result: res, Err: err}
		if err == nil {
			cr.Mismatches = Check(c.Expect, res)
		}
		report.Results = append(report.Results, cr)
	}
}

// Check compares a result with an expectation
func Check(exp Expectation, res *sandbox.Result) []string {
	var out []string

	success := res.Success()
	if exp.Success != nil && *exp.Success != success {
		out = append(out, fmt.Sprintf("success: want %t, got %t (%s)", *exp.Success, success, res.Outcome))
	}

	checkCount := func(name string, want *int, got int) {
		if want != nil && *want != got {
			out = append(out, fmt.Sprintf("%s: want %d, got %d", name, *want, got))
		}
	}
	checkCount("tests", exp.Tests, res.Counters.Tests)
	checkCount("passed", exp.Passed, res.Counters.Passed)
	checkCount("failed", exp.Failed, res.Counters.Failed)

	if exp.Output != "" && !strings.Contains(res.Output, exp.Output) {
		out = append(out, fmt.Sprintf("output: missing %q", exp.Output))
	}
	if exp.Error != "" && !strings.Contains(res.Error, exp.Error) {
		out = append(out, fmt.Sprintf("error: want %q in %q", exp.Error, res.Error))
	}
	return out
}
