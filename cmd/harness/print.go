package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/suite"
)

var (
	passStyle = color.New(color.FgGreen, color.Bold)
	failStyle = color.New(color.FgRed, color.Bold)
	dimStyle  = color.New(color.Faint)
	headStyle = color.New(color.FgCyan, color.Bold)
)

func disableColor() {
	color.NoColor = true
}

func printResponse(w io.Writer, resp types.RunResponse) {
	if !resp.Success {
		failStyle.Fprintln(w, "✗ run failed")
		if resp.Error != nil {
			fmt.Fprintln(w, *resp.Error)
		}
		if resp.Stack != nil && *resp.Stack != "" {
			dimStyle.Fprintln(w, *resp.Stack)
		}
		return
	}

	if resp.Output != nil && *resp.Output != "" {
		fmt.Fprintln(w, strings.TrimRight(*resp.Output, "\n"))
		fmt.Fprintln(w)
	}

	tests, passed, failed := deref(resp.TestCount), deref(resp.PassedCount), deref(resp.FailedCount)
	style := passStyle
	if failed > 0 {
		style = failStyle
	}
	style.Fprintf(w, "%d/%d passed", passed, tests)
	if failed > 0 {
		failStyle.Fprintf(w, ", %d failed", failed)
	}
	fmt.Fprintln(w)
}

func printReport(w io.Writer, report *suite.Report) {
	current := ""
	for _, res := range report.Results {
		if res.Suite != current {
			current = res.Suite
			headStyle.Fprintln(w, current)
		}
		switch {
		case res.Err != nil:
			failStyle.Fprintf(w, "  ✗ %s", res.Case)
			fmt.Fprintf(w, ": %v\n", res.Err)
		case res.OK():
			passStyle.Fprintf(w, "  ✓ %s", res.Case)
			dimStyle.Fprintf(w, " (%s, %s)\n", res.Result.Outcome, res.Result.Duration.Round(time.Microsecond))
		default:
			failStyle.Fprintf(w, "  ✗ %s\n", res.Case)
			for _, m := range res.Mismatches {
				fmt.Fprintf(w, "      %s\n", m)
			}
		}
	}

	total, failed := len(report.Results), report.Failed()
	fmt.Fprintln(w)
	if failed == 0 {
		passStyle.Fprintf(w, "%d cases passed\n", total)
		return
	}
	failStyle.Fprintf(w, "%d of %d cases failed\n", failed, total)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
