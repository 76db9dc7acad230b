package testrun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitedeprojet/testrunner/internal/infrastructure/monitoring"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/id"
)

type stubExecutor struct {
	result *sandbox.Result
	err    error
	calls  int
}

func (s *stubExecutor) Execute(ctx context.Context, req sandbox.Request) (*sandbox.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	return &res, nil
}

func completed(duration time.Duration, tests, failed int) *sandbox.Result {
	return &sandbox.Result{
		Outcome:  sandbox.OutcomeCompleted,
		Output:   "ok",
		Counters: sandbox.Counters{Tests: tests, Passed: tests - failed, Failed: failed},
		Duration: duration,
	}
}

func TestRunRecordsHistory(t *testing.T) {
	exec := &stubExecutor{result: completed(10*time.Millisecond, 3, 1)}
	m := NewManager(exec, 10, nil).WithMetrics(monitoring.NewMetrics(prometheus.NewRegistry()))

	record, err := m.Run(context.Background(), SourceHTTP, sandbox.Request{Code: "a", Tests: "b"})
	require.NoError(t, err)

	assert.True(t, id.IsPrefixed(record.ID, id.RunPrefix))
	assert.Equal(t, "completed", record.Outcome)
	assert.Equal(t, SourceHTTP, record.Source)
	assert.Len(t, record.Fingerprint, 64)
	require.NotNil(t, record.Response.TestCount)
	assert.Equal(t, 3, *record.Response.TestCount)

	got, ok := m.Get(record.ID)
	require.True(t, ok)
	assert.Equal(t, record.ID, got.ID)

	_, ok = m.Get("run_missing")
	assert.False(t, ok)
}

func TestRunSchedulingError(t *testing.T) {
	exec := &stubExecutor{err: sandbox.ErrAcquireTimeout}
	m := NewManager(exec, 10, nil).WithMetrics(monitoring.NewMetrics(prometheus.NewRegistry()))

	record, err := m.Run(context.Background(), SourceWS, sandbox.Request{})
	assert.ErrorIs(t, err, sandbox.ErrAcquireTimeout)
	assert.Nil(t, record)
	assert.Empty(t, m.List(0))
}

func TestReject(t *testing.T) {
	m := NewManager(&stubExecutor{}, 10, nil)

	record := m.Reject(SourceNATS, errors.New("invalid request: code is required"))

	assert.Equal(t, "invalid_request", record.Outcome)
	assert.False(t, record.Response.Success)
	require.NotNil(t, record.Response.Error)
	assert.Equal(t, "invalid request: code is required", *record.Response.Error)
}

func TestHistoryIsBounded(t *testing.T) {
	exec := &stubExecutor{result: completed(time.Millisecond, 0, 0)}
	m := NewManager(exec, 3, nil)

	var ids []string
	for i := 0; i < 5; i++ {
		record, err := m.Run(context.Background(), SourceCLI, sandbox.Request{})
		require.NoError(t, err)
		ids = append(ids, record.ID)
	}

	list := m.List(0)
	require.Len(t, list, 3)
	assert.Equal(t, ids[4], list[0].ID, "newest first")
	assert.Equal(t, ids[2], list[2].ID)

	_, ok := m.Get(ids[0])
	assert.False(t, ok, "oldest evicted")

	assert.Len(t, m.List(2), 2)
}

func TestStats(t *testing.T) {
	exec := &stubExecutor{}
	m := NewManager(exec, 100, nil)

	for i := 1; i <= 20; i++ {
		exec.result = completed(time.Duration(i)*time.Millisecond, 2, 1)
		_, err := m.Run(context.Background(), SourceHTTP, sandbox.Request{})
		require.NoError(t, err)
	}
	exec.result = &sandbox.Result{Outcome: sandbox.OutcomeTimedOut, Duration: 5 * time.Second}
	_, err := m.Run(context.Background(), SourceHTTP, sandbox.Request{})
	require.NoError(t, err)
	m.Reject(SourceHTTP, errors.New("bad"))

	stats := m.Stats()

	assert.Equal(t, 22, stats.Total)
	assert.Equal(t, 20, stats.ByOutcome["completed"])
	assert.Equal(t, 1, stats.ByOutcome["timed_out"])
	assert.Equal(t, 1, stats.ByOutcome["invalid_request"])
	assert.Equal(t, 40, stats.TestsRun)
	assert.Equal(t, 20, stats.TestsFail)
	assert.Equal(t, 5000.0, stats.MaxMillis)
	assert.InDelta(t, (210.0+5000.0)/21.0, stats.MeanMillis, 1e-9)
	assert.Equal(t, 20.0, stats.P95Millis)
}

func TestRunWithPool(t *testing.T) {
	pool := sandbox.NewPool(sandbox.NewEngine(sandbox.DefaultLimits()), 2, time.Second)
	defer pool.Close()
	m := NewManager(pool, 10, nil)

	record, err := m.Run(context.Background(), SourceCLI, sandbox.Request{
		Code:  "const double = x => x * 2;",
		Tests: "test('double', () => assertEquals(double(2), 4));",
	})
	require.NoError(t, err)

	assert.True(t, record.Response.Success)
	require.NotNil(t, record.Response.PassedCount)
	assert.Equal(t, 1, *record.Response.PassedCount)
}
