package testrun

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/conduitedeprojet/testrunner/internal/infrastructure/logging"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/monitoring"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/id"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

// Sources of a run
const (
	SourceHTTP    = "http"
	SourceUpload  = "upload"
	SourceWS      = "ws"
	SourceNATS    = "nats"
	SourceSnippet = "snippet"
	SourceCLI     = "cli"
)

// Executor runs one request. *sandbox.Pool satisfies it.
type Executor interface {
	Execute(ctx context.Context, req sandbox.Request) (*sandbox.Result, error)
}

// Manager runs requests, assigns run IDs and keeps recent history
type Manager struct {
	executor Executor
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	history  *xsync.MapOf[string, *types.RunRecord]
	mu       sync.Mutex
	order    []string // Protected by mu, oldest first
	capacity int
}

// NewManager creates a run manager keeping at most capacity records
func NewManager(executor Executor, capacity int, logger *zap.Logger) *Manager {
	if capacity <= 0 {
		capacity = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		executor: executor,
		logger:   logger,
		history:  xsync.NewMapOf[string, *types.RunRecord](),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Run executes req and records the outcome. Errors are returned only when
// the request could not be scheduled; program failures are in the record.
func (m *Manager) Run(ctx context.Context, source string, req sandbox.Request) (*types.RunRecord, error) {
	runID := id.NewRunID().String()
	started := time.Now()

	if m.metrics != nil {
		m.metrics.RunStarted()
		defer m.metrics.RunFinished()
	}

	res, err := m.executor.Execute(ctx, req)
	if err != nil {
		m.logger.Warn("Run not scheduled",
			zap.String("run_id", runID),
			zap.String("source", source),
			zap.Error(err),
		)
		if m.metrics != nil {
			m.metrics.RecordRejected(source, rejectReason(err))
		}
		return nil, err
	}

	record := &types.RunRecord{
		ID:          runID,
		Source:      source,
		Fingerprint: utils.Fingerprint(req.Code, req.Tests),
		Outcome:     res.Outcome.String(),
		Response:    res.Response(),
		Iterations:  res.Iterations,
		Duration:    res.Duration,
		StartedAt:   started,
	}
	m.store(record)

	if m.metrics != nil {
		m.metrics.RecordRun(source, record.Outcome, res.Duration, res.Iterations, res.Counters.Passed, res.Counters.Failed)
	}

	fields := logging.RunFields(runID, source, record.Outcome, res.Duration, res.Iterations)
	if res.Success() {
		m.logger.Info("Run finished", append(fields,
			zap.Int("tests", res.Counters.Tests),
			zap.Int("failed", res.Counters.Failed),
		)...)
	} else {
		m.logger.Info("Run failed", append(fields, zap.String("error", res.Error))...)
	}

	return record, nil
}

// Reject records a request refused before execution
func (m *Manager) Reject(source string, cause error) *types.RunRecord {
	res := sandbox.Rejected(cause)
	record := &types.RunRecord{
		ID:        id.NewRunID().String(),
		Source:    source,
		Outcome:   res.Outcome.String(),
		Response:  res.Response(),
		StartedAt: time.Now(),
	}
	m.store(record)

	if m.metrics != nil {
		m.metrics.RecordRejected(source, "invalid_request")
	}
	m.logger.Debug("Request rejected",
		zap.String("run_id", record.ID),
		zap.String("source", source),
		zap.Error(cause),
	)
	return record
}

// Get retrieves a run by ID
func (m *Manager) Get(runID string) (*types.RunRecord, bool) {
	record, ok := m.history.Load(runID)
	if !ok {
		return nil, false
	}
	recordCopy := *record
	return &recordCopy, true
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (m *Manager) List(limit int) []*types.RunRecord {
	m.mu.Lock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	m.mu.Unlock()

	records := make([]*types.RunRecord, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if limit > 0 && len(records) >= limit {
			break
		}
		if record, ok := m.Get(ids[i]); ok {
			records = append(records, record)
		}
	}
	return records
}

// Stats summarizes the history
func (m *Manager) Stats() types.RunStats {
	stats := types.RunStats{ByOutcome: make(map[string]int)}
	durations := make([]float64, 0, m.history.Size())

	m.history.Range(func(_ string, record *types.RunRecord) bool {
		stats.Total++
		stats.ByOutcome[record.Outcome]++
		if record.Outcome != sandbox.OutcomeInvalidRequest.String() {
			durations = append(durations, float64(record.Duration)/float64(time.Millisecond))
		}
		if record.Response.TestCount != nil {
			stats.TestsRun += *record.Response.TestCount
		}
		if record.Response.FailedCount != nil {
			stats.TestsFail += *record.Response.FailedCount
		}
		return true
	})

	if len(durations) > 0 {
		sort.Float64s(durations)
		stats.MeanMillis = stat.Mean(durations, nil)
		stats.P95Millis = stat.Quantile(0.95, stat.Empirical, durations, nil)
		stats.MaxMillis = durations[len(durations)-1]
	}

	return stats
}

func (m *Manager) store(record *types.RunRecord) {
	m.history.Store(record.ID, record)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append(m.order, record.ID)
	for len(m.order) > m.capacity {
		m.history.Delete(m.order[0])
		m.order = m.order[1:]
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, sandbox.ErrPoolClosed):
		return "pool_closed"
	case errors.Is(err, sandbox.ErrAcquireTimeout):
		return "busy"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
