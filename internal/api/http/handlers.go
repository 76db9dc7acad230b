package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/conduitedeprojet/testrunner/internal/api/middleware"
	"github.com/conduitedeprojet/testrunner/internal/domain/snippets"
	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/monitoring"
	"github.com/conduitedeprojet/testrunner/internal/playground"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

const version = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	runs           *testrun.Manager
	snippets       *snippets.Service
	pool           *sandbox.Pool
	metrics        *monitoring.Metrics
	logger         *zap.Logger
	maxSourceBytes int
}

// NewHandlers creates a new handler set. snippetService may be nil when no
// store is configured.
func NewHandlers(
	runs *testrun.Manager,
	snippetService *snippets.Service,
	pool *sandbox.Pool,
	metrics *monitoring.Metrics,
	maxSourceBytes int,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		runs:           runs,
		snippets:       snippetService,
		pool:           pool,
		metrics:        metrics,
		logger:         logger,
		maxSourceBytes: maxSourceBytes,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "testrunner",
		"version": version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sandbox":  h.pool.Stats(),
		"runs":     h.runs.Stats(),
		"snippets": gin.H{"enabled": h.snippets != nil},
	})
}

// Run executes the program/tests pair of the request body
func (h *Handlers) Run(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, utils.MaxJSONSize+1))
	if err != nil {
		h.reject(c, testrun.SourceHTTP, err)
		return
	}

	req, err := sandbox.ParseRequest(body, h.maxSourceBytes)
	if err != nil {
		h.reject(c, testrun.SourceHTTP, err)
		return
	}

	h.execute(c, testrun.SourceHTTP, req)
}

// Defaults returns the starter program and tests
func (h *Handlers) Defaults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":  playground.Code,
		"tests": playground.Tests,
	})
}

// GetRun returns one recorded run
func (h *Handlers) GetRun(c *gin.Context) {
	runID := c.Param("id")
	if err := utils.ValidateID(runID, "run_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, ok := h.runs.Get(runID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListRuns returns recent runs, newest first
func (h *Handlers) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"runs": h.runs.List(limit)})
}

// RunStats returns aggregate run statistics
func (h *Handlers) RunStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.runs.Stats())
}

// MetricsSnapshot returns a JSON view of the service metrics
func (h *Handlers) MetricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"backend": h.metrics.Snapshot(),
		"uptime":  h.metrics.UptimeDuration().String(),
		"sandbox": h.pool.Stats(),
		"runs":    h.runs.Stats(),
	})
}

func (h *Handlers) execute(c *gin.Context, source string, req sandbox.Request) {
	record, err := h.runs.Run(c.Request.Context(), source, req)
	if err != nil {
		msg := err.Error()
		c.JSON(schedulingStatus(err), types.RunResponse{Success: false, Error: &msg})
		return
	}

	c.Header(middleware.RunIDHeader, record.ID)
	c.JSON(http.StatusOK, record.Response)
}

func (h *Handlers) reject(c *gin.Context, source string, cause error) {
	record := h.runs.Reject(source, cause)
	c.Header(middleware.RunIDHeader, record.ID)
	c.JSON(http.StatusBadRequest, record.Response)
}

func schedulingStatus(err error) int {
	switch {
	case errors.Is(err, sandbox.ErrAcquireTimeout), errors.Is(err, sandbox.ErrPoolClosed):
		return http.StatusServiceUnavailable
	default:
		// Client went away
		return 499
	}
}
