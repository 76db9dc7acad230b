package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/conduitedeprojet/testrunner/internal/infrastructure/resilience"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/tracing"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
)

const runIDHeader = "X-Run-ID"

var (
	// ErrRejected is returned when the server answers 400 to a run request.
	// The failure response is still returned alongside it.
	ErrRejected = errors.New("run request rejected")
	// ErrBusy is returned when the server has no free sandbox
	ErrBusy = errors.New("runner busy")
	// ErrNotFound is returned for unknown run identifiers
	ErrNotFound = errors.New("not found")
)

// Config tunes a Client. Zero values get defaults.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	Retries     int
	RateLimit   float64 // requests per second, 0 means unlimited
	UserAgent   string
	BreakerName string
}

// Result is a run response together with the server-side run identifier
type Result struct {
	RunID    string
	Status   int
	Response types.RunResponse
}

// Client talks to a testrunner server over HTTP
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// New creates a client with retries, rate limiting and a circuit breaker
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "testrunner-client/1.0"
	}
	if cfg.BreakerName == "" {
		cfg.BreakerName = "runner"
	}

	// Pooled transport from retryablehttp; resty owns the retry loop
	transport := retryablehttp.NewClient().HTTPClient.Transport

	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTransport(transport).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return resp != nil && resp.StatusCode() == http.StatusServiceUnavailable
		})

	limit := rate.Inf
	burst := 0
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	return &Client{
		resty:   r,
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.New(cfg.BreakerName, resilience.Settings{
			MaxRequests: 2,
			Interval:    time.Minute,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.6)
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrRejected) || errors.Is(err, ErrNotFound)
			},
		}),
	}
}

// BreakerState reports the circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Run submits a program and its tests. Program failures come back with a nil
// error and Success false; ErrRejected carries the failure response too.
func (c *Client) Run(ctx context.Context, code, tests string) (*Result, error) {
	return resilience.Call(ctx, c.breaker, func(ctx context.Context) (*Result, error) {
		var out types.RunResponse
		resp, err := c.request(ctx).
			SetBody(types.RunRequest{Code: &code, Tests: &tests}).
			SetResult(&out).
			SetError(&out).
			Post("/api/run")
		if err != nil {
			return nil, fmt.Errorf("run request: %w", err)
		}

		res := &Result{
			RunID:    resp.Header().Get(runIDHeader),
			Status:   resp.StatusCode(),
			Response: out,
		}
		switch resp.StatusCode() {
		case http.StatusOK:
			return res, nil
		case http.StatusBadRequest:
			return res, ErrRejected
		default:
			return res, statusError(resp)
		}
	})
}

// Defaults fetches the playground program and tests
func (c *Client) Defaults(ctx context.Context) (code, tests string, err error) {
	var out types.RunRequest
	if err := c.get(ctx, "/api/playground/defaults", &out); err != nil {
		return "", "", err
	}
	if out.Code == nil || out.Tests == nil {
		return "", "", errors.New("defaults response is incomplete")
	}
	return *out.Code, *out.Tests, nil
}

// GetRun fetches a run from the server history
func (c *Client) GetRun(ctx context.Context, id string) (*types.RunRecord, error) {
	var out types.RunRecord
	if err := c.get(ctx, "/api/runs/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches the run history summary
func (c *Client) Stats(ctx context.Context) (*types.RunStats, error) {
	var out types.RunStats
	if err := c.get(ctx, "/api/runs/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the server liveness endpoint
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		req := c.request(ctx)
		if out != nil {
			req.SetResult(out)
		}
		resp, err := req.Get(path)
		if err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return fmt.Errorf("GET %s: %w", path, ErrNotFound)
		case resp.IsError():
			return statusError(resp)
		}
		return nil
	})
}

// request waits for the limiter and carries the trace context
func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.resty.R().SetContext(ctx)
	if err := c.limiter.Wait(ctx); err != nil {
		// The context error resurfaces when the request is sent
		return req
	}
	tracing.Inject(ctx, req.Header)
	return req
}

func statusError(resp *resty.Response) error {
	switch resp.StatusCode() {
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%s %s: %w", resp.Request.Method, resp.Request.URL, ErrBusy)
	default:
		return fmt.Errorf("%s %s: unexpected status %s", resp.Request.Method, resp.Request.URL, resp.Status())
	}
}
