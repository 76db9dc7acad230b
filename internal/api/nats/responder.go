package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/monitoring"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/tracing"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

const maxDecodedSize = utils.MaxJSONSize

// Config configures the responder
type Config struct {
	URL            string
	Subject        string
	Queue          string
	MaxSourceBytes int
}

// Responder answers run requests published on a subject. Members of the
// same queue group share the load.
type Responder struct {
	cfg     Config
	runs    *testrun.Manager
	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	nc  *nats.Conn
	sub *nats.Subscription
}

// NewResponder creates a responder
func NewResponder(cfg Config, runs *testrun.Manager, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{cfg: cfg, runs: runs, logger: logger}
}

// WithMetrics adds metrics tracking to the responder
func (r *Responder) WithMetrics(metrics *monitoring.Metrics) *Responder {
	r.metrics = metrics
	return r
}

// WithTracer adds span reporting to the responder
func (r *Responder) WithTracer(tracer *tracing.Tracer) *Responder {
	r.tracer = tracer
	return r
}

// Start connects and subscribes
func (r *Responder) Start() error {
	nc, err := nats.Connect(r.cfg.URL,
		nats.Name("testrunner"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				r.logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			r.logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	return r.Attach(nc)
}

// Attach subscribes on an existing connection
func (r *Responder) Attach(nc *nats.Conn) error {
	sub, err := nc.QueueSubscribe(r.cfg.Subject, r.cfg.Queue, r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.cfg.Subject, err)
	}
	r.nc = nc
	r.sub = sub
	r.logger.Info("NATS responder listening",
		zap.String("subject", r.cfg.Subject),
		zap.String("queue", r.cfg.Queue),
	)
	return nil
}

// Run starts the responder and blocks until ctx is done
func (r *Responder) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return r.Close()
}

// Close drains in-flight requests and closes the connection
func (r *Responder) Close() error {
	if r.nc == nil {
		return nil
	}
	if err := r.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return err
	}
	return nil
}

func (r *Responder) handle(msg *nats.Msg) {
	if msg.Reply == "" {
		r.observe("no_reply")
		return
	}

	ctx := context.Background()
	var span *tracing.Span
	if r.tracer != nil && msg.Header != nil {
		ctx = tracing.Extract(ctx, msg.Header)
	}
	if r.tracer != nil {
		span, ctx = r.tracer.StartSpan(ctx, "nats "+msg.Subject)
	}

	header, body := r.process(ctx, msg.Header, msg.Data)

	reply := nats.NewMsg(msg.Reply)
	reply.Header = header
	reply.Data = body
	if err := msg.RespondMsg(reply); err != nil {
		r.logger.Warn("NATS reply failed", zap.Error(err))
		r.observe("reply_error")
		if span != nil {
			span.SetError(err)
		}
	} else {
		r.observe("ok")
	}

	if span != nil {
		span.SetTag("run_id", header.Get(RunIDHeader))
		span.Finish()
		r.tracer.Submit(span)
	}
}

// process turns one request payload into one reply payload
func (r *Responder) process(ctx context.Context, header nats.Header, data []byte) (nats.Header, []byte) {
	compressed := header.Get(EncodingHeader) == encodingSnappy

	var record *types.RunRecord
	body, err := decodeBody(header, data)
	if err == nil {
		var req sandbox.Request
		req, err = sandbox.ParseRequest(body, r.cfg.MaxSourceBytes)
		if err == nil {
			record, err = r.runs.Run(ctx, testrun.SourceNATS, req)
			if err != nil {
				text := err.Error()
				return r.encode(types.RunResponse{Success: false, Error: &text}, "", compressed)
			}
		}
	}
	if err != nil {
		if !errors.Is(err, utils.ErrInvalidRequest) {
			err = fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
		}
		record = r.runs.Reject(testrun.SourceNATS, err)
	}

	return r.encode(record.Response, record.ID, compressed)
}

func (r *Responder) encode(resp types.RunResponse, runID string, compressed bool) (nats.Header, []byte) {
	header, body, err := encodeBody(resp, compressed)
	if err != nil {
		// RunResponse always marshals
		r.logger.Error("Encode reply failed", zap.Error(err))
		return nats.Header{}, []byte(`{"success":false,"error":"internal error"}`)
	}
	if runID != "" {
		header.Set(RunIDHeader, runID)
	}
	return header, body
}

func (r *Responder) observe(status string) {
	if r.metrics != nil {
		r.metrics.RecordNATSMessage(status)
	}
}
