package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/conduitedeprojet/testrunner/internal/api/http"
	"github.com/conduitedeprojet/testrunner/internal/api/middleware"
	natsapi "github.com/conduitedeprojet/testrunner/internal/api/nats"
	"github.com/conduitedeprojet/testrunner/internal/api/ws"
	"github.com/conduitedeprojet/testrunner/internal/domain/snippets"
	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/config"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/logging"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/monitoring"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/tracing"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	pool      *sandbox.Pool
	runs      *testrun.Manager
	store     *snippets.Store
	responder *natsapi.Responder
	tracer    *tracing.Tracer
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance. A nil logger is built from the
// logging configuration.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	}

	logger.Info("Initializing testrunner server",
		zap.String("port", cfg.Server.Port),
		zap.Duration("timeout", cfg.Sandbox.Timeout),
		zap.Int64("max_iterations", cfg.Sandbox.MaxIterations),
		zap.Int("parallel", cfg.Sandbox.Parallel),
	)

	// Metrics first (needed by other components)
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	tracer := tracing.New("testrunner", logger.Component("trace"))

	pool := sandbox.NewPoolFromConfig(sandbox.Config{
		Limits: sandbox.Limits{
			Timeout:       cfg.Sandbox.Timeout,
			MaxIterations: cfg.Sandbox.MaxIterations,
			MaxCallStack:  cfg.Sandbox.MaxCallStack,
		},
		MaxParallel:    cfg.Sandbox.Parallel,
		AcquireTimeout: cfg.Sandbox.AcquireTimeout,
	})
	runs := testrun.NewManager(pool, cfg.Sandbox.HistorySize, logger.Component("runs")).WithMetrics(metrics)

	var (
		store      *snippets.Store
		snippetSvc *snippets.Service
	)
	if cfg.Store.Path != "" {
		var err error
		store, err = snippets.Open(context.Background(), cfg.Store.Path)
		if err != nil {
			pool.Close()
			tracer.Close()
			return nil, fmt.Errorf("failed to open snippet store: %w", err)
		}
		snippetSvc = snippets.NewService(store, runs, cfg.Sandbox.MaxSourceBytes, logger.Component("snippets")).WithMetrics(metrics)
		if n, err := store.Count(context.Background()); err == nil {
			metrics.SetSnippetsStored(n)
		}
		logger.Info("Snippet store opened", zap.String("path", cfg.Store.Path))
	} else {
		logger.Info("Snippet store disabled")
	}

	var responder *natsapi.Responder
	if cfg.NATS.Enabled {
		responder = natsapi.NewResponder(natsapi.Config{
			URL:            cfg.NATS.URL,
			Subject:        cfg.NATS.Subject,
			Queue:          cfg.NATS.Queue,
			MaxSourceBytes: cfg.Sandbox.MaxSourceBytes,
		}, runs, logger.Component("nats")).WithMetrics(metrics).WithTracer(tracer)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(runs, snippetSvc, pool, metrics, cfg.Sandbox.MaxSourceBytes, logger.Component("http"))
	wsHandler := ws.NewHandler(runs, cfg.Sandbox.MaxSourceBytes, logger.Component("ws")).WithMetrics(metrics)

	apihttp.RegisterRoutes(router, handlers)
	router.GET("/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(monitoring.Handler(registry)))

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		pool:      pool,
		runs:      runs,
		store:     store,
		responder: responder,
		tracer:    tracer,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Runs returns the run manager
func (s *Server) Runs() *testrun.Manager {
	return s.runs
}

// Run serves HTTP, and NATS when enabled, until ctx is done
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.responder != nil {
		g.Go(func() error {
			return s.responder.Run(ctx)
		})
	}

	return g.Wait()
}

// Close releases the sandbox pool, store and tracer
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sandbox pool: %w", err))
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close snippet store: %w", err))
		}
	}
	s.tracer.Close()

	// Sync logger before exit
	s.logger.Sync()

	return errors.Join(errs...)
}
