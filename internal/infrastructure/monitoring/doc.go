/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the backend
service, tracking HTTP requests, sandbox runs, transports and uptime.

# Features

- HTTP request metrics (latency, throughput, size)
- Run metrics (outcome, duration, iterations, test counts)
- Active isolate gauge
- WebSocket and NATS message metrics
- Snippet store operation metrics

# Usage

	// Create metrics collector on its own registry
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(monitoring.Handler(reg)))

	// Record a run
	metrics.RecordRun("http", "completed", duration, iterations, 3, 1)
*/
package monitoring
