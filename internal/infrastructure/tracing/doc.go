/*
Package tracing provides lightweight request tracing across the HTTP, NATS
and client transports.

Trace context travels in the X-Trace-ID and X-Span-ID headers. Spans are
logged through zap by a background collector.

# Usage

	tracer := tracing.New("testrunner", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	ctx = tracing.Extract(ctx, msg.Header)
	span, ctx := tracer.StartSpan(ctx, "nats.run")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
