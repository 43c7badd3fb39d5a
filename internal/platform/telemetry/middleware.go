package telemetry

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jsamuelsen/quote-session/internal/platform/telemetry"

// HeaderTraceID carries the trace id back to the caller so that a problem
// response can be matched to its trace.
const HeaderTraceID = "X-Trace-ID"

type httpInstruments struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

var (
	instrumentsOnce sync.Once
	instruments     *httpInstruments
)

// serverInstruments creates the HTTP instruments once, against whatever
// meter provider is installed at first use. Errors go to otel.Handle and
// leave the middleware recording nothing.
func serverInstruments() *httpInstruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)

		var (
			in   httpInstruments
			errs [3]error
		)

		in.duration, errs[0] = meter.Float64Histogram("http.server.request.duration",
			metric.WithDescription("Duration of session API requests"), metric.WithUnit("s"))
		in.requests, errs[1] = meter.Int64Counter("http.server.request.total",
			metric.WithDescription("Session API requests by route and status"))
		in.inFlight, errs[2] = meter.Int64UpDownCounter("http.server.active_requests",
			metric.WithDescription("Session API requests in flight"))

		for _, err := range errs {
			if err != nil {
				otel.Handle(err)
				return
			}
		}

		instruments = &in
	})

	return instruments
}

// Middleware returns the otelgin tracing middleware.
func Middleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// MetricsMiddleware records request metrics and echoes the trace id in
// X-Trace-ID. Mount it after Middleware so the span exists.
func MetricsMiddleware() gin.HandlerFunc {
	in := serverInstruments()

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		if in == nil {
			c.Next()
			return
		}

		base := []attribute.KeyValue{
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
		}

		in.inFlight.Add(ctx, 1, metric.WithAttributes(base...))
		start := time.Now()

		c.Next()

		in.inFlight.Add(ctx, -1, metric.WithAttributes(base...))

		done := metric.WithAttributes(append(base, attribute.Int("http.response.status_code", c.Writer.Status()))...)
		in.duration.Record(ctx, time.Since(start).Seconds(), done)
		in.requests.Add(ctx, 1, done)
	}
}
