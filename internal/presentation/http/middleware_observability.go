package httppresentation

import (
	"strconv"
	"time"

	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerRequestID = "X-Request-ID"
	tracerName      = "escabiapi.http"
	unmatchedRoute  = "unmatched"
)

// routeOf returns the gin route template, a low-cardinality label.
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return unmatchedRoute
}

// withTrace starts a server span per request after extracting W3C trace context.
func (h *Handler) withTrace() gin.HandlerFunc {
	prop := otel.GetTextMapPropagator()
	return func(c *gin.Context) {
		r := c.Request
		parent := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		route := routeOf(c)

		ctx, span := otel.Tracer(tracerName).Start(parent,
			r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		c.Request = r.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
	}
}

// withRequestContext generates or echoes X-Request-ID, binds a request-scoped
// logger carrying request and trace ids, and stamps the audit request details.
func (h *Handler) withRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		fields := []observability.Field{observability.F("request_id", rid)}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		ctx = logctx.With(ctx, h.log.With(fields...))
		ctx = domaudit.WithRequest(ctx, domaudit.Request{
			ClientIP: c.ClientIP(),
			Method:   c.Request.Method,
			Path:     c.Request.URL.Path,
		})

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// withHTTPMetrics records RED metrics on the injected instruments.
func (h *Handler) withHTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeOf(c)
		h.httpRequests.Add(1,
			observability.L("method", c.Request.Method),
			observability.L("route", route),
			observability.L("status", strconv.Itoa(c.Writer.Status())),
		)
		h.httpDuration.Observe(time.Since(start).Seconds(),
			observability.L("method", c.Request.Method),
			observability.L("route", route),
		)
	}
}

// withAccessLog writes one access line once the handler completes.
func (h *Handler) withAccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []observability.Field{
			observability.F("method", c.Request.Method),
			observability.F("route", routeOf(c)),
			observability.F("path", c.Request.URL.Path),
			observability.F("status", c.Writer.Status()),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		}
		if id, ok := identityFrom(c); ok {
			fields = append(fields, observability.F("user_id", id.UserID))
		}
		logctx.FromOr(c.Request.Context(), h.log).Info("http_access", fields...)
	}
}

// withRecovery turns a handler panic into a 500 and logs it.
func (h *Handler) withRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logctx.FromOr(c.Request.Context(), h.log).Error("http_panic",
					observability.F("panic", rec),
					observability.F("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(500, errorBody{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}
