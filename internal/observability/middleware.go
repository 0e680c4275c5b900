package observability

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
)

// RequestID reuses an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// TraceRequests opens a server span per request and makes it the parent of
// every storage span started while handling it. An incoming traceparent
// header makes the server span a child of the caller's span. The span is ended on every
// exit path; a panic is recorded and then re-raised for the recovery
// middleware.
func TraceRequests(tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		original := c.Request
		parent := otel.GetTextMapPropagator().Extract(original.Context(), propagation.HeaderCarrier(original.Header))
		ctx, span := tracer.Start(parent, original.Method+" "+original.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", original.Method),
				attribute.String("url.path", original.URL.Path),
				attribute.String("server.address", original.Host),
			),
		)
		c.Request = original.WithContext(ctx)

		defer func() {
			recovered := recover()

			status := c.Writer.Status()
			if recovered != nil {
				status = http.StatusInternalServerError
			}
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if route := c.FullPath(); route != "" {
				span.SetAttributes(attribute.String("http.route", route))
			}
			if id := c.GetString(RequestIDKey); id != "" {
				span.SetAttributes(attribute.String("http.request_id", id))
			}
			for _, ginErr := range c.Errors {
				span.RecordError(ginErr.Err)
			}

			switch {
			case recovered != nil:
				err := fmt.Errorf("panic: %v", recovered)
				span.RecordError(err, trace.WithStackTrace(true))
				span.SetStatus(codes.Error, err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			span.End()
			c.Request = original

			if recovered != nil {
				panic(recovered)
			}
		}()

		c.Next()
	}
}
