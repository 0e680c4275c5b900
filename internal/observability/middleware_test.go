package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func newTracedEngine(tracing *Tracing) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), gin.Recovery(), TraceRequests(tracing.Tracer()))
	r.GET("/pages/:slug", func(c *gin.Context) {
		if !trace.SpanFromContext(c.Request.Context()).SpanContext().IsValid() {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, c.Param("slug"))
	})
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	r.GET("/broken", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})
	return r
}

func TestRequestIDAssignsAndEchoes(t *testing.T) {
	tracing, _ := newRecordingTracing(t)
	r := newTracedEngine(tracing)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pages/runbook", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/pages/runbook", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestTraceRequestsRecordsServerSpan(t *testing.T) {
	tracing, recorder := newRecordingTracing(t)
	r := newTracedEngine(tracing)

	req := httptest.NewRequest(http.MethodGet, "/pages/runbook", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /pages/runbook", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())

	route, ok := spanAttr(span, "http.route")
	require.True(t, ok)
	assert.Equal(t, "/pages/:slug", route.AsString())
	status, ok := spanAttr(span, "http.response.status_code")
	require.True(t, ok)
	assert.EqualValues(t, http.StatusOK, status.AsInt64())
	id, ok := spanAttr(span, "http.request_id")
	require.True(t, ok)
	assert.Equal(t, "req-1", id.AsString())
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestTraceRequestsEndsSpanOnPanic(t *testing.T) {
	tracing, recorder := newRecordingTracing(t)
	r := newTracedEngine(tracing)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events(), "panic is recorded as an exception event")
}

func TestTraceRequestsFlagsServerErrors(t *testing.T) {
	tracing, recorder := newRecordingTracing(t)
	r := newTracedEngine(tracing)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTraceRequestsContinuesIncomingTrace(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	tracing, recorder := newRecordingTracing(t)
	r := newTracedEngine(tracing)

	req := httptest.NewRequest(http.MethodGet, "/pages/runbook", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	spans := spansNamed(recorder.Ended(), "GET /pages/runbook")
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", span.Parent().SpanID().String())
	assert.True(t, span.Parent().IsRemote())
}

func TestTraceRequestsStartsRootWithoutTraceparent(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	tracing, recorder := newRecordingTracing(t)
	r := newTracedEngine(tracing)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pages/runbook", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := spansNamed(recorder.Ended(), "GET /pages/runbook")
	require.Len(t, spans, 1)
	assert.False(t, spans[0].Parent().IsValid())
}
