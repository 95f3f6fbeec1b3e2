package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	tel, err := Init(context.Background(), &Config{Enabled: false, ServiceName: "test"})
	require.NoError(t, err)
	require.NotNil(t, tel.Tracer())
	assert.Same(t, tel, Get())
	assert.NoError(t, Shutdown(context.Background()))
}

func TestInit_NilConfig(t *testing.T) {
	tel, err := Init(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, tel)
}

func TestStartSpan_NoopHasNoTraceID(t *testing.T) {
	_, err := Init(context.Background(), &Config{ServiceName: "test"})
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()

	assert.Equal(t, "", GetTraceID(ctx))
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
}

func TestHeaders_RoundTripWithoutTrace(t *testing.T) {
	h := InjectHeaders(context.Background(), nil)
	assert.NotNil(t, h)

	ctx := ExtractHeaders(context.Background(), map[string]string{})
	assert.NotNil(t, ctx)
}

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TracingMiddleware("test"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for path, want := range map[string]int{"/health": http.StatusOK, "/fail": http.StatusInternalServerError} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
