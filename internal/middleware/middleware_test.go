package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/metrics"
	"finsync/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger())
	var seen string
	r.GET("/test", func(c *gin.Context) {
		seen = c.GetString(middleware.ContextKeyRequestID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(middleware.Metrics(m))
	r.GET("/api/v1/reports", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/reports?offset=5", http.NoBody))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `finsync_http_requests_total{method="GET",route="/api/v1/reports",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `route="unmatched",status="404"`)
}
