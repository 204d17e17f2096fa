package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"finsync/internal/domain"
	"finsync/internal/handler"
	"finsync/internal/metrics"
	"finsync/internal/router"
	"finsync/mocks"
)

func TestSetup_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mocks.MockExtractionService)
	svc.On("ListRuns", mock.Anything, 0, 20).Return([]domain.BatchRun{}, 0, nil)
	svc.On("Ready", mock.Anything).Return(nil)

	r := router.Setup(router.Handlers{
		Extraction: handler.NewExtractionHandler(svc),
		Report:     handler.NewReportHandler(svc),
		Health:     handler.NewHealthHandler(svc),
	}, metrics.New(), []string{"http://localhost:3000"}, 8<<20)

	for _, tc := range []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/reports", http.StatusOK},
		{http.MethodGet, "/api/v1/reports/download", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/reports/not-a-uuid", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/extract", http.StatusBadRequest},
		{http.MethodOptions, "/api/v1/extract", http.StatusNoContent},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.target, http.NoBody)
		req.Header.Set("Origin", "http://localhost:3000")
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.target)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
