package router

import (
	"github.com/gin-gonic/gin"

	"finsync/internal/handler"
	"finsync/internal/metrics"
	"finsync/internal/middleware"
)

// Handlers groups the HTTP handlers served by the engine.
type Handlers struct {
	Extraction *handler.ExtractionHandler
	Report     *handler.ReportHandler
	Health     *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, m *metrics.Metrics, allowedOrigins []string, maxUploadBytes int64) *gin.Engine {
	r := gin.New()
	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.Metrics(m))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/extract", h.Extraction.Extract)

	reports := v1.Group("/reports")
	reports.GET("", h.Report.List)
	reports.GET("/download", h.Report.Download)
	reports.GET("/:id", h.Report.Get)

	return r
}
