// Package router sets up all HTTP routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/handlers"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/middleware"
)

// Setup creates and configures the Gin router with all routes.
func Setup(h *handlers.Handler, allowedOrigins []string, rateLimit int, logger zerolog.Logger) *gin.Engine {
	// gin.New instead of gin.Default: requests are logged through zerolog.
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(allowedOrigins))
	r.SetHTMLTemplate(handlers.Templates())

	rateLimiter := middleware.NewRateLimiter(rateLimit)

	// --- Browser form ---
	r.GET("/", h.ShowForm)
	r.POST("/", rateLimiter.RateLimit(), h.SubmitForm)

	// --- System ---
	r.GET("/api/v1/health", h.HealthCheck)

	// API Documentation
	r.GET("/api/docs", h.ServeSwaggerUI)
	r.GET("/api/docs/openapi.yaml", h.ServeOpenAPISpec)
	r.GET("/api/docs/openapi.json", h.ServeOpenAPIJSON)

	// --- Operations ---
	api := r.Group("/api/v1")
	api.Use(rateLimiter.RateLimit())
	{
		api.POST("/pdf/extract", h.ExtractAll)
		api.POST("/pdf/extract-page", h.ExtractPage)
		api.POST("/pdf/extract-images", h.ExtractImages)
		api.POST("/pdf/search", h.Search)

		api.POST("/export", h.ExportResult)
		api.GET("/downloads/:name", h.Download)
	}

	return r
}
