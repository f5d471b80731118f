// Package handlers contains HTTP handler functions for the API and the form.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides:
// - Request data (params, query, body, headers)
// - Response methods (JSON, String, Status)
// - Middleware data (c.Get/c.Set)
//
// We group related handlers into a struct (Handler) that holds shared dependencies.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

// Runner executes a request on the worker pool. *worker.Pool satisfies it.
type Runner interface {
	Run(ctx context.Context, req models.Request) (models.Response, error)
	WorkerCount() int
	QueueSize() int
}

// ResultExporter exports a previously returned result. *app.App satisfies it.
type ResultExporter interface {
	Export(res models.Result, format models.Format) *models.Download
}

// EngineInfo describes the OCR engine for the health check.
type EngineInfo interface {
	Name() string
	Version() string
	Languages() []string
}

// Options holds the file locations and limits handlers need.
type Options struct {
	UploadDir      string
	ExportDir      string
	MaxUploadBytes int64
	Version        string
}

// Handler holds shared dependencies for all HTTP handlers.
// Go Pattern: Dependency injection via struct fields. Instead of global
// variables or service locators, we pass dependencies explicitly.
// Tests create a Handler with fake dependencies.
type Handler struct {
	Worker   Runner
	Exporter ResultExporter
	OCR      EngineInfo
	Opts     Options
	Logger   zerolog.Logger
}

// NewHandler creates a new handler with all dependencies.
func NewHandler(wp Runner, exp ResultExporter, engine EngineInfo, opts Options, logger zerolog.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20 // 50MB
	}
	return &Handler{
		Worker:   wp,
		Exporter: exp,
		OCR:      engine,
		Opts:     opts,
		Logger:   logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	resp := models.HealthResponse{
		Status:    "ok",
		Version:   h.Opts.Version,
		Workers:   h.Worker.WorkerCount(),
		QueueSize: h.Worker.QueueSize(),
	}
	if h.OCR != nil {
		resp.OCREngine = h.OCR.Name()
		resp.OCRVersion = h.OCR.Version()
		resp.Languages = h.OCR.Languages()
	}
	c.JSON(http.StatusOK, resp)
}
