// Package main is the entry point for the PDF Text Tools server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/app"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/config"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/handlers"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/logging"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/router"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/export"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/extract"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/ocr"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/raster"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/search"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "pdftext-server",
	})
	logger.Info().Str("version", Version).Msg("🚀 PDF Text Tools starting")
	logger.Info().
		Str("port", cfg.Port).
		Int("workers", cfg.WorkerCount).
		Str("gin_mode", cfg.GinMode).
		Strs("ocr_languages", cfg.OCRLanguages).
		Int("raster_dpi", cfg.RasterDPI).
		Str("export_dir", cfg.ExportDir).
		Msg("📋 config loaded")

	gin.SetMode(cfg.GinMode)

	// Step 2: Create Services
	engine := ocr.NewTesseract(cfg.OCRLanguages...)
	logger.Info().Str("engine", engine.Name()).Str("version", engine.Version()).Msg("✅ OCR engine ready")

	orchestrator := extract.New(
		extract.OpenPDF,
		pdf.NewImageSource(),
		raster.NewFitz(),
		engine,
		extract.Options{DPI: float64(cfg.RasterDPI)},
		logger,
	)
	searcher := search.New(orchestrator, logger)
	exporter := export.New(cfg.ExportDir, logger)
	application := app.New(orchestrator, searcher, exporter, logger)

	// Step 3: Create and Start Worker Pool
	wp := worker.NewPool(cfg.WorkerCount, cfg.JobQueueSize, application, logger)
	wp.Start()
	defer wp.Stop()

	// Step 4: Setup HTTP Router
	h := handlers.NewHandler(wp, application, engine, handlers.Options{
		UploadDir:      cfg.UploadDir,
		ExportDir:      cfg.ExportDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Version:        Version,
	}, logger)
	r := router.Setup(h, cfg.AllowedOrigins, cfg.RateLimit, logger)

	// Step 5: Start the HTTP Server
	// OCR of a long scanned document takes minutes, so the write timeout is generous.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Msgf("🌐 Server listening on http://localhost:%s", cfg.Port)
		logger.Info().Msgf("📖 API docs: http://localhost:%s/api/docs", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("❌ Server failed")
		}
	}()

	// Step 6: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("🛑 shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("⚠️ Server forced to shutdown")
	}

	logger.Info().Msg("👋 Server stopped. Goodbye!")
}
