// Package app turns a Request into a Response: it runs one extraction or
// search operation and exports the result when a format was asked for.
//
// Go Pattern: Both the web form and the CLI call App.Handle, so the rules
// about what gets exported live in exactly one place.
package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

// DownloadPath is the URL prefix export artifacts are served under.
const DownloadPath = "/api/v1/downloads/"

// Extractor runs the extraction operations.
type Extractor interface {
	ExtractAll(ctx context.Context, path string) models.Result
	ExtractPage(ctx context.Context, path string, pageNumber int) models.Result
	ExtractImagesText(ctx context.Context, path string, pageNumber int) models.Result
}

// Searcher runs a search.
type Searcher interface {
	Search(ctx context.Context, path, query string) models.Result
}

// Exporter writes a result to a file.
type Exporter interface {
	Export(res models.Result, format models.Format) (string, bool)
}

// App wires the operations together.
type App struct {
	extractor Extractor
	searcher  Searcher
	exporter  Exporter
	logger    zerolog.Logger
}

// New creates an App.
func New(extractor Extractor, searcher Searcher, exporter Exporter, logger zerolog.Logger) *App {
	return &App{
		extractor: extractor,
		searcher:  searcher,
		exporter:  exporter,
		logger:    logger,
	}
}

// Handle runs req and returns its outcome. It never fails: every problem is
// reported through the Result.
func (a *App) Handle(ctx context.Context, req models.Request) models.Response {
	start := time.Now()
	resp := models.Response{Operation: req.Operation, Result: a.run(ctx, req)}

	if req.Format != "" {
		resp.Download = a.Export(resp.Result, req.Format)
	}

	a.logger.Info().
		Str("operation", string(req.Operation)).
		Str("document", req.DocumentName).
		Str("status", string(resp.Result.Status)).
		Bool("exported", resp.Download != nil).
		Dur("took", time.Since(start)).
		Msg("operation finished")

	return resp
}

func (a *App) run(ctx context.Context, req models.Request) models.Result {
	switch req.Operation {
	case models.OpExtractAll:
		return a.extractor.ExtractAll(ctx, req.DocumentPath)
	case models.OpExtractPage:
		return a.extractor.ExtractPage(ctx, req.DocumentPath, req.PageNumber)
	case models.OpExtractImages:
		return a.extractor.ExtractImagesText(ctx, req.DocumentPath, req.PageNumber)
	case models.OpSearch:
		return a.searcher.Search(ctx, req.DocumentPath, req.Query)
	default:
		return models.Result{
			Status: models.StatusInvalidInput,
			Text:   "Unknown operation: " + string(req.Operation),
		}
	}
}

// Export writes res and describes the artifact, or returns nil when res has
// nothing worth exporting.
func (a *App) Export(res models.Result, format models.Format) *models.Download {
	path, ok := a.exporter.Export(res, format)
	if !ok {
		return nil
	}
	name := filepath.Base(path)
	return &models.Download{
		Name:   name,
		Format: format,
		URL:    DownloadPath + name,
	}
}
