// Package search finds a query in a PDF's text layer and highlights every
// match, falling back to OCR output when the text layer has none.
package search

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/extract"
)

const (
	MsgQueryPrompt = "Please enter text to search for."
	MsgFoundInOCR  = "✅ Found in OCR text (may be in images or scanned pages)."
	MsgNotFound    = "❌ Not found in PDF (text layer or OCR)."

	highlightOpen  = `<span style="background-color: yellow;">`
	highlightClose = `</span>`
)

// Source supplies page text. *extract.Orchestrator satisfies it.
type Source interface {
	NativeText(path string) ([]string, error)
	Units(ctx context.Context, path string) ([]models.Unit, error)
}

// Engine runs searches against a Source.
type Engine struct {
	src    Source
	logger zerolog.Logger
}

// New creates a search engine.
func New(src Source, logger zerolog.Logger) *Engine {
	return &Engine{src: src, logger: logger.With().Str("component", "search").Logger()}
}

// Search looks for query in the document at path, ignoring case.
func (e *Engine) Search(ctx context.Context, path, query string) models.Result {
	if path == "" {
		return models.Result{Status: models.StatusPrompt, Text: extract.MsgUploadPrompt}
	}
	if strings.TrimSpace(query) == "" {
		return models.Result{Status: models.StatusPrompt, Text: MsgQueryPrompt}
	}

	res, err := e.search(ctx, path, query)
	if err != nil {
		e.logger.Error().Err(err).Str("query", query).Msg("search failed")
		return models.Result{
			Status: models.StatusError,
			Text:   fmt.Sprintf("An error occurred during search: %v", err),
		}
	}
	return res
}

func (e *Engine) search(ctx context.Context, path, query string) (models.Result, error) {
	pattern := Pattern(query)

	pages, err := e.src.NativeText(path)
	if err != nil {
		return models.Result{}, err
	}

	var b strings.Builder
	for i, text := range pages {
		if !pattern.MatchString(text) {
			continue
		}
		fmt.Fprintf(&b, "<div style='margin-bottom: 15px;'><b>✅ Found on Page %d:</b><br>%s</div>",
			i+1, Highlight(text, pattern))
	}
	if b.Len() > 0 {
		return models.Result{Status: models.StatusOK, Text: b.String(), Markup: true}, nil
	}

	// Nothing in the text layer; try the OCR-inclusive extraction.
	e.logger.Debug().Str("query", query).Msg("no text-layer match, searching OCR output")
	units, err := e.src.Units(ctx, path)
	if err != nil {
		return models.Result{}, err
	}
	for _, u := range units {
		if u.Source == models.SourceOCR && pattern.MatchString(u.Text) {
			return models.Result{Status: models.StatusOK, Text: MsgFoundInOCR}, nil
		}
	}
	return models.Result{Status: models.StatusNotFound, Text: MsgNotFound}, nil
}

// Pattern compiles query into a case-insensitive literal matcher.
func Pattern(query string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
}

// Highlight HTML-escapes text, wraps every match of pattern in a yellow
// span with its original casing, and turns newlines into <br>.
func Highlight(text string, pattern *regexp.Regexp) string {
	var b strings.Builder
	last := 0
	for _, m := range pattern.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:m[0]]))
		b.WriteString(highlightOpen)
		b.WriteString(html.EscapeString(text[m[0]:m[1]]))
		b.WriteString(highlightClose)
		last = m[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return strings.ReplaceAll(b.String(), "\n", "<br>")
}
