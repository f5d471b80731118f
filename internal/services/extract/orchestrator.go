// Package extract implements the "read the text layer, fall back to OCR"
// policy for a whole document, a single page, or the images on a page.
//
// Go Pattern: The Orchestrator depends on small interfaces rather than on
// the concrete PDF, rasterizer and OCR packages. The cgo-backed pieces
// (MuPDF, Tesseract) are plugged in by main, and tests plug in fakes.
package extract

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/pdf"
)

// User-facing messages shared with the search engine.
const (
	MsgUploadPrompt = "Please upload a PDF file."
	MsgInvalidPage  = "Invalid page number. Please enter a positive integer."
)

// Document is an opened PDF's text layer.
type Document interface {
	NumPage() int
	PageText(index int) (string, error) // zero-based index
	Close() error
}

// OpenFunc opens the PDF at path.
type OpenFunc func(path string) (Document, error)

// ImageSource lists the embedded images on a 1-based page.
type ImageSource interface {
	PageImages(path string, pageNumber int) ([]pdf.EmbeddedImage, error)
}

// Rasterizer renders zero-based page indexes to image files inside dir.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, indexes []int, dpi float64, dir string) (map[int]string, error)
}

// Recognizer runs OCR on one image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// OpenPDF opens a document with the ledongthuc/pdf text reader.
func OpenPDF(path string) (Document, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		// Return a true nil interface, not a typed nil *pdf.Document.
		return nil, err
	}
	return doc, nil
}

// Options tunes the OCR fallback.
type Options struct {
	DPI        float64 // Page rendering resolution for OCR; 0 means 300
	ScratchDir string  // Parent of per-call scratch directories; "" means os.TempDir()
}

// Orchestrator combines native text and OCR output.
type Orchestrator struct {
	open       OpenFunc
	images     ImageSource
	raster     Rasterizer
	ocr        Recognizer
	dpi        float64
	scratchDir string
	logger     zerolog.Logger
}

// New creates an Orchestrator from its collaborators.
func New(open OpenFunc, images ImageSource, raster Rasterizer, ocr Recognizer, opts Options, logger zerolog.Logger) *Orchestrator {
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	return &Orchestrator{
		open:       open,
		images:     images,
		raster:     raster,
		ocr:        ocr,
		dpi:        opts.DPI,
		scratchDir: opts.ScratchDir,
		logger:     logger.With().Str("component", "extract").Logger(),
	}
}

// ExtractAll returns every page's text, using OCR for pages whose text
// layer is empty.
func (o *Orchestrator) ExtractAll(ctx context.Context, path string) models.Result {
	if path == "" {
		return models.Result{Status: models.StatusPrompt, Text: MsgUploadPrompt}
	}

	units, err := o.Units(ctx, path)
	if err != nil {
		o.logger.Error().Err(err).Str("path", path).Msg("extraction failed")
		return models.Result{
			Status: models.StatusError,
			Text:   fmt.Sprintf("An error occurred during extraction: %v", err),
		}
	}
	if len(units) == 0 {
		return models.Result{Status: models.StatusEmpty, Text: "No pages found in this PDF."}
	}

	sections := make([]string, 0, len(units))
	words, ocrPages := 0, 0
	for _, u := range units {
		sections = append(sections, formatUnit(u))
		words += pdf.CountWords(u.Text)
		if u.Source == models.SourceOCR {
			ocrPages++
		}
	}

	o.logger.Info().
		Int("pages", len(units)).
		Int("ocr_pages", ocrPages).
		Int("words", words).
		Msg("document extracted")

	return models.Result{Status: models.StatusOK, Text: strings.Join(sections, "\n\n")}
}

func formatUnit(u models.Unit) string {
	switch {
	case u.Failure != "":
		return fmt.Sprintf("--- Page %d (OCR failed: %s) ---", u.Page, u.Failure)
	case u.Source == models.SourceOCR:
		return fmt.Sprintf("--- Page %d (OCR) ---\n%s", u.Page, u.Text)
	default:
		return fmt.Sprintf("--- Page %d ---\n%s", u.Page, u.Text)
	}
}

// Units returns one unit per page in ascending order. Pages without a text
// layer are rendered as one batch and OCR'd.
func (o *Orchestrator) Units(ctx context.Context, path string) ([]models.Unit, error) {
	doc, err := o.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	n := doc.NumPage()
	units := make([]models.Unit, n)
	var blank []int

	for i := 0; i < n; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			// An unreadable text layer is handled like a missing one.
			o.logger.Warn().Err(err).Int("page", i+1).Msg("text layer unreadable, falling back to OCR")
			text = ""
		}
		if pdf.HasText(text) {
			units[i] = models.Unit{Page: i + 1, Source: models.SourceNative, Text: text}
			continue
		}
		units[i] = models.Unit{Page: i + 1, Source: models.SourceOCR}
		blank = append(blank, i)
	}

	if len(blank) > 0 {
		if err := o.ocrPages(ctx, path, blank, units); err != nil {
			return nil, err
		}
	}
	return units, nil
}

// ocrPages fills in the OCR units for the given page indexes. Failures for
// a single page are recorded on its unit; only cancellation is returned.
func (o *Orchestrator) ocrPages(ctx context.Context, path string, indexes []int, units []models.Unit) error {
	dir, err := os.MkdirTemp(o.scratchDir, "pdftext-ocr-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	o.logger.Debug().Ints("pages", pageNumbers(indexes)).Msg("rendering pages for OCR")

	rendered, err := o.raster.Rasterize(ctx, path, indexes, o.dpi, dir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.logger.Warn().Err(err).Msg("page rendering failed")
		for _, idx := range indexes {
			units[idx].Failure = err.Error()
		}
		return nil
	}

	for _, idx := range indexes {
		if err := ctx.Err(); err != nil {
			return err
		}

		imgPath, ok := rendered[idx]
		if !ok {
			units[idx].Failure = "image not found"
			continue
		}

		text, err := o.recognizeFile(ctx, imgPath)
		if err != nil {
			o.logger.Warn().Err(err).Int("page", idx+1).Msg("page OCR failed")
			units[idx].Failure = err.Error()
			continue
		}
		units[idx].Text = text
	}
	return nil
}

func (o *Orchestrator) recognizeFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode rendered page: %w", err)
	}
	return o.ocr.Recognize(ctx, img)
}

// NativeText returns the text layer of every page, without OCR.
func (o *Orchestrator) NativeText(path string) ([]string, error) {
	doc, err := o.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]string, n)
	for i := 0; i < n; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			o.logger.Warn().Err(err).Int("page", i+1).Msg("text layer unreadable")
			continue
		}
		pages[i] = text
	}
	return pages, nil
}

// ExtractPage returns the text layer of one page together with the OCR
// text of the images embedded in it.
func (o *Orchestrator) ExtractPage(ctx context.Context, path string, pageNumber int) models.Result {
	if res, ok := checkInput(path, pageNumber); !ok {
		return res
	}

	res, err := o.extractPage(ctx, path, pageNumber)
	if err != nil {
		o.logger.Error().Err(err).Int("page", pageNumber).Msg("page extraction failed")
		return models.Result{
			Status: models.StatusError,
			Text:   fmt.Sprintf("An error occurred during page extraction: %v", err),
		}
	}
	return res
}

func (o *Orchestrator) extractPage(ctx context.Context, path string, pageNumber int) (models.Result, error) {
	doc, err := o.open(path)
	if err != nil {
		return models.Result{}, err
	}
	defer doc.Close()

	if res, ok := checkRange(doc, pageNumber); !ok {
		return res, nil
	}

	native, err := doc.PageText(pageNumber - 1)
	if err != nil {
		return models.Result{}, err
	}

	imageTexts, err := o.imageTexts(ctx, path, pageNumber)
	if err != nil {
		return models.Result{}, err
	}

	var parts []string
	if trimmed := strings.TrimSpace(native); trimmed != "" {
		parts = append(parts, trimmed)
	}
	if joined := strings.TrimSpace(strings.Join(imageTexts, "\n")); joined != "" {
		parts = append(parts, joined)
	}

	if len(parts) == 0 {
		return models.Result{
			Status: models.StatusEmpty,
			Text:   fmt.Sprintf("--- Page %d ---\nNo text found on this page (either text layer or images).", pageNumber),
		}, nil
	}
	return models.Result{
		Status: models.StatusOK,
		Text:   fmt.Sprintf("--- Page %d ---\n%s", pageNumber, strings.Join(parts, "\n")),
	}, nil
}

// ExtractImagesText returns only the OCR text of the images on one page.
func (o *Orchestrator) ExtractImagesText(ctx context.Context, path string, pageNumber int) models.Result {
	if res, ok := checkInput(path, pageNumber); !ok {
		return res
	}

	res, err := o.extractImagesText(ctx, path, pageNumber)
	if err != nil {
		o.logger.Error().Err(err).Int("page", pageNumber).Msg("image text extraction failed")
		return models.Result{
			Status: models.StatusError,
			Text:   fmt.Sprintf("An error occurred during image text extraction from page: %v", err),
		}
	}
	return res
}

func (o *Orchestrator) extractImagesText(ctx context.Context, path string, pageNumber int) (models.Result, error) {
	doc, err := o.open(path)
	if err != nil {
		return models.Result{}, err
	}
	res, ok := checkRange(doc, pageNumber)
	doc.Close()
	if !ok {
		return res, nil
	}

	texts, err := o.imageTexts(ctx, path, pageNumber)
	if err != nil {
		return models.Result{}, err
	}
	if len(texts) == 0 {
		return models.Result{
			Status: models.StatusEmpty,
			Text:   fmt.Sprintf("No images found on Page %d with extractable text.", pageNumber),
		}, nil
	}
	return models.Result{Status: models.StatusOK, Text: strings.Join(texts, "\n\n")}, nil
}

// imageTexts OCRs each embedded image on the page. Images that fail to
// decode or recognize are logged and skipped, as are images with no text.
func (o *Orchestrator) imageTexts(ctx context.Context, path string, pageNumber int) ([]string, error) {
	images, err := o.images.PageImages(path, pageNumber)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log := o.logger.With().Int("page", pageNumber).Str("image", img.Name).Logger()

		decoded, err := pdf.DecodeImage(img.Data)
		if err != nil {
			log.Warn().Err(err).Msg("could not process image")
			continue
		}

		text, err := o.ocr.Recognize(ctx, ToRGB(decoded))
		if err != nil {
			log.Warn().Err(err).Msg("could not process image")
			continue
		}
		if pdf.HasText(text) {
			texts = append(texts, strings.TrimSpace(text))
		}
	}
	return texts, nil
}

func checkInput(path string, pageNumber int) (models.Result, bool) {
	if path == "" {
		return models.Result{Status: models.StatusPrompt, Text: MsgUploadPrompt}, false
	}
	if pageNumber < 1 {
		return models.Result{Status: models.StatusInvalidInput, Text: MsgInvalidPage}, false
	}
	return models.Result{}, true
}

func checkRange(doc Document, pageNumber int) (models.Result, bool) {
	if n := doc.NumPage(); pageNumber > n {
		return models.Result{
			Status: models.StatusInvalidInput,
			Text:   fmt.Sprintf("❌ Invalid page number. PDF has %d pages.", n),
		}, false
	}
	return models.Result{}, true
}

// ToRGB flattens img onto an opaque white canvas. Tesseract does poorly
// with alpha channels and palette images.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

func pageNumbers(indexes []int) []int {
	out := make([]int, len(indexes))
	for i, idx := range indexes {
		out[i] = idx + 1
	}
	return out
}
