// Package export writes an operation's result to a downloadable file.
//
// Supported formats:
//   - txt  - Flat UTF-8 text
//   - docx - Word document, one paragraph per line
//   - pdf  - Plain A4 PDF in Helvetica
//
// Go Pattern: Each export format is its own function. Adding a format means
// adding a case to the switch and one writer function.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/fumiama/go-docx"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

// FilePrefix starts every artifact name. Artifacts are named
// pdftext-<digits>.<ext>.
const FilePrefix = "pdftext-"

// Exporter writes artifacts into a single directory. Nothing here deletes
// them; the directory is expected to be cleaned externally.
type Exporter struct {
	dir    string
	logger zerolog.Logger
}

// New creates an Exporter writing into dir ("" means os.TempDir()).
func New(dir string, logger zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger.With().Str("component", "export").Logger()}
}

// Dir returns the directory artifacts are written to.
func (e *Exporter) Dir() string {
	if e.dir == "" {
		return os.TempDir()
	}
	return e.dir
}

// Export writes res in the given format and returns the file path.
// It returns false when res carries no exportable content or writing fails.
func (e *Exporter) Export(res models.Result, format models.Format) (string, bool) {
	if !res.HasContent() {
		return "", false
	}

	text := res.Text
	if res.Markup || strings.Contains(text, "<div") {
		text = StripMarkup(text)
	}

	f, err := os.CreateTemp(e.Dir(), FilePrefix+"*"+format.Extension())
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to create export file")
		return "", false
	}
	path := f.Name()

	// Go Pattern: Switch on the format; unknown formats fall back to text.
	switch format {
	case models.FormatDOCX:
		err = writeDOCX(f, text)
	case models.FormatPDF:
		err = writePDF(f, text)
	default:
		err = writeTXT(f, text)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		e.logger.Error().Err(err).Str("format", string(format)).Msg("export failed")
		os.Remove(path)
		return "", false
	}

	e.logger.Info().Str("file", path).Str("format", string(format)).Msg("exported result")
	return path, true
}

// writeTXT writes the text unchanged.
func writeTXT(w io.Writer, text string) error {
	_, err := io.WriteString(w, text)
	return err
}

// writeDOCX writes one paragraph per line of text.
func writeDOCX(w io.Writer, text string) error {
	doc := docx.New().WithDefaultTheme()
	for _, line := range strings.Split(text, "\n") {
		doc.AddParagraph().AddText(line)
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write docx: %w", err)
	}
	return nil
}

// writePDF lays the text out on A4 pages. The core fonts only cover
// cp1252, so characters outside it are lost.
func writePDF(w io.Writer, text string) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 11)

	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.MultiCell(0, 5.5, tr(text), "", "L", false)

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// StripMarkup turns result HTML into plain text. <br> and the end of block
// elements become newlines, other tags are dropped and entities decoded.
func StripMarkup(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or malformed input: either way we're done
			return strings.TrimRight(b.String(), "\n")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "div", "p", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				b.WriteByte('\n')
			}
		}
	}
}
