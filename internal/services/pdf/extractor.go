// Package pdf reads the parts of a PDF the extraction pipeline needs: the
// native text layer of each page and the raster images embedded in a page.
//
// We use the ledongthuc/pdf library for text extraction.
// It's a pure Go implementation with no CGO or external dependencies.
// Embedded images come from pdfcpu, which can decode image streams that
// ledongthuc/pdf refuses (DCT, CCITT, JPX filters).
package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is an open PDF. Whoever calls Open owns it and must Close it.
type Document struct {
	Path string

	file   *os.File
	reader *pdf.Reader
}

// Open opens the PDF at path for text extraction.
//
// ledongthuc/pdf reports some malformed input by panicking, so the panic is
// turned into an error here instead of taking the request down with it.
func Open(path string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("failed to open PDF: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Document{Path: path, file: f, reader: reader}, nil
}

// NumPage returns the number of pages in the document.
func (d *Document) NumPage() (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	return d.reader.NumPage()
}

// PageText returns the native text of the page at the zero-based index.
// A page that can't be found yields empty text, which callers treat the
// same as a page without a text layer.
func (d *Document) PageText(index int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", index+1, r)
		}
	}()

	// ledongthuc/pdf numbers pages from 1
	page := d.reader.Page(index + 1)
	if page.V.IsNull() {
		return "", nil
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", index+1, err)
	}
	return text, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// HasText reports whether s contains anything besides whitespace.
func HasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

// CountWords counts the number of words in a text string.
func CountWords(text string) int {
	words := strings.Fields(text)
	return len(words)
}

// ValidatePDF checks if the data looks like a valid PDF by checking the magic bytes.
func ValidatePDF(data []byte) bool {
	// PDF files start with "%PDF-"
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
