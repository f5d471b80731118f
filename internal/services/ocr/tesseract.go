// Package ocr wraps the Tesseract engine behind a single Recognize call.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs OCR through gosseract.
//
// Go Pattern: gosseract clients aren't safe for concurrent use, so each
// call gets its own client from clientFactory and closes it afterwards.
type Tesseract struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseract creates an engine for the given Tesseract language codes.
// No languages means Tesseract's default ("eng").
func NewTesseract(languages ...string) *Tesseract {
	return &Tesseract{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Name identifies the engine in health output.
func (t *Tesseract) Name() string { return "tesseract" }

// Version reports the linked Tesseract library version.
func (t *Tesseract) Version() string {
	return gosseract.Version()
}

// Languages returns the configured language codes.
func (t *Tesseract) Languages() []string {
	return t.languages
}

// Recognize returns the text Tesseract finds in img.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	client := t.clientFactory()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimRight(text, "\n"), nil
}
