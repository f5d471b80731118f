// Package raster renders PDF pages to PNG files so pages without a text
// layer can go through OCR.
//
// Go Pattern: The rasterizer is a small adapter around a cgo library
// (MuPDF via go-fitz). Keeping it in its own package means packages that
// only depend on the extract interfaces build without cgo.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	fitz "github.com/gen2brain/go-fitz"
)

// DefaultDPI is the resolution pages are rendered at unless configured.
const DefaultDPI = 300

// Fitz renders pages with MuPDF.
type Fitz struct{}

// NewFitz creates a MuPDF-backed rasterizer.
func NewFitz() *Fitz {
	return &Fitz{}
}

// Rasterize renders the pages at the given zero-based indexes into dir and
// returns the PNG path for each index. Files are named page_NNN.png with the
// 1-based page number. The caller owns dir and removes it when done.
func (f *Fitz) Rasterize(ctx context.Context, path string, indexes []int, dpi float64, dir string) (map[int]string, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	out := make(map[int]string, len(indexes))

	for _, idx := range indexes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if idx < 0 || idx >= pageCount {
			return nil, fmt.Errorf("page %d out of range (document has %d pages)", idx+1, pageCount)
		}

		img, err := doc.ImageDPI(idx, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", idx+1, err)
		}

		outPath := filepath.Join(dir, fmt.Sprintf("page_%03d.png", idx+1))
		if err := writePNG(outPath, img); err != nil {
			return nil, fmt.Errorf("failed to write page %d: %w", idx+1, err)
		}
		out[idx] = outPath
	}

	return out, nil
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
