package pdf

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"sort"
	"strconv"

	// Register decoders for the formats pdfcpu hands back.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// EmbeddedImage is one raster image referenced from a page.
type EmbeddedImage struct {
	Page     int    // 1-based page number
	Name     string // Resource name on the page, e.g. "Im1"
	ObjNr    int    // PDF object number; stable ordering key
	FileType string // "png", "jpg", "tif", ...
	Data     []byte // Encoded image bytes
}

// ImageSource enumerates embedded images using pdfcpu.
type ImageSource struct {
	conf *model.Configuration
}

// NewImageSource creates an ImageSource with pdfcpu's default configuration.
func NewImageSource() *ImageSource {
	conf := model.NewDefaultConfiguration()
	// Don't let a relaxed-validation failure on an odd producer block extraction.
	conf.ValidationMode = model.ValidationRelaxed
	return &ImageSource{conf: conf}
}

// PageImages returns the embedded images on the 1-based page, ordered by
// object number so repeated runs produce the same order.
func (s *ImageSource) PageImages(path string, pageNumber int) (images []EmbeddedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			images, err = nil, fmt.Errorf("failed to read images on page %d: %v", pageNumber, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages, err := api.ExtractImagesRaw(f, []string{strconv.Itoa(pageNumber)}, s.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images on page %d: %w", pageNumber, err)
	}

	for _, byObj := range pages {
		for objNr, img := range byObj {
			if img.Reader == nil {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("failed to read image %s on page %d: %w", img.Name, pageNumber, err)
			}
			images = append(images, EmbeddedImage{
				Page:     pageNumber,
				Name:     img.Name,
				ObjNr:    objNr,
				FileType: img.FileType,
				Data:     data,
			})
		}
	}

	sort.Slice(images, func(i, j int) bool { return images[i].ObjNr < images[j].ObjNr })
	return images, nil
}

// DecodeImage decodes embedded image bytes into an image.Image.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
