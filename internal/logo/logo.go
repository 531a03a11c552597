// Package logo turns a logo file on disk into a picture ready for embedding.
package logo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/feichai0017/minutes-generator/internal/docx"
)

// ErrNotFound is returned when the logo path does not exist.
var ErrNotFound = errors.New("logo file not found")

// Preprocessor transforms the decoded logo before it is embedded.
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
}

// MaxWidthProcessor downsizes images wider than MaxPixels, keeping aspect.
type MaxWidthProcessor struct {
	MaxPixels int
}

func NewMaxWidthProcessor(maxPixels int) *MaxWidthProcessor {
	return &MaxWidthProcessor{MaxPixels: maxPixels}
}

func (p *MaxWidthProcessor) Process(img image.Image) (image.Image, error) {
	if p.MaxPixels <= 0 || img.Bounds().Dx() <= p.MaxPixels {
		return img, nil
	}
	return imaging.Resize(img, p.MaxPixels, 0, imaging.Lanczos), nil
}

// GrayscaleProcessor produces a print-friendly grey logo.
type GrayscaleProcessor struct{}

func NewGrayscaleProcessor() *GrayscaleProcessor {
	return &GrayscaleProcessor{}
}

func (p *GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

// Options controls Prepare.
type Options struct {
	// WidthInches is the display width; height follows the aspect ratio.
	WidthInches   float64
	Preprocessors []Preprocessor
}

// Prepare loads the image at path and returns it sized for display.
// PNG and JPEG files that no preprocessor changes are embedded byte for byte;
// anything else is re-encoded as PNG.
func Prepare(path string, opts Options) (docx.Picture, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return docx.Picture{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return docx.Picture{}, fmt.Errorf("failed to stat logo: %w", err)
	}
	if opts.WidthInches <= 0 {
		opts.WidthInches = 1
	}

	src, err := imaging.Open(path)
	if err != nil {
		return docx.Picture{}, fmt.Errorf("failed to decode logo %s: %w", path, err)
	}

	img := src
	for _, p := range opts.Preprocessors {
		if img, err = p.Process(img); err != nil {
			return docx.Picture{}, fmt.Errorf("failed to preprocess logo: %w", err)
		}
	}

	format, fmtErr := imaging.FormatFromFilename(path)
	keepOriginal := fmtErr == nil && (format == imaging.PNG || format == imaging.JPEG) && img == src

	var data []byte
	ext := "png"
	if keepOriginal {
		if data, err = os.ReadFile(path); err != nil {
			return docx.Picture{}, fmt.Errorf("failed to read logo: %w", err)
		}
		if format == imaging.JPEG {
			ext = "jpeg"
		}
	} else {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return docx.Picture{}, fmt.Errorf("failed to encode logo: %w", err)
		}
		data = buf.Bytes()
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return docx.Picture{}, fmt.Errorf("logo %s has no pixels", path)
	}
	cx := int64(math.Round(opts.WidthInches * docx.EMUPerInch))
	cy := int64(math.Round(float64(cx) * float64(h) / float64(w)))

	return docx.Picture{
		Data:      data,
		Format:    ext,
		WidthEMU:  cx,
		HeightEMU: cy,
		Name:      filepath.Base(path),
	}, nil
}
