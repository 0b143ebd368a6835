// Package ocr defines the recognition contract the toolkit uses when a
// page has no extractable glyphs. Providers live in subpackages; the
// tesseract provider is the default choice.
package ocr

import (
	"context"

	"github.com/documint/pdfcore/extractor"
)

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
	ImageFormatTIFF ImageFormat = "image/tiff"
)

// Region is a rectangle in pixel coordinates, origin top-left.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is one image submitted for recognition.
type Input struct {
	// Image is the encoded payload in the format given by Format.
	Image  []byte
	Format ImageFormat
	// PageIndex links the input back to the zero-based page it came from.
	PageIndex int
	// DPI is the effective resolution; zero means unknown.
	DPI int
	// Languages holds trained-data hints such as "eng" or "deu".
	Languages []string
	// Region restricts recognition to a subsection; nil means the whole
	// image.
	Region *Region
}

// Word is a single recognized token with its pixel bounds.
type Word struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// Result is the recognition output for one input image.
type Result struct {
	PlainText string
	Words     []Word
	// ImageWidth and ImageHeight are the pixel dimensions of the
	// recognized image, needed to normalize word bounds.
	ImageWidth  int
	ImageHeight int
}

// Engine recognizes text in images.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// BlocksFromResult converts recognized words into the normalized block
// form the diff engine consumes. Word boxes scale from pixel space to
// [0,1]; the OCR confidence has no glyph-level font, so FontName is
// empty and FontSize estimates from box height.
func BlocksFromResult(res Result, pageWidth, pageHeight float64) []extractor.TextBlock {
	if res.ImageWidth <= 0 || res.ImageHeight <= 0 || pageWidth <= 0 || pageHeight <= 0 {
		return nil
	}
	sx := 1 / float64(res.ImageWidth)
	sy := 1 / float64(res.ImageHeight)
	out := make([]extractor.TextBlock, 0, len(res.Words))
	for _, w := range res.Words {
		if w.Text == "" {
			continue
		}
		out = append(out, extractor.TextBlock{
			Text:     w.Text,
			X:        clamp01(w.Bounds.X * sx),
			Y:        clamp01(w.Bounds.Y * sy),
			Width:    clamp01(w.Bounds.Width * sx),
			Height:   clamp01(w.Bounds.Height * sy),
			FontSize: w.Bounds.Height * sy * pageHeight,
		})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
