// Package builder provides a fluent API for constructing PDF documents
// page by page. It produces the document model that writer serializes.
package builder

import (
	"fmt"

	"github.com/documint/pdfcore/document"
)

// PDFBuilder assembles a document.
type PDFBuilder interface {
	NewPage(width, height float64) PageBuilder
	SetInfo(info *document.Info) PDFBuilder
	SetEncryption(ownerPassword, userPassword string, perms document.Permissions) PDFBuilder
	RegisterTrueTypeFont(name string, data []byte) PDFBuilder
	// MeasureText returns the rendered width of text in points.
	MeasureText(text string, size float64, fontName string) float64
	Build() (*document.Document, error)
}

// PageBuilder draws onto a single page. Coordinates are PDF user space
// (origin bottom-left, units in points).
type PageBuilder interface {
	DrawText(text string, x, y float64, opts TextOptions) PageBuilder
	DrawRectangle(x, y, width, height float64, opts RectOptions) PageBuilder
	DrawLine(x1, y1, x2, y2 float64, opts LineOptions) PageBuilder
	DrawImage(img *document.Image, x, y, width, height float64) PageBuilder
	AddAnnotation(ann document.Annotation) PageBuilder
	SetRotation(degrees int) PageBuilder
	Finish() PDFBuilder
}

// TextOptions configures text drawing.
type TextOptions struct {
	Font     string
	FontSize float64
	Color    Color
}

// RectOptions configures rectangle drawing. FillOpacity below 1 emits an
// ExtGState with a constant fill alpha; zero means fully opaque.
type RectOptions struct {
	FillColor   Color
	StrokeColor Color
	LineWidth   float64
	Fill        bool
	Stroke      bool
	FillOpacity float64
}

// LineOptions configures line drawing.
type LineOptions struct {
	StrokeColor Color
	LineWidth   float64
	DashPattern []float64
}

// Color is an RGB color with components in [0,1].
type Color struct {
	R, G, B float64
}

// Components returns the color as a 3-element slice, as annotations expect.
func (c Color) Components() []float64 { return []float64{c.R, c.G, c.B} }

// ParseHexColor parses a "#RRGGBB" string.
func ParseHexColor(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, nil
}

// PaperSize describes a standard page size in points.
type PaperSize struct {
	Width  float64
	Height float64
}

var (
	A4     = PaperSize{Width: 595.28, Height: 841.89}
	Letter = PaperSize{Width: 612, Height: 792}
)
