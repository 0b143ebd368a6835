package template

import (
	"context"
	"fmt"

	"github.com/documint/pdfcore/builder"
	"github.com/documint/pdfcore/document"
	"github.com/documint/pdfcore/observability"
	"github.com/documint/pdfcore/scripting"
)

// lineFactor converts a font size to a line height.
const lineFactor = 1.2

// Engine lays out template definitions onto builder pages. Create one
// per generation run; it drives a single PDFBuilder.
type Engine struct {
	b      builder.PDFBuilder
	log    observability.Logger
	images map[string]*document.Image

	DefaultFont     string
	DefaultFontSize float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes layout diagnostics to log.
func WithLogger(log observability.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithDefaultFont sets the font used when elements name none.
func WithDefaultFont(font string) Option {
	return func(e *Engine) { e.DefaultFont = font }
}

// WithDefaultFontSize sets the size used when elements name none.
func WithDefaultFontSize(size float64) Option {
	return func(e *Engine) { e.DefaultFontSize = size }
}

// NewEngine creates a layout engine over b.
func NewEngine(b builder.PDFBuilder, opts ...Option) *Engine {
	e := &Engine{
		b:               b,
		log:             observability.NopLogger{},
		images:          make(map[string]*document.Image),
		DefaultFont:     "Helvetica",
		DefaultFontSize: 12,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate renders the definition against data and builds the document.
// The definition's script, when present, runs first and may reshape the
// data tree.
func (e *Engine) Generate(ctx context.Context, def *Definition, data map[string]interface{}) (*document.Document, error) {
	if def == nil {
		return nil, fmt.Errorf("nil template definition")
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	if def.Script != "" {
		transformed, err := scripting.NewEngine().TransformData(ctx, def.Script, data)
		if err != nil {
			return nil, fmt.Errorf("template script: %w", err)
		}
		data = transformed
	}

	rc := e.newRenderContext(def, data)
	rc.startPage()
	for _, el := range def.Body {
		e.renderBodyElement(rc, el)
	}
	e.log.Info("template rendered",
		observability.Int("pages", rc.pageCount),
		observability.Int("bodyElements", len(def.Body)))
	return e.b.Build()
}

// pageGeometry fills in A4 and 50pt margins for unset page fields.
func pageGeometry(cfg PageConfig) PageConfig {
	out := cfg
	if out.Width <= 0 {
		out.Width = builder.A4.Width
	}
	if out.Height <= 0 {
		out.Height = builder.A4.Height
	}
	if out.MarginTop <= 0 {
		out.MarginTop = 50
	}
	if out.MarginBottom <= 0 {
		out.MarginBottom = 50
	}
	if out.MarginLeft <= 0 {
		out.MarginLeft = 50
	}
	if out.MarginRight <= 0 {
		out.MarginRight = 50
	}
	return out
}
