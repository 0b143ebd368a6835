package document

// Annotation is the contract all annotation variants satisfy.
type Annotation interface {
	AnnotationType() string
	Bounds() Rectangle
}

// BaseAnnotation holds the fields shared by every annotation subtype.
type BaseAnnotation struct {
	Subtype  string
	Rect     Rectangle
	Contents string
	// Color is the annotation color, 1 (gray) or 3 (RGB) components.
	Color []float64
	// Opacity is the constant opacity (/CA); zero means opaque.
	Opacity float64
	Flags   int
}

func (a BaseAnnotation) AnnotationType() string { return a.Subtype }
func (a BaseAnnotation) Bounds() Rectangle      { return a.Rect }

// HighlightAnnotation is a text markup highlight over one or more quads.
type HighlightAnnotation struct {
	BaseAnnotation
	// QuadPoints lists 8 numbers per quad: x1 y1 x2 y2 x3 y3 x4 y4.
	QuadPoints []float64
}

// SquareAnnotation is a rectangle annotation; Interior fills it when set.
type SquareAnnotation struct {
	BaseAnnotation
	Interior []float64
}

// TextAnnotation is a sticky note.
type TextAnnotation struct {
	BaseAnnotation
	Open bool
	Icon string
}

// NewHighlight builds a highlight annotation covering rect.
func NewHighlight(rect Rectangle, color []float64, opacity float64, note string) *HighlightAnnotation {
	return &HighlightAnnotation{
		BaseAnnotation: BaseAnnotation{
			Subtype:  "Highlight",
			Rect:     rect,
			Contents: note,
			Color:    color,
			Opacity:  opacity,
			Flags:    4, // print
		},
		QuadPoints: []float64{
			rect.LLX, rect.URY,
			rect.URX, rect.URY,
			rect.LLX, rect.LLY,
			rect.URX, rect.LLY,
		},
	}
}

// NewSquare builds a filled square annotation covering rect.
func NewSquare(rect Rectangle, color []float64, opacity float64, note string) *SquareAnnotation {
	return &SquareAnnotation{
		BaseAnnotation: BaseAnnotation{
			Subtype:  "Square",
			Rect:     rect,
			Contents: note,
			Color:    color,
			Opacity:  opacity,
			Flags:    4,
		},
		Interior: color,
	}
}
