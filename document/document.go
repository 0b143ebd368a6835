// Package document defines the in-memory model for PDF documents produced
// and consumed by the toolkit: pages, content operations, resources, fonts
// and annotations. The model is deliberately smaller than the full PDF
// object system; it covers what the builder draws, the writer serializes
// and the extractor reports.
package document

// Document is the root of the semantic model.
type Document struct {
	Pages []*Page
	Info  *Info

	// Encryption settings applied at write time.
	Encrypted         bool
	OwnerPassword     string
	UserPassword      string
	Permissions       Permissions
	MetadataEncrypted bool
}

// Info carries the document information dictionary.
type Info struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
}

// Permissions is the standard security handler permission bit set.
type Permissions uint32

const (
	PermPrint    Permissions = 1 << 2
	PermModify   Permissions = 1 << 3
	PermCopy     Permissions = 1 << 4
	PermAnnotate Permissions = 1 << 5
	PermAll      Permissions = 0xFFFFFFFC
)

// Rectangle is a PDF rectangle in default user space (bottom-left origin).
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the vertical extent of the rectangle.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Page holds one page's geometry, content and resources.
type Page struct {
	Index       int
	MediaBox    Rectangle
	Rotate      int
	Contents    []ContentStream
	Resources   *Resources
	Annotations []Annotation
}

// ContentStream is an ordered list of content operations. When Raw is
// non-empty the stream was taken verbatim from a parsed file and Operations
// is ignored by the writer.
type ContentStream struct {
	Operations []Operation
	Raw        []byte
}

// Operation is a single content stream operator with its operands.
type Operation struct {
	Operator string
	Operands []Operand
}

// Operand is a content stream operand value.
type Operand interface {
	operand()
}

// NumberOperand is a numeric operand.
type NumberOperand struct{ Value float64 }

func (NumberOperand) operand() {}

// NameOperand is a /Name operand.
type NameOperand struct{ Value string }

func (NameOperand) operand() {}

// StringOperand is a string operand (already encoded for the target font).
type StringOperand struct{ Value []byte }

func (StringOperand) operand() {}

// ArrayOperand is an array operand.
type ArrayOperand struct{ Values []Operand }

func (ArrayOperand) operand() {}

// Resources groups the named resources a page's content refers to.
type Resources struct {
	Fonts      map[string]*Font
	XObjects   map[string]*Image
	ExtGStates map[string]ExtGState
}

// ExtGState carries the graphics state parameters the toolkit emits;
// alpha values are pointers so zero can be distinguished from unset.
type ExtGState struct {
	FillAlpha   *float64
	StrokeAlpha *float64
}

// Image is an image XObject.
type Image struct {
	Width            int
	Height           int
	ColorSpace       string
	BitsPerComponent int
	Filter           string
	Data             []byte
	SMask            *Image
}

// Font describes a font resource. Simple fonts use BaseFont plus optional
// Widths/FirstChar; embedded TrueType fonts use Subtype Type0 with a
// CIDFontType2 descendant described by the remaining fields.
type Font struct {
	Subtype   string
	BaseFont  string
	Encoding  string
	FirstChar int
	Widths    []int

	// Type0 / Identity-H fields.
	CIDWidths  map[int]int
	DefaultW   int
	ToUnicode  map[int][]rune
	Descriptor *FontDescriptor
}

// FontDescriptor carries the metrics and the embedded program for a font.
type FontDescriptor struct {
	FontName    string
	Flags       int
	FontBBox    [4]float64
	ItalicAngle float64
	Ascent      float64
	Descent     float64
	CapHeight   float64
	StemV       float64
	FontFile    []byte
}
