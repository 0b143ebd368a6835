package builder

import (
	"fmt"

	"github.com/documint/pdfcore/document"
	"github.com/documint/pdfcore/fonts"
)

const defaultBaseFont = "Helvetica"

type builderImpl struct {
	pages         []*document.Page
	info          *document.Info
	fonts         map[string]*document.Font
	runeToCID     map[string]map[rune]int
	ownerPassword string
	userPassword  string
	permissions   document.Permissions
	encrypted     bool
	gstateCount   int
	fontErr       error
}

type pageBuilderImpl struct {
	parent *builderImpl
	page   *document.Page
}

// NewBuilder constructs a PDFBuilder.
func NewBuilder() PDFBuilder {
	return &builderImpl{
		fonts:     make(map[string]*document.Font),
		runeToCID: make(map[string]map[rune]int),
	}
}

func (b *builderImpl) NewPage(w, h float64) PageBuilder {
	p := &document.Page{MediaBox: document.Rectangle{URX: w, URY: h}}
	b.pages = append(b.pages, p)
	return &pageBuilderImpl{parent: b, page: p}
}

func (b *builderImpl) SetInfo(info *document.Info) PDFBuilder {
	b.info = info
	return b
}

func (b *builderImpl) SetEncryption(ownerPassword, userPassword string, perms document.Permissions) PDFBuilder {
	b.ownerPassword = ownerPassword
	b.userPassword = userPassword
	b.permissions = perms
	b.encrypted = true
	return b
}

func (b *builderImpl) RegisterTrueTypeFont(name string, data []byte) PDFBuilder {
	font, err := fonts.LoadTrueType(name, data)
	if err != nil {
		b.fontErr = err
		return b
	}
	b.fonts[name] = font
	b.runeToCID[name] = runeToCID(font)
	return b
}

func (b *builderImpl) Build() (*document.Document, error) {
	if b.fontErr != nil {
		return nil, b.fontErr
	}
	for i, p := range b.pages {
		p.Index = i
	}
	doc := &document.Document{Pages: b.pages, Info: b.info}
	if b.encrypted {
		doc.Encrypted = true
		doc.OwnerPassword = b.ownerPassword
		doc.UserPassword = b.userPassword
		doc.Permissions = b.permissions
	}
	return doc, nil
}

// fontForName resolves a font name to a resource, registering a built-in
// Type1 font on first use. Unknown names fall back to Helvetica.
func (b *builderImpl) fontForName(name string) (*document.Font, string) {
	if name == "" {
		name = defaultBaseFont
	}
	if f, ok := b.fonts[name]; ok {
		return f, name
	}
	base := name
	if !fonts.IsCoreFont(base) {
		base = defaultBaseFont
	}
	f := &document.Font{Subtype: "Type1", BaseFont: base, Encoding: "WinAnsiEncoding"}
	b.fonts[name] = f
	return f, name
}

func (p *pageBuilderImpl) DrawText(text string, x, y float64, opts TextOptions) PageBuilder {
	if text == "" {
		return p
	}
	ops := p.ensureContentOps()
	res := p.ensureResources()

	font, fontName := p.parent.fontForName(opts.Font)
	if _, ok := res.Fonts[fontName]; !ok {
		res.Fonts[fontName] = font
	}
	size := opts.FontSize
	if size <= 0 {
		size = 12
	}

	*ops = append(*ops, document.Operation{Operator: "BT"})
	*ops = append(*ops, document.Operation{
		Operator: "Tf",
		Operands: []document.Operand{document.NameOperand{Value: fontName}, document.NumberOperand{Value: size}},
	})
	*ops = append(*ops, document.Operation{
		Operator: "Tm",
		Operands: []document.Operand{
			document.NumberOperand{Value: 1},
			document.NumberOperand{Value: 0},
			document.NumberOperand{Value: 0},
			document.NumberOperand{Value: 1},
			document.NumberOperand{Value: x},
			document.NumberOperand{Value: y},
		},
	})
	*ops = append(*ops, document.Operation{Operator: "rg", Operands: colorOperands(opts.Color)})
	*ops = append(*ops, document.Operation{
		Operator: "Tj",
		Operands: []document.Operand{document.StringOperand{Value: p.parent.encodeText(text, font)}},
	})
	*ops = append(*ops, document.Operation{Operator: "ET"})
	return p
}

func (p *pageBuilderImpl) DrawRectangle(x, y, width, height float64, opts RectOptions) PageBuilder {
	if !opts.Fill && !opts.Stroke {
		opts.Stroke = true
	}
	ops := p.ensureContentOps()
	*ops = append(*ops, document.Operation{Operator: "q"})
	if opts.Fill && opts.FillOpacity > 0 && opts.FillOpacity < 1 {
		name := p.registerAlphaState(opts.FillOpacity)
		*ops = append(*ops, document.Operation{
			Operator: "gs",
			Operands: []document.Operand{document.NameOperand{Value: name}},
		})
	}
	if opts.Fill {
		*ops = append(*ops, document.Operation{Operator: "rg", Operands: colorOperands(opts.FillColor)})
	}
	if opts.Stroke {
		*ops = append(*ops, document.Operation{Operator: "RG", Operands: colorOperands(opts.StrokeColor)})
		if opts.LineWidth > 0 {
			*ops = append(*ops, document.Operation{Operator: "w", Operands: []document.Operand{document.NumberOperand{Value: opts.LineWidth}}})
		}
	}
	*ops = append(*ops, document.Operation{
		Operator: "re",
		Operands: []document.Operand{
			document.NumberOperand{Value: x},
			document.NumberOperand{Value: y},
			document.NumberOperand{Value: width},
			document.NumberOperand{Value: height},
		},
	})
	*ops = append(*ops, document.Operation{Operator: paintOperator(opts.Fill, opts.Stroke)})
	*ops = append(*ops, document.Operation{Operator: "Q"})
	return p
}

func (p *pageBuilderImpl) DrawLine(x1, y1, x2, y2 float64, opts LineOptions) PageBuilder {
	ops := p.ensureContentOps()
	*ops = append(*ops, document.Operation{Operator: "q"})
	*ops = append(*ops, document.Operation{Operator: "RG", Operands: colorOperands(opts.StrokeColor)})
	if opts.LineWidth > 0 {
		*ops = append(*ops, document.Operation{Operator: "w", Operands: []document.Operand{document.NumberOperand{Value: opts.LineWidth}}})
	}
	if len(opts.DashPattern) > 0 {
		vals := make([]document.Operand, 0, len(opts.DashPattern))
		for _, v := range opts.DashPattern {
			vals = append(vals, document.NumberOperand{Value: v})
		}
		*ops = append(*ops, document.Operation{
			Operator: "d",
			Operands: []document.Operand{document.ArrayOperand{Values: vals}, document.NumberOperand{Value: 0}},
		})
	}
	*ops = append(*ops, document.Operation{
		Operator: "m",
		Operands: []document.Operand{document.NumberOperand{Value: x1}, document.NumberOperand{Value: y1}},
	})
	*ops = append(*ops, document.Operation{
		Operator: "l",
		Operands: []document.Operand{document.NumberOperand{Value: x2}, document.NumberOperand{Value: y2}},
	})
	*ops = append(*ops, document.Operation{Operator: "S"})
	*ops = append(*ops, document.Operation{Operator: "Q"})
	return p
}

func (p *pageBuilderImpl) DrawImage(img *document.Image, x, y, width, height float64) PageBuilder {
	if img == nil {
		return p
	}
	res := p.ensureResources()
	name := ""
	for existing, xo := range res.XObjects {
		if xo == img {
			name = existing
			break
		}
	}
	if name == "" {
		name = fmt.Sprintf("Im%d", len(res.XObjects)+1)
		res.XObjects[name] = img
	}
	w := width
	if w == 0 {
		w = float64(img.Width)
	}
	h := height
	if h == 0 {
		h = float64(img.Height)
	}
	ops := p.ensureContentOps()
	*ops = append(*ops, document.Operation{Operator: "q"})
	*ops = append(*ops, document.Operation{
		Operator: "cm",
		Operands: []document.Operand{
			document.NumberOperand{Value: w},
			document.NumberOperand{Value: 0},
			document.NumberOperand{Value: 0},
			document.NumberOperand{Value: h},
			document.NumberOperand{Value: x},
			document.NumberOperand{Value: y},
		},
	})
	*ops = append(*ops, document.Operation{
		Operator: "Do",
		Operands: []document.Operand{document.NameOperand{Value: name}},
	})
	*ops = append(*ops, document.Operation{Operator: "Q"})
	return p
}

func (p *pageBuilderImpl) AddAnnotation(ann document.Annotation) PageBuilder {
	if ann != nil {
		p.page.Annotations = append(p.page.Annotations, ann)
	}
	return p
}

func (p *pageBuilderImpl) SetRotation(degrees int) PageBuilder {
	deg := degrees % 360
	if deg < 0 {
		deg += 360
	}
	p.page.Rotate = deg
	return p
}

func (p *pageBuilderImpl) Finish() PDFBuilder { return p.parent }

func (p *pageBuilderImpl) registerAlphaState(alpha float64) string {
	res := p.ensureResources()
	p.parent.gstateCount++
	name := fmt.Sprintf("GSa%d", p.parent.gstateCount)
	a := alpha
	res.ExtGStates[name] = document.ExtGState{FillAlpha: &a}
	return name
}

func (p *pageBuilderImpl) ensureResources() *document.Resources {
	if p.page.Resources == nil {
		p.page.Resources = &document.Resources{}
	}
	res := p.page.Resources
	if res.Fonts == nil {
		res.Fonts = make(map[string]*document.Font)
	}
	if res.XObjects == nil {
		res.XObjects = make(map[string]*document.Image)
	}
	if res.ExtGStates == nil {
		res.ExtGStates = make(map[string]document.ExtGState)
	}
	return res
}

func (p *pageBuilderImpl) ensureContentOps() *[]document.Operation {
	if len(p.page.Contents) == 0 {
		p.page.Contents = append(p.page.Contents, document.ContentStream{})
	}
	return &p.page.Contents[0].Operations
}

// encodeText converts text into the byte form the font expects: shaped
// two-byte glyph IDs for Type0 fonts, Latin-1 bytes otherwise.
func (b *builderImpl) encodeText(text string, font *document.Font) []byte {
	if font != nil && font.Subtype == "Type0" {
		if shaped, err := fonts.ShapeText(text, font); err == nil && shaped != nil {
			buf := make([]byte, 0, len(shaped)*2)
			for _, g := range shaped {
				buf = append(buf, byte(g.ID>>8), byte(g.ID))
			}
			return buf
		}
	}
	buf := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xFF {
			r = '?'
		}
		buf = append(buf, byte(r))
	}
	return buf
}

func runeToCID(font *document.Font) map[rune]int {
	if font == nil || len(font.ToUnicode) == 0 {
		return nil
	}
	m := make(map[rune]int)
	for cid, runes := range font.ToUnicode {
		for _, r := range runes {
			if _, exists := m[r]; !exists {
				m[r] = cid
			}
		}
	}
	return m
}

func colorOperands(c Color) []document.Operand {
	return []document.Operand{
		document.NumberOperand{Value: c.R},
		document.NumberOperand{Value: c.G},
		document.NumberOperand{Value: c.B},
	}
}

func paintOperator(fill, stroke bool) string {
	switch {
	case fill && stroke:
		return "B"
	case fill:
		return "f"
	default:
		return "S"
	}
}
