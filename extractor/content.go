package extractor

import (
	"fmt"
	"math"

	"github.com/documint/pdfcore/parser"
)

// Char is one positioned glyph. X runs left to right; Y is the baseline
// measured from the top of the page. All values are in points.
type Char struct {
	Text     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontSize float64
	FontName string
}

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func mul(m, n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix { return matrix{1, 0, 0, 1, tx, ty} }

// textState carries the text-positioning parameters of the interpreter.
type textState struct {
	font        *fontDecoder
	size        float64
	charSpacing float64
	wordSpacing float64
	horizScale  float64
	leading     float64
	rise        float64
	tm          matrix
	tlm         matrix
}

// Chars interprets the page's content streams and returns every shown
// glyph in drawing order.
func (d *Document) Chars(pageIndex int) ([]Char, error) {
	if pageIndex < 0 || pageIndex >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range", pageIndex)
	}
	page := d.pages[pageIndex]
	content, err := d.file.PageContents(page)
	if err != nil {
		return nil, fmt.Errorf("page %d contents: %w", pageIndex, err)
	}
	if len(content) == 0 {
		return nil, nil
	}
	ops, err := parser.ParseContent(content)
	if err != nil {
		return nil, fmt.Errorf("page %d content stream: %w", pageIndex, err)
	}

	_, pageH, err := d.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	pageFonts := d.fontsForPage(page)

	var out []Char
	ctm := identity
	var ctmStack []matrix
	ts := textState{horizScale: 1, tm: identity, tlm: identity}

	num := func(operands []parser.Object, i int) float64 {
		if i < 0 || i >= len(operands) {
			return 0
		}
		v, _ := parser.Float(operands[i])
		return v
	}

	for _, op := range ops {
		switch op.Operator {
		case "q":
			ctmStack = append(ctmStack, ctm)
		case "Q":
			if n := len(ctmStack); n > 0 {
				ctm = ctmStack[n-1]
				ctmStack = ctmStack[:n-1]
			}
		case "cm":
			if len(op.Operands) >= 6 {
				m := matrix{num(op.Operands, 0), num(op.Operands, 1), num(op.Operands, 2),
					num(op.Operands, 3), num(op.Operands, 4), num(op.Operands, 5)}
				ctm = mul(m, ctm)
			}
		case "BT":
			ts.tm, ts.tlm = identity, identity
		case "Tf":
			if len(op.Operands) >= 2 {
				if name, ok := op.Operands[0].(parser.Name); ok {
					ts.font = pageFonts[string(name)]
				}
				ts.size = num(op.Operands, 1)
			}
		case "Tc":
			ts.charSpacing = num(op.Operands, 0)
		case "Tw":
			ts.wordSpacing = num(op.Operands, 0)
		case "Tz":
			ts.horizScale = num(op.Operands, 0) / 100
		case "TL":
			ts.leading = num(op.Operands, 0)
		case "Ts":
			ts.rise = num(op.Operands, 0)
		case "Td":
			ts.tlm = mul(translate(num(op.Operands, 0), num(op.Operands, 1)), ts.tlm)
			ts.tm = ts.tlm
		case "TD":
			ts.leading = -num(op.Operands, 1)
			ts.tlm = mul(translate(num(op.Operands, 0), num(op.Operands, 1)), ts.tlm)
			ts.tm = ts.tlm
		case "Tm":
			if len(op.Operands) >= 6 {
				ts.tlm = matrix{num(op.Operands, 0), num(op.Operands, 1), num(op.Operands, 2),
					num(op.Operands, 3), num(op.Operands, 4), num(op.Operands, 5)}
				ts.tm = ts.tlm
			}
		case "T*":
			ts.tlm = mul(translate(0, -ts.leading), ts.tlm)
			ts.tm = ts.tlm
		case "Tj":
			if s, ok := lastString(op.Operands); ok {
				out = showText(out, &ts, ctm, pageH, s)
			}
		case "'":
			ts.tlm = mul(translate(0, -ts.leading), ts.tlm)
			ts.tm = ts.tlm
			if s, ok := lastString(op.Operands); ok {
				out = showText(out, &ts, ctm, pageH, s)
			}
		case "\"":
			if len(op.Operands) >= 3 {
				ts.wordSpacing = num(op.Operands, 0)
				ts.charSpacing = num(op.Operands, 1)
			}
			ts.tlm = mul(translate(0, -ts.leading), ts.tlm)
			ts.tm = ts.tlm
			if s, ok := lastString(op.Operands); ok {
				out = showText(out, &ts, ctm, pageH, s)
			}
		case "TJ":
			arr, ok := lastArray(op.Operands)
			if !ok {
				continue
			}
			for _, item := range arr {
				switch v := item.(type) {
				case parser.String:
					out = showText(out, &ts, ctm, pageH, v)
				case int64, float64:
					adj, _ := parser.Float(v)
					tx := -adj / 1000 * ts.size * ts.horizScale
					ts.tm = mul(translate(tx, 0), ts.tm)
				}
			}
		}
	}
	return out, nil
}

func lastString(operands []parser.Object) (parser.String, bool) {
	if len(operands) == 0 {
		return nil, false
	}
	s, ok := operands[len(operands)-1].(parser.String)
	return s, ok
}

func lastArray(operands []parser.Object) (parser.Array, bool) {
	if len(operands) == 0 {
		return nil, false
	}
	arr, ok := operands[len(operands)-1].(parser.Array)
	return arr, ok
}

// showText places the glyphs of one string operand and advances the text
// matrix.
func showText(out []Char, ts *textState, ctm matrix, pageH float64, data parser.String) []Char {
	glyphs := ts.font.decode(data)
	fontName := ""
	if ts.font != nil {
		fontName = ts.font.baseFont
		if fontName == "" {
			fontName = ts.font.name
		}
	}
	for _, g := range glyphs {
		trm := mul(matrix{ts.size * ts.horizScale, 0, 0, ts.size, 0, ts.rise}, mul(ts.tm, ctm))
		scaleX := math.Hypot(trm[0], trm[1]) / ts.size / orOne(ts.horizScale)
		scaleY := math.Hypot(trm[2], trm[3]) / ts.size
		if ts.size == 0 {
			scaleX, scaleY = 1, 1
		}

		wText := g.width / 1000 * ts.size
		adv := (wText + ts.charSpacing) * ts.horizScale
		if g.text == " " {
			adv += ts.wordSpacing * ts.horizScale
		}

		if g.text != "" {
			out = append(out, Char{
				Text:     g.text,
				X:        trm[4],
				Y:        pageH - trm[5],
				Width:    wText * ts.horizScale * scaleX,
				Height:   ts.size * scaleY,
				FontSize: ts.size * scaleY,
				FontName: fontName,
			})
		}
		ts.tm = mul(translate(adv, 0), ts.tm)
	}
	return out
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
