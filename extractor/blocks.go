package extractor

import (
	"strings"
	"unicode"
)

// TextBlock is one word-level run of glyphs. Coordinates are normalized
// to [0,1] with the origin at the top-left corner of the page.
type TextBlock struct {
	Text     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontSize float64
	FontName string
}

// Blocks extracts the page's glyphs and groups them into word blocks.
func (d *Document) Blocks(pageIndex int) ([]TextBlock, error) {
	chars, err := d.Chars(pageIndex)
	if err != nil {
		return nil, err
	}
	pageW, pageH, err := d.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	return BuildBlocks(chars, pageW, pageH), nil
}

const (
	lineBreakFactor = 0.5
	wordGapFactor   = 0.4
)

// BuildBlocks groups an ordered glyph stream into word blocks. A block
// ends at whitespace, at a vertical jump larger than half the previous
// glyph's height, or at a horizontal gap wider than 0.4 times the
// previous glyph's width. Empty input yields empty output.
func BuildBlocks(chars []Char, pageW, pageH float64) []TextBlock {
	if pageW <= 0 || pageH <= 0 {
		return nil
	}
	var out []TextBlock
	var cur *blockBuilder
	var prev *Char

	flush := func() {
		if cur != nil {
			if b, ok := cur.emit(pageW, pageH); ok {
				out = append(out, b)
			}
			cur = nil
		}
	}

	for i := range chars {
		c := &chars[i]
		if isBlank(c.Text) {
			flush()
			prev = c
			continue
		}
		if prev != nil && cur != nil {
			dy := c.Y - prev.Y
			if dy < 0 {
				dy = -dy
			}
			gap := c.X - (prev.X + prev.Width)
			if dy > lineBreakFactor*prev.Height || gap > wordGapFactor*prev.Width {
				flush()
			}
		}
		if cur == nil {
			cur = &blockBuilder{
				minX:     c.X,
				maxX:     c.X + c.Width,
				baseline: c.Y,
				height:   c.Height,
				fontSize: c.FontSize,
				fontName: c.FontName,
			}
		} else {
			if c.X < cur.minX {
				cur.minX = c.X
			}
			if right := c.X + c.Width; right > cur.maxX {
				cur.maxX = right
			}
			if c.Height > cur.height {
				cur.height = c.Height
			}
			if c.Y > cur.baseline {
				cur.baseline = c.Y
			}
		}
		cur.text.WriteString(c.Text)
		prev = c
	}
	flush()
	return out
}

type blockBuilder struct {
	text     strings.Builder
	minX     float64
	maxX     float64
	baseline float64
	height   float64
	fontSize float64
	fontName string
}

func (b *blockBuilder) emit(pageW, pageH float64) (TextBlock, bool) {
	text := b.text.String()
	if strings.TrimSpace(text) == "" {
		return TextBlock{}, false
	}
	return TextBlock{
		Text:     text,
		X:        clamp01(b.minX / pageW),
		Y:        clamp01((b.baseline - b.height) / pageH),
		Width:    clamp01((b.maxX - b.minX) / pageW),
		Height:   clamp01(b.height / pageH),
		FontSize: b.fontSize,
		FontName: b.fontName,
	}, true
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

func isBlank(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
