// Package fonts loads font programs and exposes the metrics the builder
// and extractor need for text measurement.
package fonts

import (
	"fmt"
	"math"
	"strings"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/documint/pdfcore/document"
)

// LoadTrueType parses a TrueType/OpenType font, extracts metrics, and
// returns a document.Font configured for Type0 Identity-H usage with an
// embedded FontFile2 stream. The full font is embedded (no subsetting).
func LoadTrueType(name string, data []byte) (*document.Font, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("truetype font data is empty")
	}
	font, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse truetype: %w", err)
	}
	unitsPerEm := font.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}
	buf := &sfnt.Buffer{}
	ppem := fixed.Int26_6(unitsPerEm << 6)

	baseName := strings.TrimSpace(name)
	if ps, _ := font.Name(buf, sfnt.NameIDPostScript); len(ps) > 0 {
		baseName = ps
	}
	if baseName == "" {
		baseName = "CustomTT"
	}

	widths := glyphWidths(font, buf, unitsPerEm, ppem)
	defaultWidth := widths[0]
	if defaultWidth == 0 {
		defaultWidth = 1000
	}

	metrics, _ := font.Metrics(buf, ppem, xfont.HintingNone)
	bounds, _ := font.Bounds(buf, ppem, xfont.HintingNone)
	descriptor := &document.FontDescriptor{
		FontName:    baseName,
		Flags:       4, // non-symbolic
		ItalicAngle: italicAngle(font),
		Ascent:      scaleFixed(metrics.Ascent, unitsPerEm),
		Descent:     scaleFixed(metrics.Descent, unitsPerEm),
		CapHeight:   scaleFixed(metrics.Ascent, unitsPerEm),
		StemV:       80,
		FontBBox: [4]float64{
			scaleFixed(bounds.Min.X, unitsPerEm),
			scaleFixed(bounds.Min.Y, unitsPerEm),
			scaleFixed(bounds.Max.X, unitsPerEm),
			scaleFixed(bounds.Max.Y, unitsPerEm),
		},
		FontFile: data,
	}

	return &document.Font{
		Subtype:    "Type0",
		BaseFont:   baseName,
		Encoding:   "Identity-H",
		CIDWidths:  widths,
		DefaultW:   defaultWidth,
		ToUnicode:  buildToUnicode(font, buf),
		Descriptor: descriptor,
	}, nil
}

func glyphWidths(font *sfnt.Font, buf *sfnt.Buffer, unitsPerEm sfnt.Units, ppem fixed.Int26_6) map[int]int {
	glyphs := font.NumGlyphs()
	widths := make(map[int]int, glyphs)
	for i := 0; i < glyphs; i++ {
		adv, err := font.GlyphAdvance(buf, sfnt.GlyphIndex(i), ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		widths[i] = int(math.Round(scaleFixed(adv, unitsPerEm)))
	}
	return widths
}

// buildToUnicode maps glyph IDs back to runes by probing the cmap over the
// rune ranges documents realistically use. The sfnt API offers no cmap
// iteration, so the probe set is Latin, Latin Extended, general punctuation
// and the currency block.
func buildToUnicode(font *sfnt.Font, buf *sfnt.Buffer) map[int][]rune {
	ranges := [][2]rune{
		{0x0020, 0x024F},
		{0x0370, 0x03FF},
		{0x0400, 0x04FF},
		{0x1E00, 0x1EFF},
		{0x2000, 0x206F},
		{0x20A0, 0x20BF},
		{0x2100, 0x214F},
	}
	m := make(map[int][]rune)
	for _, rg := range ranges {
		for r := rg[0]; r <= rg[1]; r++ {
			gid, err := font.GlyphIndex(buf, r)
			if err != nil || gid == 0 {
				continue
			}
			if _, exists := m[int(gid)]; !exists {
				m[int(gid)] = []rune{r}
			}
		}
	}
	return m
}

func italicAngle(font *sfnt.Font) float64 {
	post := font.PostTable()
	if post == nil {
		return 0
	}
	return post.ItalicAngle
}

func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}
