package builder

import "github.com/documint/pdfcore/fonts"

// MeasureText returns the width of text in points when drawn at size with
// the named font. Registered TrueType fonts are measured by shaping; the
// built-in fonts use their AFM tables. Anything else falls back to a
// half-em-per-rune heuristic so layout still converges when the width call
// cannot succeed.
func (b *builderImpl) MeasureText(text string, size float64, fontName string) float64 {
	if size <= 0 {
		size = 12
	}
	if fontName == "" {
		fontName = defaultBaseFont
	}
	if f, ok := b.fonts[fontName]; ok && f.Subtype == "Type0" {
		if shaped, err := fonts.ShapeText(text, f); err == nil && shaped != nil {
			var sum float64
			for _, g := range shaped {
				sum += g.XAdvance
			}
			return sum / 1000 * size
		}
	}
	base := fontName
	if f, ok := b.fonts[fontName]; ok && f.BaseFont != "" {
		base = f.BaseFont
	}
	if fonts.IsCoreFont(base) {
		return fonts.MeasureCore(base, text, size)
	}
	return float64(len([]rune(text))) * size * 0.5
}
