package fonts

import (
	"bytes"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/documint/pdfcore/document"
)

// ShapedGlyph is a single shaped glyph with positioning information in
// 1/1000 em units.
type ShapedGlyph struct {
	ID       int
	Cluster  int
	XAdvance float64
	YAdvance float64
}

// ShapeText shapes text with the embedded font program and returns the
// glyph sequence with advances. Returns nil for fonts without an embedded
// program (built-in fonts are measured via MeasureCore instead).
func ShapeText(text string, font *document.Font) ([]ShapedGlyph, error) {
	if font == nil || font.Descriptor == nil || len(font.Descriptor.FontFile) == 0 {
		return nil, nil
	}
	face, err := gofont.ParseTTF(bytes.NewReader(font.Descriptor.FontFile))
	if err != nil {
		return nil, err
	}

	shaper := &shaping.HarfbuzzShaper{}
	runes := []rune(text)
	script := detectScript(runes)

	// Shape at size 1000 so advances come back in 1/1000 em units.
	size := fixed.Int26_6(1000 * 64)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      face,
		Size:      size,
		Script:    script,
		Language:  language.DefaultLanguage(),
	}
	output := shaper.Shape(input)

	result := make([]ShapedGlyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		result = append(result, ShapedGlyph{
			ID:       int(g.GlyphID),
			Cluster:  int(g.ClusterIndex),
			XAdvance: float64(g.XAdvance) / 64.0,
			YAdvance: float64(g.YAdvance) / 64.0,
		})
	}
	return result, nil
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch {
		case unicode.Is(unicode.Arabic, r):
			return language.Arabic
		case unicode.Is(unicode.Hebrew, r):
			return language.Hebrew
		case unicode.Is(unicode.Cyrillic, r):
			return language.Cyrillic
		case unicode.Is(unicode.Greek, r):
			return language.Greek
		case unicode.Is(unicode.Han, r):
			return language.Han
		case unicode.Is(unicode.Hiragana, r):
			return language.Hiragana
		case unicode.Is(unicode.Katakana, r):
			return language.Katakana
		case unicode.Is(unicode.Hangul, r):
			return language.Hangul
		case unicode.Is(unicode.Thai, r):
			return language.Thai
		case unicode.Is(unicode.Latin, r):
			return language.Latin
		}
	}
	return language.Latin
}
