package fonts

// AFM advance widths for the built-in fonts, in glyph-space units
// (1/1000 em), indexed from char 32. Courier variants are fixed-pitch and
// handled without a table.

var helveticaWidths = []int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333,
	278, 278, 556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278,
	584, 584, 584, 556, 1015, 667, 667, 722, 722, 667, 611, 778, 722, 278,
	500, 667, 556, 833, 722, 778, 667, 778, 722, 667, 611, 722, 667, 944,
	667, 667, 611, 278, 278, 278, 469, 556, 333, 556, 556, 500, 556, 556,
	278, 556, 556, 222, 222, 500, 222, 833, 556, 556, 556, 556, 333, 500,
	278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

var helveticaBoldWidths = []int{
	278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333,
	278, 278, 556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333,
	584, 584, 584, 611, 975, 722, 722, 722, 722, 667, 611, 778, 722, 278,
	556, 722, 611, 833, 722, 778, 667, 778, 722, 667, 611, 722, 667, 944,
	667, 667, 611, 333, 278, 333, 584, 556, 333, 556, 611, 556, 611, 556,
	333, 611, 611, 278, 278, 556, 278, 889, 611, 611, 611, 611, 389, 556,
	333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584,
}

var timesRomanWidths = []int{
	250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333,
	250, 278, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278,
	564, 564, 564, 444, 921, 722, 667, 667, 722, 611, 556, 722, 722, 333,
	389, 722, 611, 889, 722, 722, 556, 722, 667, 556, 611, 722, 722, 944,
	722, 722, 611, 333, 278, 333, 469, 500, 333, 444, 500, 444, 500, 444,
	333, 500, 500, 278, 278, 500, 278, 778, 500, 500, 500, 500, 333, 389,
	278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
}

var timesBoldWidths = []int{
	250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333,
	250, 278, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 333, 333,
	570, 570, 570, 500, 930, 722, 667, 722, 722, 667, 611, 778, 778, 389,
	500, 778, 667, 944, 722, 778, 611, 778, 722, 556, 667, 722, 722, 1000,
	722, 722, 667, 333, 278, 333, 581, 500, 333, 500, 556, 444, 556, 444,
	333, 500, 556, 278, 333, 556, 278, 833, 556, 500, 556, 556, 444, 389,
	333, 556, 500, 722, 500, 500, 444, 394, 220, 394, 520,
}

var coreWidths = map[string][]int{
	"Helvetica":      helveticaWidths,
	"Helvetica-Bold": helveticaBoldWidths,
	"Times-Roman":    timesRomanWidths,
	"Times-Bold":     timesBoldWidths,
}

const defaultGlyphWidth = 500

// IsCoreFont reports whether baseFont is one of the built-in fonts the
// toolkit carries metrics for.
func IsCoreFont(baseFont string) bool {
	if _, ok := coreWidths[baseFont]; ok {
		return true
	}
	return baseFont == "Courier" || baseFont == "Courier-Bold"
}

// CoreWidth returns the advance width of r in glyph-space units for a
// built-in font. Unknown runes fall back to a nominal width.
func CoreWidth(baseFont string, r rune) int {
	if baseFont == "Courier" || baseFont == "Courier-Bold" {
		return 600
	}
	table, ok := coreWidths[baseFont]
	if !ok {
		return defaultGlyphWidth
	}
	idx := int(r) - 32
	if idx < 0 || idx >= len(table) {
		return defaultGlyphWidth
	}
	return table[idx]
}

// MeasureCore returns the width of text in points at the given size for a
// built-in font.
func MeasureCore(baseFont, text string, size float64) float64 {
	var sum int
	for _, r := range text {
		sum += CoreWidth(baseFont, r)
	}
	return float64(sum) / 1000 * size
}
