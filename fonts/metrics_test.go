package fonts

import (
	"math"
	"testing"
)

func TestIsCoreFont(t *testing.T) {
	for _, name := range []string{"Helvetica", "Helvetica-Bold", "Times-Roman", "Times-Bold"} {
		if !IsCoreFont(name) {
			t.Errorf("%s should be a core font", name)
		}
	}
	if IsCoreFont("Comic Sans") {
		t.Errorf("unknown face reported as core")
	}
}

func TestCoreWidth(t *testing.T) {
	if w := CoreWidth("Helvetica", 'H'); w != 722 {
		t.Errorf("Helvetica H width = %d, want 722", w)
	}
	if w := CoreWidth("Helvetica", ' '); w != 278 {
		t.Errorf("Helvetica space width = %d, want 278", w)
	}
	// Out-of-table runes fall back to the average width.
	if w := CoreWidth("Helvetica", '世'); w != defaultGlyphWidth {
		t.Errorf("CJK fallback width = %d, want %d", w, defaultGlyphWidth)
	}
	if w := CoreWidth("NoSuchFace", 'H'); w != defaultGlyphWidth {
		t.Errorf("unknown face width = %d, want %d", w, defaultGlyphWidth)
	}
}

func TestMeasureCore(t *testing.T) {
	// H (722) + i (222) at 12pt.
	want := (722.0 + 222.0) / 1000 * 12
	if got := MeasureCore("Helvetica", "Hi", 12); math.Abs(got-want) > 1e-9 {
		t.Errorf("measure = %v, want %v", got, want)
	}
	if got := MeasureCore("Helvetica", "", 12); got != 0 {
		t.Errorf("empty string measure = %v", got)
	}
	// Bold runs wider than regular for the same text.
	if MeasureCore("Helvetica-Bold", "Hello", 12) <= MeasureCore("Helvetica", "Hello", 12) {
		t.Errorf("bold face should measure wider")
	}
}
