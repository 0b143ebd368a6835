package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatioExactAndEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("invoice", "invoice"))
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("", "invoice"))
	assert.Equal(t, 0.0, Ratio("invoice", ""))
}

func TestRatioShortStrings(t *testing.T) {
	// One edit out of six characters.
	assert.InDelta(t, 1.0-1.0/6.0, Ratio("helloo", "hello"), 1e-9)
	// One edit out of five: exactly 0.8.
	assert.InDelta(t, 0.8, Ratio("world", "word"), 1e-9)
	// Nothing in common.
	assert.InDelta(t, 0.0, Ratio("abc", "xyz"), 1e-9)
}

func TestRatioLongStrings(t *testing.T) {
	a := strings.Repeat("a", 40)
	assert.InDelta(t, 1.0, Ratio(a, a), 1e-9)

	// Positional proxy: first 39 chars match, last differs.
	b := a[:39] + "b"
	assert.InDelta(t, 2.0*39/80, Ratio(a, b), 1e-9)

	// A leading shift destroys positional matches entirely.
	shifted := "x" + a[:39]
	assert.InDelta(t, 0.0, Ratio(a, shifted), 1e-9)
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"hello", "helloo"},
		{"total", "totals"},
		{strings.Repeat("q", 35), strings.Repeat("q", 31)},
	}
	for _, p := range pairs {
		assert.Equal(t, Ratio(p[0], p[1]), Ratio(p[1], p[0]))
	}
}

func TestRatioUnicode(t *testing.T) {
	// Rune-based, not byte-based: one substitution in five runes.
	assert.InDelta(t, 0.8, Ratio("héllo", "hállo"), 1e-9)
}
