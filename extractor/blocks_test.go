package extractor

import (
	"math"
	"testing"
)

// run lays out glyphs for text left to right starting at x, all sharing
// one baseline, width and height.
func run(text string, x, y, w, h float64) []Char {
	out := make([]Char, 0, len(text))
	for i, r := range text {
		out = append(out, Char{
			Text: string(r), X: x + float64(i)*w, Y: y,
			Width: w, Height: h, FontSize: h, FontName: "Helvetica",
		})
	}
	return out
}

func TestBuildBlocksSplitsOnWhitespace(t *testing.T) {
	chars := append(run("Hello", 10, 100, 6, 10),
		Char{Text: " ", X: 40, Y: 100, Width: 3, Height: 10})
	chars = append(chars, run("World", 46, 100, 6, 10)...)

	blocks := BuildBlocks(chars, 600, 800)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "Hello" || blocks[1].Text != "World" {
		t.Fatalf("unexpected texts %q, %q", blocks[0].Text, blocks[1].Text)
	}
}

func TestBuildBlocksSplitsOnWideGap(t *testing.T) {
	// Second run starts 5pt after the first ends; the threshold for a
	// 6pt-wide glyph is 2.4pt.
	chars := append(run("ab", 10, 100, 6, 10), run("cd", 27, 100, 6, 10)...)

	blocks := BuildBlocks(chars, 600, 800)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
}

func TestBuildBlocksKeepsTightGap(t *testing.T) {
	// 2pt gap stays below the 2.4pt threshold.
	chars := append(run("ab", 10, 100, 6, 10), run("cd", 24, 100, 6, 10)...)

	blocks := BuildBlocks(chars, 600, 800)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "abcd" {
		t.Fatalf("unexpected text %q", blocks[0].Text)
	}
}

func TestBuildBlocksSplitsOnLineJump(t *testing.T) {
	// 6pt vertical jump exceeds half the 10pt glyph height.
	chars := append(run("ab", 10, 100, 6, 10), run("cd", 22, 106, 6, 10)...)

	blocks := BuildBlocks(chars, 600, 800)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	// 4pt stays on the same line.
	chars = append(run("ab", 10, 100, 6, 10), run("cd", 22, 104, 6, 10)...)
	if blocks := BuildBlocks(chars, 600, 800); len(blocks) != 1 {
		t.Fatalf("expected 1 block for small jump, got %d", len(blocks))
	}
}

func TestBuildBlocksNormalizedGeometry(t *testing.T) {
	blocks := BuildBlocks(run("Hi", 60, 400, 12, 20), 600, 800)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	approx := func(got, want float64) bool { return math.Abs(got-want) < 1e-9 }
	if !approx(b.X, 0.1) {
		t.Errorf("X = %v, want 0.1", b.X)
	}
	// Top edge: (baseline - height) / pageH = (400 - 20) / 800.
	if !approx(b.Y, 0.475) {
		t.Errorf("Y = %v, want 0.475", b.Y)
	}
	if !approx(b.Width, 24.0/600) {
		t.Errorf("Width = %v, want %v", b.Width, 24.0/600)
	}
	if !approx(b.Height, 20.0/800) {
		t.Errorf("Height = %v, want %v", b.Height, 20.0/800)
	}
	if b.FontSize != 20 || b.FontName != "Helvetica" {
		t.Errorf("font carried wrong: %v %q", b.FontSize, b.FontName)
	}
}

func TestBuildBlocksClampsOutOfPage(t *testing.T) {
	chars := run("x", -20, 900, 10, 10)
	blocks := BuildBlocks(chars, 600, 800)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].X != 0 {
		t.Errorf("X = %v, want clamped 0", blocks[0].X)
	}
	if blocks[0].Y > 1 {
		t.Errorf("Y = %v, want clamped <= 1", blocks[0].Y)
	}
}

func TestBuildBlocksEmptyAndBlank(t *testing.T) {
	if got := BuildBlocks(nil, 600, 800); len(got) != 0 {
		t.Fatalf("expected no blocks, got %d", len(got))
	}
	blank := []Char{{Text: " ", X: 0, Y: 0, Width: 5, Height: 10}}
	if got := BuildBlocks(blank, 600, 800); len(got) != 0 {
		t.Fatalf("expected no blocks for blank input, got %d", len(got))
	}
	if got := BuildBlocks(run("x", 0, 10, 5, 5), 0, 0); got != nil {
		t.Fatalf("expected nil for degenerate page, got %v", got)
	}
}
