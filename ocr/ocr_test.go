package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksFromResultScalesToPage(t *testing.T) {
	res := Result{
		ImageWidth:  1000,
		ImageHeight: 2000,
		Words: []Word{
			{Text: "Total", Bounds: Region{X: 100, Y: 200, Width: 300, Height: 40}},
			{Text: "", Bounds: Region{X: 0, Y: 0, Width: 10, Height: 10}},
		},
	}

	blocks := BlocksFromResult(res, 612, 792)
	require.Len(t, blocks, 1)

	b := blocks[0]
	assert.Equal(t, "Total", b.Text)
	assert.InDelta(t, 0.1, b.X, 1e-9)
	assert.InDelta(t, 0.1, b.Y, 1e-9)
	assert.InDelta(t, 0.3, b.Width, 1e-9)
	assert.InDelta(t, 0.02, b.Height, 1e-9)
	assert.InDelta(t, 0.02*792, b.FontSize, 1e-9)
	assert.Empty(t, b.FontName)
}

func TestBlocksFromResultClampsBounds(t *testing.T) {
	res := Result{
		ImageWidth:  100,
		ImageHeight: 100,
		Words: []Word{
			{Text: "edge", Bounds: Region{X: -10, Y: 90, Width: 200, Height: 20}},
		},
	}

	blocks := BlocksFromResult(res, 612, 792)
	require.Len(t, blocks, 1)
	assert.Equal(t, 0.0, blocks[0].X)
	assert.Equal(t, 1.0, blocks[0].Width)
}

func TestBlocksFromResultDegenerateInputs(t *testing.T) {
	words := []Word{{Text: "x", Bounds: Region{Width: 10, Height: 10}}}

	assert.Nil(t, BlocksFromResult(Result{Words: words}, 612, 792))
	assert.Nil(t, BlocksFromResult(Result{ImageWidth: 100, ImageHeight: 100, Words: words}, 0, 792))
	assert.Empty(t, BlocksFromResult(Result{ImageWidth: 100, ImageHeight: 100}, 612, 792))
}

func TestRegionIsEmpty(t *testing.T) {
	assert.True(t, Region{Width: 0, Height: 10}.IsEmpty())
	assert.True(t, Region{Width: 10, Height: -1}.IsEmpty())
	assert.False(t, Region{Width: 10, Height: 10}.IsEmpty())
}
