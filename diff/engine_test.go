package diff

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/documint/pdfcore/extractor"
)

// memDocument is an in-memory diff.Document for engine tests.
type memDocument struct {
	pages     [][]extractor.TextBlock
	marks     map[int][]Mark
	savedPath string
	blocksErr error
}

func newMemDocument(pages ...[]extractor.TextBlock) *memDocument {
	return &memDocument{pages: pages, marks: make(map[int][]Mark)}
}

func (d *memDocument) PageCount() int { return len(d.pages) }

func (d *memDocument) Blocks(page int) ([]extractor.TextBlock, error) {
	if d.blocksErr != nil {
		return nil, d.blocksErr
	}
	return d.pages[page], nil
}

func (d *memDocument) Annotate(page int, marks []Mark) error {
	d.marks[page] = append(d.marks[page], marks...)
	return nil
}

func (d *memDocument) Save(path string) error {
	d.savedPath = path
	return nil
}

func TestCompareIdenticalDocuments(t *testing.T) {
	page := blocks("nothing", "changed", "here")
	src := newMemDocument(page)
	dst := newMemDocument(page)

	res, err := Compare(src, dst, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Pages, 1)
	assert.Equal(t, Totals{}, res.Totals)
	assert.Empty(t, src.marks)
	assert.Empty(t, dst.marks)
}

func TestCompareCountsAndMarks(t *testing.T) {
	src := newMemDocument(blocks("invoice", "total", "100"))
	dst := newMemDocument(blocks("invoice", "totals", "100", "EUR"))

	opts := DefaultOptions()
	opts.AnnotateSource = true
	opts.AnnotateTarget = true
	opts.SourcePath = "old-annotated.pdf"
	opts.TargetPath = "new-annotated.pdf"

	res, err := Compare(src, dst, opts)
	require.NoError(t, err)

	// "total" vs "totals" merges into a Change; "EUR" is a pure insert.
	assert.Equal(t, Totals{Added: 1, Changed: 1}, res.Totals)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, 0, res.Pages[0].PageOld)
	assert.Equal(t, 0, res.Pages[0].PageNew)

	require.Len(t, src.marks[0], 1)
	assert.Equal(t, `Changed: "total" to "totals"`, src.marks[0][0].Note)
	require.Len(t, dst.marks[0], 2)
	assert.Equal(t, `Changed: "total" to "totals"`, dst.marks[0][0].Note)
	assert.Equal(t, `Added: "EUR"`, dst.marks[0][1].Note)

	assert.Equal(t, "old-annotated.pdf", src.savedPath)
	assert.Equal(t, "new-annotated.pdf", dst.savedPath)
	assert.Equal(t, "old-annotated.pdf", res.SourcePath)
	assert.Equal(t, "new-annotated.pdf", res.TargetPath)
}

func TestComparePageCountMismatch(t *testing.T) {
	shared := blocks("same")
	src := newMemDocument(shared, shared, shared)
	dst := newMemDocument(shared, shared, shared,
		blocks("fourth", "page"), blocks("fifth"))

	res, err := Compare(src, dst, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Pages, 5)
	for i := 0; i < 3; i++ {
		assert.Equal(t, PageSummary{PageOld: i, PageNew: i}, res.Pages[i])
	}
	assert.Equal(t, PageSummary{PageOld: -1, PageNew: 3, Added: 2}, res.Pages[3])
	assert.Equal(t, PageSummary{PageOld: -1, PageNew: 4, Added: 1}, res.Pages[4])
	assert.Equal(t, Totals{Added: 3}, res.Totals)
}

func TestCompareShorterTarget(t *testing.T) {
	src := newMemDocument(blocks("keep"), blocks("gone", "words"))
	dst := newMemDocument(blocks("keep"))

	res, err := Compare(src, dst, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Pages, 2)
	assert.Equal(t, PageSummary{PageOld: 1, PageNew: -1, Deleted: 2}, res.Pages[1])
	assert.Equal(t, Totals{Deleted: 2}, res.Totals)
}

func TestCompareExtractionFailureAborts(t *testing.T) {
	src := newMemDocument(blocks("a"))
	src.blocksErr = fmt.Errorf("corrupt stream")
	dst := newMemDocument(blocks("a"))

	opts := DefaultOptions()
	opts.AnnotateTarget = true
	opts.TargetPath = "never-written.pdf"

	_, err := Compare(src, dst, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source page 1")
	assert.Empty(t, dst.savedPath)
}

func TestCompareRejectsBadPalette(t *testing.T) {
	opts := DefaultOptions()
	opts.ChangedColor = "orange"

	_, err := Compare(newMemDocument(), newMemDocument(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "changed color")
}
