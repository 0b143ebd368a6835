package diff

import (
	"fmt"

	"github.com/documint/pdfcore/builder"
	"github.com/documint/pdfcore/extractor"
	"github.com/documint/pdfcore/observability"
)

// Document is the read/annotate surface the engine drives. The toolkit
// package adapts real files to it; tests use in-memory fixtures.
type Document interface {
	PageCount() int
	Blocks(page int) ([]extractor.TextBlock, error)
	Annotate(page int, marks []Mark) error
	Save(path string) error
}

// Mark is one highlight the engine asks a document to draw: the block's
// normalized box filled semi-transparently in the given color, plus a
// markup annotation carrying the note.
type Mark struct {
	Block   extractor.TextBlock
	Color   builder.Color
	Opacity float64
	Note    string
}

// PageSummary counts the differences found on one aligned page pair.
// A page index of -1 means the document has no such page.
type PageSummary struct {
	PageOld int
	PageNew int
	Added   int
	Deleted int
	Changed int
}

// Totals aggregates counts across all pages.
type Totals struct {
	Added   int
	Deleted int
	Changed int
}

// Result is the outcome of one comparison run.
type Result struct {
	SourcePath string // annotated copy of the old document, if requested
	TargetPath string // annotated copy of the new document, if requested
	Pages      []PageSummary
	Totals     Totals
}

// Options control annotation colors and which sides get written out.
type Options struct {
	AddedColor     string // #RRGGBB
	DeletedColor   string
	ChangedColor   string
	Opacity        float64
	AnnotateSource bool
	AnnotateTarget bool
	SourcePath     string // output path when AnnotateSource is set
	TargetPath     string
	Logger         observability.Logger
}

// DefaultOptions returns the conventional red/green/orange scheme with a
// light fill.
func DefaultOptions() Options {
	return Options{
		AddedColor:   "#2E7D32",
		DeletedColor: "#C62828",
		ChangedColor: "#EF6C00",
		Opacity:      0.3,
	}
}

type palette struct {
	added   builder.Color
	deleted builder.Color
	changed builder.Color
}

func parsePalette(opts Options) (palette, error) {
	var p palette
	var err error
	if p.added, err = builder.ParseHexColor(opts.AddedColor); err != nil {
		return p, fmt.Errorf("added color: %w", err)
	}
	if p.deleted, err = builder.ParseHexColor(opts.DeletedColor); err != nil {
		return p, fmt.Errorf("deleted color: %w", err)
	}
	if p.changed, err = builder.ParseHexColor(opts.ChangedColor); err != nil {
		return p, fmt.Errorf("changed color: %w", err)
	}
	return p, nil
}

// Compare aligns two documents page by page. Shared page indices are
// word-aligned; pages beyond the shorter document count as pure inserts
// or deletes. Any extraction or annotation failure aborts the whole run;
// a partially annotated result would be misleading.
func Compare(source, target Document, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	pal, err := parsePalette(opts)
	if err != nil {
		return nil, err
	}

	countOld := source.PageCount()
	countNew := target.PageCount()
	shared := countOld
	if countNew < shared {
		shared = countNew
	}

	res := &Result{}
	sourceMarks := make(map[int][]Mark)
	targetMarks := make(map[int][]Mark)

	for page := 0; page < shared; page++ {
		oldBlocks, err := source.Blocks(page)
		if err != nil {
			return nil, fmt.Errorf("extract source page %d: %w", page+1, err)
		}
		newBlocks, err := target.Blocks(page)
		if err != nil {
			return nil, fmt.Errorf("extract target page %d: %w", page+1, err)
		}
		ops := MergeChanges(Align(oldBlocks, newBlocks))

		summary := PageSummary{PageOld: page, PageNew: page}
		for _, op := range ops {
			switch op.Kind {
			case OpInsert:
				summary.Added++
				targetMarks[page] = append(targetMarks[page], Mark{
					Block: *op.New, Color: pal.added, Opacity: opts.Opacity,
					Note: fmt.Sprintf("Added: %q", op.New.Text),
				})
			case OpDelete:
				summary.Deleted++
				sourceMarks[page] = append(sourceMarks[page], Mark{
					Block: *op.Old, Color: pal.deleted, Opacity: opts.Opacity,
					Note: fmt.Sprintf("Deleted: %q", op.Old.Text),
				})
			case OpChange:
				summary.Changed++
				note := fmt.Sprintf("Changed: %q to %q", op.Old.Text, op.New.Text)
				sourceMarks[page] = append(sourceMarks[page], Mark{
					Block: *op.Old, Color: pal.changed, Opacity: opts.Opacity, Note: note,
				})
				targetMarks[page] = append(targetMarks[page], Mark{
					Block: *op.New, Color: pal.changed, Opacity: opts.Opacity, Note: note,
				})
			}
		}
		log.Debug("page aligned",
			observability.Int("page", page),
			observability.Int("added", summary.Added),
			observability.Int("deleted", summary.Deleted),
			observability.Int("changed", summary.Changed))
		res.Pages = append(res.Pages, summary)
		res.Totals.Added += summary.Added
		res.Totals.Deleted += summary.Deleted
		res.Totals.Changed += summary.Changed
	}

	for page := shared; page < countOld; page++ {
		blocks, err := source.Blocks(page)
		if err != nil {
			return nil, fmt.Errorf("extract source page %d: %w", page+1, err)
		}
		summary := PageSummary{PageOld: page, PageNew: -1, Deleted: len(blocks)}
		for _, b := range blocks {
			sourceMarks[page] = append(sourceMarks[page], Mark{
				Block: b, Color: pal.deleted, Opacity: opts.Opacity,
				Note: fmt.Sprintf("Deleted: %q", b.Text),
			})
		}
		res.Pages = append(res.Pages, summary)
		res.Totals.Deleted += summary.Deleted
	}
	for page := shared; page < countNew; page++ {
		blocks, err := target.Blocks(page)
		if err != nil {
			return nil, fmt.Errorf("extract target page %d: %w", page+1, err)
		}
		summary := PageSummary{PageOld: -1, PageNew: page, Added: len(blocks)}
		for _, b := range blocks {
			targetMarks[page] = append(targetMarks[page], Mark{
				Block: b, Color: pal.added, Opacity: opts.Opacity,
				Note: fmt.Sprintf("Added: %q", b.Text),
			})
		}
		res.Pages = append(res.Pages, summary)
		res.Totals.Added += summary.Added
	}

	if opts.AnnotateSource {
		if err := annotateAndSave(source, sourceMarks, opts.SourcePath); err != nil {
			return nil, fmt.Errorf("annotate source: %w", err)
		}
		res.SourcePath = opts.SourcePath
	}
	if opts.AnnotateTarget {
		if err := annotateAndSave(target, targetMarks, opts.TargetPath); err != nil {
			return nil, fmt.Errorf("annotate target: %w", err)
		}
		res.TargetPath = opts.TargetPath
	}

	log.Info("comparison complete",
		observability.Int("pages", len(res.Pages)),
		observability.Int("added", res.Totals.Added),
		observability.Int("deleted", res.Totals.Deleted),
		observability.Int("changed", res.Totals.Changed))
	return res, nil
}

func annotateAndSave(doc Document, marks map[int][]Mark, path string) error {
	for page, pageMarks := range marks {
		if err := doc.Annotate(page, pageMarks); err != nil {
			return fmt.Errorf("page %d: %w", page+1, err)
		}
	}
	return doc.Save(path)
}
