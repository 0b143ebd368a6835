package toolkit

import (
	"context"
	"fmt"
	"os"

	"github.com/documint/pdfcore/diff"
	"github.com/documint/pdfcore/document"
	"github.com/documint/pdfcore/extractor"
	"github.com/documint/pdfcore/observability"
	"github.com/documint/pdfcore/ocr"
	"github.com/documint/pdfcore/writer"
)

// fileDocument adapts a parsed file to the diff engine's document
// contract. Annotations accumulate in memory and are written as one
// incremental update on Save, leaving the original revision intact.
type fileDocument struct {
	t      *Toolkit
	ctx    context.Context
	path   string
	doc    *extractor.Document
	annots map[int][]document.Annotation
}

func (t *Toolkit) openDocument(ctx context.Context, path string) (*fileDocument, error) {
	doc, err := extractor.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, path, err)
	}
	return &fileDocument{
		t:      t,
		ctx:    ctx,
		path:   path,
		doc:    doc,
		annots: make(map[int][]document.Annotation),
	}, nil
}

func (d *fileDocument) PageCount() int { return d.doc.PageCount() }

func (d *fileDocument) Blocks(page int) ([]extractor.TextBlock, error) {
	blocks, err := d.doc.Blocks(page)
	if err != nil {
		return nil, fmt.Errorf("%w: %s page %d: %v", ErrExtractionFailure, d.path, page+1, err)
	}
	if len(blocks) == 0 && d.t.ocrEngine != nil {
		return d.ocrBlocks(page)
	}
	return blocks, nil
}

// ocrBlocks recognizes the page's largest embedded image when the
// content stream yielded no glyphs, which is what scanned pages look
// like.
func (d *fileDocument) ocrBlocks(page int) ([]extractor.TextBlock, error) {
	assets, err := d.doc.Images(page)
	if err != nil || len(assets) == 0 {
		return nil, nil
	}
	best := assets[0]
	for _, a := range assets[1:] {
		if a.Width*a.Height > best.Width*best.Height {
			best = a
		}
	}
	payload, mime, err := best.Payload()
	if err != nil {
		d.t.log.Warn("page image not usable for recognition",
			observability.Int("page", page),
			observability.Error("err", err))
		return nil, nil
	}
	res, err := d.t.ocrEngine.Recognize(d.ctx, ocr.Input{
		Image:     payload,
		Format:    ocr.ImageFormat(mime),
		PageIndex: page,
		Languages: d.t.ocrLanguages,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: recognize %s page %d: %v", ErrExtractionFailure, d.path, page+1, err)
	}
	pageW, pageH, err := d.doc.PageSize(page)
	if err != nil {
		return nil, fmt.Errorf("%w: %s page %d: %v", ErrExtractionFailure, d.path, page+1, err)
	}
	d.t.log.Debug("page recognized via ocr",
		observability.Int("page", page),
		observability.Int("words", len(res.Words)))
	return ocr.BlocksFromResult(res, pageW, pageH), nil
}

func (d *fileDocument) Annotate(page int, marks []diff.Mark) error {
	pageW, pageH, err := d.doc.PageSize(page)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for _, m := range marks {
		rect := document.Rectangle{
			LLX: m.Block.X * pageW,
			LLY: pageH - (m.Block.Y+m.Block.Height)*pageH,
			URX: (m.Block.X + m.Block.Width) * pageW,
			URY: pageH - m.Block.Y*pageH,
		}
		square := document.NewSquare(rect, m.Color.Components(), m.Opacity, m.Note)
		highlight := document.NewHighlight(rect, m.Color.Components(), m.Opacity, m.Note)
		d.annots[page] = append(d.annots[page], square, highlight)
	}
	return nil
}

func (d *fileDocument) Save(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWriteFailure, err)
	}
	defer out.Close()
	if err := writer.AppendAnnotations(d.doc.File(), d.annots, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputWriteFailure, path, err)
	}
	return nil
}
