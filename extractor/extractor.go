// Package extractor reads existing PDF files and turns their content
// streams into positioned glyph records and word-level text blocks.
package extractor

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/documint/pdfcore/document"
	"github.com/documint/pdfcore/parser"
)

// Document is a read-only view over a parsed PDF file.
type Document struct {
	file  *parser.File
	pages []parser.PageRef
	fonts map[parser.Ref]*fontDecoder
}

// Open parses the file at path.
func Open(path string) (*Document, error) {
	f, err := parser.Open(path)
	if err != nil {
		return nil, err
	}
	return fromFile(f)
}

// Parse parses a PDF held in memory.
func Parse(data []byte) (*Document, error) {
	f, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return fromFile(f)
}

func fromFile(f *parser.File) (*Document, error) {
	pages, err := f.Pages()
	if err != nil {
		return nil, err
	}
	return &Document{
		file:  f,
		pages: pages,
		fonts: make(map[parser.Ref]*fontDecoder),
	}, nil
}

// File exposes the underlying parsed file, for callers that append
// incremental updates.
func (d *Document) File() *parser.File { return d.file }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pages) }

// PageSize returns the page dimensions in points, after /Rotate.
func (d *Document) PageSize(index int) (width, height float64, err error) {
	if index < 0 || index >= len(d.pages) {
		return 0, 0, fmt.Errorf("page index %d out of range", index)
	}
	page := d.pages[index]
	w := page.MediaBox[2] - page.MediaBox[0]
	h := page.MediaBox[3] - page.MediaBox[1]
	if rot := ((page.Rotate % 360) + 360) % 360; rot == 90 || rot == 270 {
		w, h = h, w
	}
	return w, h, nil
}

// Metadata reads the document information dictionary.
func (d *Document) Metadata() document.Info {
	info := d.file.Info()
	get := func(key string) string {
		s, _ := d.file.Resolve(info[key]).(parser.String)
		return decodeTextString(s)
	}
	return document.Info{
		Title:        get("Title"),
		Author:       get("Author"),
		Subject:      get("Subject"),
		Keywords:     get("Keywords"),
		Creator:      get("Creator"),
		Producer:     get("Producer"),
		CreationDate: get("CreationDate"),
		ModDate:      get("ModDate"),
	}
}

// Text returns the page's text in content-stream order, with line breaks
// inferred from block positions.
func (d *Document) Text(pageIndex int) (string, error) {
	blocks, err := d.Blocks(pageIndex)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	var prevY float64 = -1
	for i, b := range blocks {
		if i > 0 {
			if b.Y > prevY+0.001 {
				out.WriteByte('\n')
			} else {
				out.WriteByte(' ')
			}
		}
		out.WriteString(b.Text)
		prevY = b.Y
	}
	return out.String(), nil
}

// decodeTextString interprets a PDF text string (UTF-16BE with BOM, or
// PDFDocEncoding approximated as Latin-1).
func decodeTextString(s parser.String) string {
	if len(s) >= 2 && s[0] == 0xFE && s[1] == 0xFF {
		return decodeUTF16BE(s[2:])
	}
	runes := make([]rune, len(s))
	for i, b := range s {
		runes[i] = rune(b)
	}
	return string(runes)
}

func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return string(utf16.Decode(units))
}
