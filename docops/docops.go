// Package docops performs whole-document operations on existing PDF
// files: merging, splitting, page rotation and metadata rewrite. Pages
// are copied at the object level, so content streams, fonts and images
// pass through byte for byte.
package docops

import (
	"fmt"
	"os"

	"github.com/documint/pdfcore/document"
	"github.com/documint/pdfcore/parser"
	"github.com/documint/pdfcore/writer"
)

// Merge concatenates the pages of the input files, in order, into one
// output file.
func Merge(inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input files")
	}
	rb := newRebuild()
	for _, path := range inputs {
		f, err := parser.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		pages, err := f.Pages()
		if err != nil {
			return fmt.Errorf("read pages of %s: %w", path, err)
		}
		c := newCopier(f, rb)
		for i, page := range pages {
			if err := c.copyPage(page, 0); err != nil {
				return fmt.Errorf("copy page %d of %s: %w", i+1, path, err)
			}
		}
	}
	return rb.writeFile(output, nil)
}

// Split writes the 1-based inclusive page range [from, to] of input to
// output.
func Split(input, output string, from, to int) error {
	f, err := parser.Open(input)
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	pages, err := f.Pages()
	if err != nil {
		return err
	}
	if from < 1 || to > len(pages) || from > to {
		return fmt.Errorf("page range %d-%d out of bounds (document has %d pages)", from, to, len(pages))
	}
	rb := newRebuild()
	c := newCopier(f, rb)
	for i := from - 1; i < to; i++ {
		if err := c.copyPage(pages[i], 0); err != nil {
			return fmt.Errorf("copy page %d: %w", i+1, err)
		}
	}
	return rb.writeFile(output, nil)
}

// Rotate adds degrees (a multiple of 90) to the rotation of the given
// 1-based pages, or of every page when none are named.
func Rotate(input, output string, degrees int, pages ...int) error {
	if degrees%90 != 0 {
		return fmt.Errorf("rotation must be a multiple of 90, got %d", degrees)
	}
	f, err := parser.Open(input)
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	all, err := f.Pages()
	if err != nil {
		return err
	}
	selected := make(map[int]bool, len(pages))
	for _, p := range pages {
		if p < 1 || p > len(all) {
			return fmt.Errorf("page %d out of range (document has %d pages)", p, len(all))
		}
		selected[p-1] = true
	}
	rb := newRebuild()
	c := newCopier(f, rb)
	for i, page := range all {
		delta := 0
		if len(selected) == 0 || selected[i] {
			delta = degrees
		}
		if err := c.copyPage(page, delta); err != nil {
			return fmt.Errorf("copy page %d: %w", i+1, err)
		}
	}
	return rb.writeFile(output, nil)
}

// SetMetadata copies the document with a replaced information
// dictionary. Empty fields clear their entries.
func SetMetadata(input, output string, info document.Info) error {
	f, err := parser.Open(input)
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	all, err := f.Pages()
	if err != nil {
		return err
	}
	rb := newRebuild()
	c := newCopier(f, rb)
	for i, page := range all {
		if err := c.copyPage(page, 0); err != nil {
			return fmt.Errorf("copy page %d: %w", i+1, err)
		}
	}
	return rb.writeFile(output, infoDict(info))
}

func infoDict(info document.Info) parser.Dict {
	d := parser.Dict{}
	set := func(key, val string) {
		if val != "" {
			d[key] = parser.String(val)
		}
	}
	set("Title", info.Title)
	set("Author", info.Author)
	set("Subject", info.Subject)
	set("Keywords", info.Keywords)
	set("Creator", info.Creator)
	set("Producer", info.Producer)
	set("CreationDate", info.CreationDate)
	set("ModDate", info.ModDate)
	if len(d) == 0 {
		return nil
	}
	return d
}

// copier transplants object subtrees from one source file into the
// rebuild, remapping object numbers and deduplicating shared objects.
type copier struct {
	src     *parser.File
	rb      *rebuild
	mapping map[int]int
}

func newCopier(src *parser.File, rb *rebuild) *copier {
	return &copier{src: src, rb: rb, mapping: make(map[int]int)}
}

// copyPage clones a page dictionary and everything it references. The
// source Parent link is dropped; the rebuild wires pages to its own
// page tree on emit. rotateBy is added to the page's /Rotate.
func (c *copier) copyPage(page parser.PageRef, rotateBy int) error {
	dst := parser.Dict{"Type": parser.Name("Page")}
	for key, val := range page.Dict {
		if key == "Parent" {
			continue
		}
		copied, err := c.copyObject(val)
		if err != nil {
			return err
		}
		dst[key] = copied
	}
	// Inherited attributes become explicit so the page stands alone.
	if _, ok := dst["MediaBox"]; !ok && page.MediaBox != nil {
		mb := make(parser.Array, 4)
		for i, v := range page.MediaBox {
			mb[i] = v
		}
		dst["MediaBox"] = mb
	}
	if _, ok := dst["Resources"]; !ok && page.Resources != nil {
		copied, err := c.copyObject(page.Resources)
		if err != nil {
			return err
		}
		dst["Resources"] = copied
	}
	rotate := page.Rotate + rotateBy
	rotate = ((rotate % 360) + 360) % 360
	if rotate != 0 {
		dst["Rotate"] = int64(rotate)
	} else {
		delete(dst, "Rotate")
	}
	return c.rb.addPage(dst)
}

func (c *copier) copyObject(obj parser.Object) (parser.Object, error) {
	switch v := obj.(type) {
	case parser.Ref:
		if num, ok := c.mapping[v.Num]; ok {
			return parser.Ref{Num: num}, nil
		}
		target, err := c.src.Get(v.Num)
		if err != nil {
			return nil, err
		}
		// Reserve the number before recursing so reference cycles
		// (annotation /P links and the like) terminate.
		num := c.rb.alloc()
		c.mapping[v.Num] = num
		copied, err := c.copyObject(target)
		if err != nil {
			return nil, err
		}
		if err := c.rb.set(num, copied); err != nil {
			return nil, err
		}
		return parser.Ref{Num: num}, nil
	case parser.Dict:
		out := make(parser.Dict, len(v))
		for key, val := range v {
			copied, err := c.copyObject(val)
			if err != nil {
				return nil, err
			}
			out[key] = copied
		}
		return out, nil
	case parser.Array:
		out := make(parser.Array, len(v))
		for i, item := range v {
			copied, err := c.copyObject(item)
			if err != nil {
				return nil, err
			}
			out[i] = copied
		}
		return out, nil
	case *parser.Stream:
		payload, err := c.src.RawStreamData(v)
		if err != nil {
			return nil, err
		}
		dict := make(parser.Dict, len(v.Dict))
		for key, val := range v.Dict {
			copied, err := c.copyObject(val)
			if err != nil {
				return nil, err
			}
			dict[key] = copied
		}
		dict["Length"] = int64(len(payload))
		return &parser.Stream{Dict: dict, Raw: payload}, nil
	default:
		return obj, nil
	}
}

// rebuild accumulates objects for a fresh single-revision file.
type rebuild struct {
	bodies   map[int][]byte
	order    []int
	next     int
	pageNums []int
	pagesNum int
}

func newRebuild() *rebuild {
	rb := &rebuild{bodies: make(map[int][]byte)}
	rb.pagesNum = rb.alloc() // page tree root, written on emit
	return rb
}

func (rb *rebuild) alloc() int {
	rb.next++
	rb.order = append(rb.order, rb.next)
	return rb.next
}

func (rb *rebuild) set(num int, obj parser.Object) error {
	if stm, ok := obj.(*parser.Stream); ok {
		dictBytes, err := writer.SerializeRaw(stm.Dict)
		if err != nil {
			return err
		}
		body := make([]byte, 0, len(dictBytes)+len(stm.Raw)+20)
		body = append(body, dictBytes...)
		body = append(body, []byte("stream\n")...)
		body = append(body, stm.Raw...)
		body = append(body, []byte("\nendstream")...)
		rb.bodies[num] = body
		return nil
	}
	body, err := writer.SerializeRaw(obj)
	if err != nil {
		return err
	}
	rb.bodies[num] = body
	return nil
}

func (rb *rebuild) addPage(page parser.Dict) error {
	num := rb.alloc()
	page["Parent"] = parser.Ref{Num: rb.pagesNum}
	rb.pageNums = append(rb.pageNums, num)
	return rb.set(num, page)
}

func (rb *rebuild) writeFile(path string, info parser.Dict) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	kids := make(parser.Array, len(rb.pageNums))
	for i, num := range rb.pageNums {
		kids[i] = parser.Ref{Num: num}
	}
	if err := rb.set(rb.pagesNum, parser.Dict{
		"Type":  parser.Name("Pages"),
		"Count": int64(len(kids)),
		"Kids":  kids,
	}); err != nil {
		return err
	}
	catalogNum := rb.alloc()
	if err := rb.set(catalogNum, parser.Dict{
		"Type":  parser.Name("Catalog"),
		"Pages": parser.Ref{Num: rb.pagesNum},
	}); err != nil {
		return err
	}
	infoNum := 0
	if info != nil {
		infoNum = rb.alloc()
		if err := rb.set(infoNum, info); err != nil {
			return err
		}
	}

	var buf []byte
	buf = append(buf, "%PDF-1.7\n%"...)
	buf = append(buf, 0xE2, 0xE3, 0xCF, 0xD3, '\n')

	offsets := make(map[int]int, len(rb.order))
	for _, num := range rb.order {
		body, ok := rb.bodies[num]
		if !ok {
			return fmt.Errorf("object %d allocated but never written", num)
		}
		offsets[num] = len(buf)
		buf = append(buf, fmt.Sprintf("%d 0 obj\n", num)...)
		buf = append(buf, body...)
		buf = append(buf, "\nendobj\n"...)
	}

	xrefOffset := len(buf)
	buf = append(buf, fmt.Sprintf("xref\n0 %d\n", rb.next+1)...)
	buf = append(buf, "0000000000 65535 f \n"...)
	for num := 1; num <= rb.next; num++ {
		buf = append(buf, fmt.Sprintf("%010d 00000 n \n", offsets[num])...)
	}
	buf = append(buf, fmt.Sprintf("trailer\n<</Size %d/Root %d 0 R", rb.next+1, catalogNum)...)
	if infoNum != 0 {
		buf = append(buf, fmt.Sprintf("/Info %d 0 R", infoNum)...)
	}
	buf = append(buf, fmt.Sprintf(">>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)...)

	if _, err := out.Write(buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
