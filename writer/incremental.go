package writer

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/documint/pdfcore/document"
	"github.com/documint/pdfcore/parser"
)

// AppendAnnotations writes an incremental update of the parsed file with
// the given annotations added, keyed by zero-based page index. The
// original bytes are preserved untouched; only the affected page objects
// are rewritten in the appended revision.
func AppendAnnotations(f *parser.File, annots map[int][]document.Annotation, out io.Writer) error {
	pages, err := f.Pages()
	if err != nil {
		return err
	}

	indices := make([]int, 0, len(annots))
	for idx := range annots {
		if idx < 0 || idx >= len(pages) {
			return fmt.Errorf("page index %d out of range (document has %d pages)", idx, len(pages))
		}
		if len(annots[idx]) > 0 {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	type object struct {
		num  int
		gen  int
		body []byte
	}
	var objects []object
	nextNum := f.MaxObjectNumber() + 1

	for _, idx := range indices {
		page := pages[idx]
		annotsArr := existingAnnots(f, page.Dict)
		for _, ann := range annots[idx] {
			num := nextNum
			nextNum++
			objects = append(objects, object{num: num, body: annotationBody(ann)})
			annotsArr = append(annotsArr, parser.Ref{Num: num})
		}
		updated := make(parser.Dict, len(page.Dict)+1)
		for k, v := range page.Dict {
			updated[k] = v
		}
		updated["Annots"] = annotsArr
		body, err := SerializeRaw(updated)
		if err != nil {
			return fmt.Errorf("page %d: %w", idx, err)
		}
		objects = append(objects, object{num: page.Ref.Num, gen: page.Ref.Gen, body: body})
	}
	if len(objects) == 0 {
		_, err := out.Write(f.RawBytes())
		return err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].num < objects[j].num })

	var buf bytes.Buffer
	base := f.RawBytes()
	buf.Write(base)
	if len(base) > 0 && base[len(base)-1] != '\n' {
		buf.WriteByte('\n')
	}

	offsets := make(map[int]int64, len(objects))
	gens := make(map[int]int, len(objects))
	for _, obj := range objects {
		offsets[obj.num] = int64(buf.Len())
		gens[obj.num] = obj.gen
		fmt.Fprintf(&buf, "%d %d obj\n", obj.num, obj.gen)
		buf.Write(obj.body)
		buf.WriteString("\nendobj\n")
	}

	xrefOffset := buf.Len()
	buf.WriteString("xref\n")
	nums := make([]int, 0, len(objects))
	for _, obj := range objects {
		nums = append(nums, obj.num)
	}
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(&buf, "%d %d\n", nums[i], j-i+1)
		for k := i; k <= j; k++ {
			fmt.Fprintf(&buf, "%010d %05d n \n", offsets[nums[k]], gens[nums[k]])
		}
		i = j + 1
	}

	trailer := f.Trailer()
	buf.WriteString("trailer\n<<")
	fmt.Fprintf(&buf, "/Size %d", nextNum)
	if root, ok := trailer["Root"].(parser.Ref); ok {
		fmt.Fprintf(&buf, "/Root %d %d R", root.Num, root.Gen)
	}
	if info, ok := trailer["Info"].(parser.Ref); ok {
		fmt.Fprintf(&buf, "/Info %d %d R", info.Num, info.Gen)
	}
	if id, ok := trailer["ID"].(parser.Array); ok {
		if idBytes, err := SerializeRaw(id); err == nil {
			buf.WriteString("/ID")
			buf.Write(idBytes)
		}
	}
	fmt.Fprintf(&buf, "/Prev %d", f.StartXref())
	buf.WriteString(">>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	_, err = out.Write(buf.Bytes())
	return err
}

// existingAnnots returns the page's current /Annots entries, keeping
// indirect references as references.
func existingAnnots(f *parser.File, page parser.Dict) parser.Array {
	switch v := page["Annots"].(type) {
	case parser.Array:
		return append(parser.Array{}, v...)
	case parser.Ref:
		if arr, ok := f.Resolve(v).(parser.Array); ok {
			return append(parser.Array{}, arr...)
		}
	}
	return nil
}

// annotationBody serializes an annotation for an unencrypted revision.
func annotationBody(ann document.Annotation) []byte {
	var out bytes.Buffer
	writeCommon := func(base document.BaseAnnotation) {
		if len(base.Color) > 0 {
			fmt.Fprintf(&out, "/C%s", numberArray(base.Color))
		}
		if base.Opacity > 0 && base.Opacity < 1 {
			fmt.Fprintf(&out, "/CA %s", fmtFloat(base.Opacity))
		}
		if base.Contents != "" {
			fmt.Fprintf(&out, "/Contents (%s)", escapeString(textString(base.Contents)))
		}
		if base.Flags != 0 {
			fmt.Fprintf(&out, "/F %d", base.Flags)
		}
		out.WriteString(">>")
	}
	switch a := ann.(type) {
	case *document.HighlightAnnotation:
		fmt.Fprintf(&out, "<</Type/Annot/Subtype/Highlight/Rect%s", rectString(a.Rect))
		if len(a.QuadPoints) > 0 {
			fmt.Fprintf(&out, "/QuadPoints%s", numberArray(a.QuadPoints))
		}
		writeCommon(a.BaseAnnotation)
	case *document.SquareAnnotation:
		fmt.Fprintf(&out, "<</Type/Annot/Subtype/Square/Rect%s", rectString(a.Rect))
		if len(a.Interior) > 0 {
			fmt.Fprintf(&out, "/IC%s", numberArray(a.Interior))
		}
		writeCommon(a.BaseAnnotation)
	case *document.TextAnnotation:
		fmt.Fprintf(&out, "<</Type/Annot/Subtype/Text/Rect%s", rectString(a.Rect))
		if a.Open {
			out.WriteString("/Open true")
		}
		if a.Icon != "" {
			fmt.Fprintf(&out, "/Name/%s", escapeName(a.Icon))
		}
		writeCommon(a.BaseAnnotation)
	default:
		fmt.Fprintf(&out, "<</Type/Annot/Subtype/%s/Rect%s>>", escapeName(ann.AnnotationType()), rectString(ann.Bounds()))
	}
	return out.Bytes()
}

// SerializeRaw renders a parser-level object back to file syntax.
// Streams cannot appear inline and are rejected.
func SerializeRaw(obj parser.Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeRaw(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRaw(buf *bytes.Buffer, obj parser.Object) error {
	switch v := obj.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int64:
		fmt.Fprintf(buf, "%d", v)
	case float64:
		buf.WriteString(fmtFloat(v))
	case parser.Name:
		fmt.Fprintf(buf, "/%s", escapeName(string(v)))
	case parser.String:
		buf.WriteByte('(')
		buf.Write(escapeString(v))
		buf.WriteByte(')')
	case parser.Ref:
		fmt.Fprintf(buf, "%d %d R", v.Num, v.Gen)
	case parser.Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := writeRaw(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case parser.Dict:
		buf.WriteString("<<")
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(buf, "/%s ", escapeName(k))
			if err := writeRaw(buf, v[k]); err != nil {
				return err
			}
		}
		buf.WriteString(">>")
	default:
		return fmt.Errorf("cannot serialize %T inline", obj)
	}
	return nil
}
