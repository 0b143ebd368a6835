package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrEncrypted is returned for files carrying an /Encrypt dictionary.
// The toolkit writes encrypted output but does not open encrypted input.
var ErrEncrypted = errors.New("file is encrypted")

// xrefEntry locates one indirect object.
type xrefEntry struct {
	offset    int64 // byte offset for regular objects
	streamNum int   // containing object stream, when inObjStm
	streamIdx int
	inObjStm  bool
}

// File is a parsed PDF file. Objects are loaded lazily and cached.
type File struct {
	data      []byte
	xref      map[int]xrefEntry
	trailer   Dict
	cache     map[int]Object
	objStms   map[int][]Object // parsed object-stream contents, keyed by stream number
	maxNum    int
	startXref int64
}

// Open reads and parses the file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses a complete PDF file held in memory. The returned File keeps
// a reference to data.
func Parse(data []byte) (*File, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("missing %%PDF header")
	}
	f := &File{
		data:    data,
		xref:    make(map[int]xrefEntry),
		cache:   make(map[int]Object),
		objStms: make(map[int][]Object),
	}
	start, err := findStartXref(data)
	if err != nil {
		return nil, err
	}
	f.startXref = start
	if err := f.loadXrefChain(start); err != nil {
		return nil, err
	}
	if f.trailer["Encrypt"] != nil {
		return nil, ErrEncrypted
	}
	for num := range f.xref {
		if num > f.maxNum {
			f.maxNum = num
		}
	}
	return f, nil
}

// RawBytes returns the original file bytes. Incremental updates append to
// these.
func (f *File) RawBytes() []byte { return f.data }

// MaxObjectNumber returns the highest object number the file defines.
func (f *File) MaxObjectNumber() int { return f.maxNum }

// StartXref returns the offset of the most recent cross-reference section.
func (f *File) StartXref() int64 { return f.startXref }

// Trailer returns the trailer dictionary of the most recent revision.
func (f *File) Trailer() Dict { return f.trailer }

func findStartXref(data []byte) (int64, error) {
	tail := data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	l := &lexer{data: tail, pos: idx + len("startxref")}
	l.skipWhitespace()
	obj, _, err := l.parseNumber()
	if err != nil {
		return 0, fmt.Errorf("invalid startxref offset: %w", err)
	}
	off, ok := obj.(int64)
	if !ok || off < 0 || off >= int64(len(data)) {
		return 0, fmt.Errorf("startxref offset %v out of range", obj)
	}
	return off, nil
}

// loadXrefChain walks the /Prev chain starting at offset. Entries from
// earlier revisions never override later ones.
func (f *File) loadXrefChain(offset int64) error {
	seen := make(map[int64]bool)
	for {
		if seen[offset] {
			return fmt.Errorf("cyclic xref chain at offset %d", offset)
		}
		seen[offset] = true

		trailer, err := f.loadXrefSection(offset)
		if err != nil {
			return err
		}
		if f.trailer == nil {
			f.trailer = trailer
		}
		// Hybrid files point at an xref stream via /XRefStm.
		if xs, ok := Int(trailer["XRefStm"]); ok && !seen[xs] {
			if _, err := f.loadXrefSection(xs); err != nil {
				return err
			}
			seen[xs] = true
		}
		prev, ok := Int(trailer["Prev"])
		if !ok {
			return nil
		}
		offset = prev
	}
}

func (f *File) loadXrefSection(offset int64) (Dict, error) {
	l := &lexer{data: f.data, pos: int(offset)}
	l.skipWhitespace()
	if l.match("xref") {
		return f.parseXrefTable(l)
	}
	// Cross-reference stream: "N G obj << ... >> stream".
	obj, err := l.parseIndirect()
	if err != nil {
		return nil, fmt.Errorf("xref section at %d: %w", offset, err)
	}
	stm, ok := obj.(*Stream)
	if !ok {
		return nil, fmt.Errorf("xref section at %d is neither a table nor a stream", offset)
	}
	if err := f.parseXrefStream(stm); err != nil {
		return nil, err
	}
	return stm.Dict, nil
}

// parseXrefTable reads a classic cross-reference table and the trailer
// that follows it.
func (f *File) parseXrefTable(l *lexer) (Dict, error) {
	for {
		l.skipWhitespace()
		if l.match("trailer") {
			obj, err := l.parseObject()
			if err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
			trailer, ok := obj.(Dict)
			if !ok {
				return nil, fmt.Errorf("trailer is not a dictionary")
			}
			return trailer, nil
		}
		startObj, _, err := l.parseNumber()
		if err != nil {
			return nil, fmt.Errorf("xref subsection header: %w", err)
		}
		l.skipWhitespace()
		countObj, _, err := l.parseNumber()
		if err != nil {
			return nil, fmt.Errorf("xref subsection header: %w", err)
		}
		start := int(startObj.(int64))
		count := int(countObj.(int64))
		for i := 0; i < count; i++ {
			l.skipWhitespace()
			if l.pos+18 > len(l.data) {
				return nil, fmt.Errorf("truncated xref entry")
			}
			entry := l.data[l.pos : l.pos+18]
			l.pos += 18
			off, err := strconv.ParseInt(string(bytes.TrimSpace(entry[0:10])), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("xref entry for object %d: %w", start+i, err)
			}
			kind := entry[17]
			num := start + i
			if kind == 'n' {
				f.addEntry(num, xrefEntry{offset: off})
			}
		}
	}
}

// xref stream entry types.
const (
	xrefFree       = 0
	xrefRegular    = 1
	xrefCompressed = 2
)

func (f *File) parseXrefStream(stm *Stream) error {
	data, err := f.streamBytes(stm)
	if err != nil {
		return fmt.Errorf("xref stream: %w", err)
	}
	wObj, ok := stm.Dict["W"].(Array)
	if !ok || len(wObj) < 3 {
		return fmt.Errorf("xref stream missing /W")
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		v, _ := Int(wObj[i])
		w[i] = int(v)
	}
	size, _ := Int(stm.Dict["Size"])

	var index []int
	if arr, ok := stm.Dict["Index"].(Array); ok {
		for _, item := range arr {
			v, _ := Int(item)
			index = append(index, int(v))
		}
	} else {
		index = []int{0, int(size)}
	}

	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return fmt.Errorf("xref stream with zero-width rows")
	}
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(data) {
				return fmt.Errorf("truncated xref stream")
			}
			typ := int64(xrefRegular)
			if w[0] > 0 {
				typ = beInt(data[pos : pos+w[0]])
			}
			f2 := beInt(data[pos+w[0] : pos+w[0]+w[1]])
			f3 := beInt(data[pos+w[0]+w[1] : pos+rowLen])
			pos += rowLen
			num := start + j
			switch typ {
			case xrefRegular:
				f.addEntry(num, xrefEntry{offset: f2})
			case xrefCompressed:
				f.addEntry(num, xrefEntry{streamNum: int(f2), streamIdx: int(f3), inObjStm: true})
			case xrefFree:
			}
		}
	}
	return nil
}

func beInt(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// addEntry records an xref entry unless a newer revision already did.
func (f *File) addEntry(num int, e xrefEntry) {
	if _, exists := f.xref[num]; !exists {
		f.xref[num] = e
	}
}

// parseIndirect reads "N G obj ... endobj" at the lexer position.
func (l *lexer) parseIndirect() (Object, error) {
	l.skipWhitespace()
	if _, _, err := l.parseNumber(); err != nil {
		return nil, err
	}
	l.skipWhitespace()
	if _, _, err := l.parseNumber(); err != nil {
		return nil, err
	}
	l.skipWhitespace()
	if !l.match("obj") {
		return nil, fmt.Errorf("expected obj keyword at offset %d", l.pos)
	}
	return l.parseObject()
}

// Get loads the object with the given number, using the cache.
func (f *File) Get(num int) (Object, error) {
	if obj, ok := f.cache[num]; ok {
		return obj, nil
	}
	entry, ok := f.xref[num]
	if !ok {
		return nil, nil
	}
	var obj Object
	var err error
	if entry.inObjStm {
		obj, err = f.fromObjectStream(entry.streamNum, entry.streamIdx)
	} else {
		if entry.offset < 0 || entry.offset >= int64(len(f.data)) {
			return nil, fmt.Errorf("object %d: offset %d out of range", num, entry.offset)
		}
		l := &lexer{data: f.data, pos: int(entry.offset)}
		obj, err = l.parseIndirect()
	}
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", num, err)
	}
	f.cache[num] = obj
	return obj, nil
}

// fromObjectStream loads the idx-th object of the /ObjStm with the given
// number, parsing the whole stream on first access.
func (f *File) fromObjectStream(streamNum, idx int) (Object, error) {
	objs, ok := f.objStms[streamNum]
	if !ok {
		container, err := f.Get(streamNum)
		if err != nil {
			return nil, err
		}
		stm, isStream := container.(*Stream)
		if !isStream {
			return nil, fmt.Errorf("object stream %d is not a stream", streamNum)
		}
		data, err := f.streamBytes(stm)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", streamNum, err)
		}
		n, _ := Int(stm.Dict["N"])
		first, _ := Int(stm.Dict["First"])

		// The stream opens with N pairs of "objnum offset".
		head := &lexer{data: data}
		offsets := make([]int64, 0, n)
		for i := int64(0); i < n; i++ {
			head.skipWhitespace()
			if _, _, err := head.parseNumber(); err != nil {
				return nil, fmt.Errorf("object stream %d index: %w", streamNum, err)
			}
			head.skipWhitespace()
			off, _, err := head.parseNumber()
			if err != nil {
				return nil, fmt.Errorf("object stream %d index: %w", streamNum, err)
			}
			offsets = append(offsets, off.(int64))
		}
		objs = make([]Object, len(offsets))
		for i, off := range offsets {
			pos := first + off
			if pos < 0 || pos > int64(len(data)) {
				return nil, fmt.Errorf("object stream %d: offset %d out of range", streamNum, pos)
			}
			body := &lexer{data: data, pos: int(pos)}
			obj, err := body.parseObject()
			if err != nil {
				return nil, fmt.Errorf("object stream %d entry %d: %w", streamNum, i, err)
			}
			objs[i] = obj
		}
		f.objStms[streamNum] = objs
	}
	if idx < 0 || idx >= len(objs) {
		return nil, fmt.Errorf("object stream %d has no entry %d", streamNum, idx)
	}
	return objs[idx], nil
}

// Resolve follows indirect references until a direct object remains.
func (f *File) Resolve(obj Object) Object {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(Ref)
		if !ok {
			return obj
		}
		next, err := f.Get(ref.Num)
		if err != nil {
			return nil
		}
		obj = next
	}
	return nil
}

// StreamData returns the decoded contents of stm.
func (f *File) StreamData(stm *Stream) ([]byte, error) {
	return f.streamBytes(stm)
}

// RawStreamData returns the still-encoded payload of stm, sliced to its
// actual length. Useful when copying objects between files without
// re-encoding.
func (f *File) RawStreamData(stm *Stream) ([]byte, error) {
	length, err := f.streamLength(stm)
	if err != nil {
		return nil, err
	}
	return stm.Raw[:length], nil
}

func (f *File) streamBytes(stm *Stream) ([]byte, error) {
	length, err := f.streamLength(stm)
	if err != nil {
		return nil, err
	}
	return decodeStream(stm.Dict, stm.Raw[:length], f.Resolve)
}

func (f *File) streamLength(stm *Stream) (int64, error) {
	length, ok := Int(f.Resolve(stm.Dict["Length"]))
	if !ok || length < 0 || length > int64(len(stm.Raw)) {
		// Fall back to scanning for the endstream keyword.
		end := bytes.Index(stm.Raw, []byte("endstream"))
		if end < 0 {
			return 0, fmt.Errorf("stream without usable /Length")
		}
		length = int64(end)
		for length > 0 && (stm.Raw[length-1] == '\n' || stm.Raw[length-1] == '\r') {
			length--
		}
	}
	return length, nil
}

// Catalog returns the document catalog.
func (f *File) Catalog() (Dict, error) {
	cat, ok := f.Resolve(f.trailer["Root"]).(Dict)
	if !ok {
		return nil, fmt.Errorf("trailer /Root missing or not a dictionary")
	}
	return cat, nil
}

// Info returns the document information dictionary, if any.
func (f *File) Info() Dict {
	info, _ := f.Resolve(f.trailer["Info"]).(Dict)
	return info
}

// PageRef pairs a page dictionary with the reference it was loaded
// through, and carries the attributes pages inherit from their parents.
type PageRef struct {
	Ref       Ref
	Dict      Dict
	MediaBox  []float64
	Rotate    int
	Resources Dict
}

// Pages flattens the page tree in document order.
func (f *File) Pages() ([]PageRef, error) {
	cat, err := f.Catalog()
	if err != nil {
		return nil, err
	}
	rootRef, _ := cat["Pages"].(Ref)
	root, ok := f.Resolve(cat["Pages"]).(Dict)
	if !ok {
		return nil, fmt.Errorf("catalog /Pages missing or not a dictionary")
	}
	var out []PageRef
	inherited := pageAttrs{mediaBox: []float64{0, 0, 612, 792}}
	seen := make(map[int]bool)
	if err := f.walkPages(rootRef, root, inherited, seen, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type pageAttrs struct {
	mediaBox  []float64
	rotate    int
	resources Dict
}

func (f *File) walkPages(ref Ref, node Dict, attrs pageAttrs, seen map[int]bool, out *[]PageRef) error {
	if ref.Num != 0 {
		if seen[ref.Num] {
			return fmt.Errorf("cyclic page tree at object %d", ref.Num)
		}
		seen[ref.Num] = true
	}
	if mb := f.rectValues(node["MediaBox"]); mb != nil {
		attrs.mediaBox = mb
	}
	if rot, ok := Int(f.Resolve(node["Rotate"])); ok {
		attrs.rotate = int(rot)
	}
	if res, ok := f.Resolve(node["Resources"]).(Dict); ok {
		attrs.resources = res
	}
	typ, _ := f.Resolve(node["Type"]).(Name)
	if typ == "Page" {
		*out = append(*out, PageRef{
			Ref:       ref,
			Dict:      node,
			MediaBox:  attrs.mediaBox,
			Rotate:    attrs.rotate,
			Resources: attrs.resources,
		})
		return nil
	}
	kids, ok := f.Resolve(node["Kids"]).(Array)
	if !ok {
		return fmt.Errorf("page tree node without /Kids")
	}
	for _, kid := range kids {
		kidRef, _ := kid.(Ref)
		kidDict, ok := f.Resolve(kid).(Dict)
		if !ok {
			return fmt.Errorf("page tree kid is not a dictionary")
		}
		if err := f.walkPages(kidRef, kidDict, attrs, seen, out); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) rectValues(obj Object) []float64 {
	arr, ok := f.Resolve(obj).(Array)
	if !ok || len(arr) != 4 {
		return nil
	}
	out := make([]float64, 4)
	for i, item := range arr {
		v, ok := Float(f.Resolve(item))
		if !ok {
			return nil
		}
		out[i] = v
	}
	return out
}

// PageContents concatenates the decoded content streams of a page.
func (f *File) PageContents(page PageRef) ([]byte, error) {
	var parts [][]byte
	switch contents := f.Resolve(page.Dict["Contents"]).(type) {
	case *Stream:
		data, err := f.streamBytes(contents)
		if err != nil {
			return nil, err
		}
		parts = append(parts, data)
	case Array:
		for _, item := range contents {
			stm, ok := f.Resolve(item).(*Stream)
			if !ok {
				continue
			}
			data, err := f.streamBytes(stm)
			if err != nil {
				return nil, err
			}
			parts = append(parts, data)
		}
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("page /Contents has unexpected type %T", contents)
	}
	return bytes.Join(parts, []byte("\n")), nil
}
