// Package writer serializes the document model into PDF 1.7 files:
// classic cross-reference tables, Flate-compressed content streams,
// embedded Type0 fonts and optional RC4 encryption.
package writer

import (
	"bytes"
	"compress/zlib"
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/documint/pdfcore/document"
)

// Config controls serialization.
type Config struct {
	// Compress enables FlateDecode on content and font streams.
	Compress bool
	// Producer overrides the Producer info entry.
	Producer string
}

// DefaultConfig returns the configuration used by the high-level APIs.
func DefaultConfig() Config {
	return Config{Compress: true, Producer: "pdfcore"}
}

// WriteFile serializes doc to path.
func WriteFile(doc *document.Document, path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Write(doc, f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write serializes doc to w.
func Write(doc *document.Document, w io.Writer, cfg Config) error {
	if doc == nil || len(doc.Pages) == 0 {
		return fmt.Errorf("document has no pages")
	}
	st := &writeState{cfg: cfg, bodies: make(map[int][]byte)}

	fileID := make([]byte, 16)
	if _, err := rand.Read(fileID); err != nil {
		sum := md5.Sum([]byte(time.Now().String()))
		copy(fileID, sum[:])
	}
	st.fileID = fileID

	if doc.Encrypted {
		enc, err := newEncryptor(doc, fileID)
		if err != nil {
			return fmt.Errorf("set up encryption: %w", err)
		}
		st.enc = enc
	}

	catalogNum := st.alloc()
	pagesNum := st.alloc()
	infoNum := st.alloc()
	encryptNum := 0
	if st.enc != nil {
		encryptNum = st.alloc()
	}

	fontRefs := st.collectFonts(doc)
	imageRefs := st.collectImages(doc)

	pageNums := make([]int, len(doc.Pages))
	for i, page := range doc.Pages {
		pageNums[i] = st.alloc()
		if err := st.writePage(page, pageNums[i], pagesNum, fontRefs, imageRefs); err != nil {
			return fmt.Errorf("serialize page %d: %w", i, err)
		}
	}

	for font, refs := range fontRefs {
		if err := st.writeFont(font, refs); err != nil {
			return fmt.Errorf("serialize font %s: %w", font.BaseFont, err)
		}
	}
	for img, num := range imageRefs {
		st.writeImage(img, num)
	}

	kids := make([]string, len(pageNums))
	for i, n := range pageNums {
		kids[i] = fmt.Sprintf("%d 0 R", n)
	}
	st.set(pagesNum, []byte(fmt.Sprintf("<</Type/Pages/Count %d/Kids[%s]>>", len(pageNums), strings.Join(kids, " "))))
	st.set(catalogNum, []byte(fmt.Sprintf("<</Type/Catalog/Pages %d 0 R>>", pagesNum)))
	st.set(infoNum, st.serializeInfo(doc.Info, infoNum))
	if st.enc != nil {
		st.set(encryptNum, st.serializeEncrypt())
	}

	return st.emit(w, catalogNum, infoNum, encryptNum)
}

type fontObjRefs struct {
	fontNum       int
	descendantNum int
	descriptorNum int
	fontFileNum   int
	toUnicodeNum  int
}

type writeState struct {
	cfg    Config
	bodies map[int][]byte
	order  []int
	next   int
	enc    *encryptor
	fileID []byte
}

func (st *writeState) alloc() int {
	st.next++
	st.order = append(st.order, st.next)
	return st.next
}

func (st *writeState) set(num int, body []byte) { st.bodies[num] = body }

func (st *writeState) collectFonts(doc *document.Document) map[*document.Font]*fontObjRefs {
	refs := make(map[*document.Font]*fontObjRefs)
	for _, page := range doc.Pages {
		if page.Resources == nil {
			continue
		}
		for _, font := range page.Resources.Fonts {
			if _, ok := refs[font]; ok {
				continue
			}
			r := &fontObjRefs{fontNum: st.alloc()}
			if font.Subtype == "Type0" {
				r.descendantNum = st.alloc()
				r.descriptorNum = st.alloc()
				r.fontFileNum = st.alloc()
				r.toUnicodeNum = st.alloc()
			}
			refs[font] = r
		}
	}
	return refs
}

func (st *writeState) collectImages(doc *document.Document) map[*document.Image]int {
	refs := make(map[*document.Image]int)
	for _, page := range doc.Pages {
		if page.Resources == nil {
			continue
		}
		for _, img := range page.Resources.XObjects {
			if _, ok := refs[img]; !ok {
				refs[img] = st.alloc()
			}
		}
	}
	return refs
}

func (st *writeState) writePage(page *document.Page, pageNum, pagesNum int, fontRefs map[*document.Font]*fontObjRefs, imageRefs map[*document.Image]int) error {
	contentNums := make([]int, 0, len(page.Contents))
	for _, cs := range page.Contents {
		data := cs.Raw
		if data == nil {
			data = serializeOperations(cs.Operations)
		}
		num := st.alloc()
		st.set(num, st.streamBody(num, data, ""))
		contentNums = append(contentNums, num)
	}
	annotNums := make([]int, 0, len(page.Annotations))
	for _, ann := range page.Annotations {
		num := st.alloc()
		st.set(num, st.serializeAnnotation(ann, num))
		annotNums = append(annotNums, num)
	}

	var dict bytes.Buffer
	fmt.Fprintf(&dict, "<</Type/Page/Parent %d 0 R/MediaBox%s", pagesNum, rectString(page.MediaBox))
	if page.Rotate != 0 {
		fmt.Fprintf(&dict, "/Rotate %d", page.Rotate)
	}
	dict.WriteString("/Resources<<")
	if page.Resources != nil {
		if len(page.Resources.Fonts) > 0 {
			dict.WriteString("/Font<<")
			for _, name := range sortedKeys(page.Resources.Fonts) {
				fmt.Fprintf(&dict, "/%s %d 0 R", escapeName(name), fontRefs[page.Resources.Fonts[name]].fontNum)
			}
			dict.WriteString(">>")
		}
		if len(page.Resources.XObjects) > 0 {
			dict.WriteString("/XObject<<")
			for _, name := range sortedKeys(page.Resources.XObjects) {
				fmt.Fprintf(&dict, "/%s %d 0 R", escapeName(name), imageRefs[page.Resources.XObjects[name]])
			}
			dict.WriteString(">>")
		}
		if len(page.Resources.ExtGStates) > 0 {
			dict.WriteString("/ExtGState<<")
			for _, name := range sortedKeys(page.Resources.ExtGStates) {
				gs := page.Resources.ExtGStates[name]
				fmt.Fprintf(&dict, "/%s<</Type/ExtGState", escapeName(name))
				if gs.FillAlpha != nil {
					fmt.Fprintf(&dict, "/ca %s", fmtFloat(*gs.FillAlpha))
				}
				if gs.StrokeAlpha != nil {
					fmt.Fprintf(&dict, "/CA %s", fmtFloat(*gs.StrokeAlpha))
				}
				dict.WriteString(">>")
			}
			dict.WriteString(">>")
		}
	}
	dict.WriteString("/ProcSet[/PDF/Text/ImageB/ImageC]>>")

	var out bytes.Buffer
	out.Write(dict.Bytes())
	if len(contentNums) == 1 {
		fmt.Fprintf(&out, "/Contents %d 0 R", contentNums[0])
	} else if len(contentNums) > 1 {
		out.WriteString("/Contents[")
		for i, n := range contentNums {
			if i > 0 {
				out.WriteByte(' ')
			}
			fmt.Fprintf(&out, "%d 0 R", n)
		}
		out.WriteString("]")
	}
	if len(annotNums) > 0 {
		out.WriteString("/Annots[")
		for i, n := range annotNums {
			if i > 0 {
				out.WriteByte(' ')
			}
			fmt.Fprintf(&out, "%d 0 R", n)
		}
		out.WriteString("]")
	}
	out.WriteString(">>")
	st.set(pageNum, out.Bytes())
	return nil
}

// streamBody builds "<<dict>>stream...endstream" bytes for data, applying
// compression and encryption. extra holds additional dict entries.
func (st *writeState) streamBody(objNum int, data []byte, extra string) []byte {
	filter := ""
	if st.cfg.Compress && len(data) > 64 {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		zw.Write(data)
		zw.Close()
		if buf.Len() < len(data) {
			data = buf.Bytes()
			filter = "/Filter/FlateDecode"
		}
	}
	if st.enc != nil {
		data = st.enc.encrypt(objNum, 0, data)
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "<</Length %d%s%s>>stream\n", len(data), filter, extra)
	out.Write(data)
	out.WriteString("\nendstream")
	return out.Bytes()
}

func (st *writeState) literal(objNum int, s string) string {
	data := textString(s)
	if st.enc != nil {
		data = st.enc.encrypt(objNum, 0, data)
	}
	return "(" + string(escapeString(data)) + ")"
}

func (st *writeState) serializeAnnotation(ann document.Annotation, objNum int) []byte {
	var out bytes.Buffer
	switch a := ann.(type) {
	case *document.HighlightAnnotation:
		fmt.Fprintf(&out, "<</Type/Annot/Subtype/Highlight/Rect%s", rectString(a.Rect))
		if len(a.QuadPoints) > 0 {
			fmt.Fprintf(&out, "/QuadPoints%s", numberArray(a.QuadPoints))
		}
		st.annotCommon(&out, a.BaseAnnotation, objNum)
	case *document.SquareAnnotation:
		fmt.Fprintf(&out, "<</Type/Annot/Subtype/Square/Rect%s", rectString(a.Rect))
		if len(a.Interior) > 0 {
			fmt.Fprintf(&out, "/IC%s", numberArray(a.Interior))
		}
		st.annotCommon(&out, a.BaseAnnotation, objNum)
	case *document.TextAnnotation:
		fmt.Fprintf(&out, "<</Type/Annot/Subtype/Text/Rect%s", rectString(a.Rect))
		if a.Open {
			out.WriteString("/Open true")
		}
		if a.Icon != "" {
			fmt.Fprintf(&out, "/Name/%s", escapeName(a.Icon))
		}
		st.annotCommon(&out, a.BaseAnnotation, objNum)
	default:
		fmt.Fprintf(&out, "<</Type/Annot/Subtype/%s/Rect%s", escapeName(ann.AnnotationType()), rectString(ann.Bounds()))
		out.WriteString(">>")
	}
	return out.Bytes()
}

func (st *writeState) annotCommon(out *bytes.Buffer, base document.BaseAnnotation, objNum int) {
	if len(base.Color) > 0 {
		fmt.Fprintf(out, "/C%s", numberArray(base.Color))
	}
	if base.Opacity > 0 && base.Opacity < 1 {
		fmt.Fprintf(out, "/CA %s", fmtFloat(base.Opacity))
	}
	if base.Contents != "" {
		fmt.Fprintf(out, "/Contents %s", st.literal(objNum, base.Contents))
	}
	if base.Flags != 0 {
		fmt.Fprintf(out, "/F %d", base.Flags)
	}
	out.WriteString(">>")
}

func (st *writeState) serializeInfo(info *document.Info, objNum int) []byte {
	var out bytes.Buffer
	out.WriteString("<<")
	producer := st.cfg.Producer
	if producer == "" {
		producer = "pdfcore"
	}
	write := func(key, val string) {
		if val != "" {
			fmt.Fprintf(&out, "/%s %s", key, st.literal(objNum, val))
		}
	}
	if info != nil {
		write("Title", info.Title)
		write("Author", info.Author)
		write("Subject", info.Subject)
		write("Keywords", info.Keywords)
		write("Creator", info.Creator)
		if info.Producer != "" {
			producer = info.Producer
		}
		write("CreationDate", info.CreationDate)
		write("ModDate", info.ModDate)
	}
	write("Producer", producer)
	out.WriteString(">>")
	return out.Bytes()
}

func (st *writeState) serializeEncrypt() []byte {
	return []byte(fmt.Sprintf(
		"<</Filter/Standard/V 2/R 3/Length 128/P %d/O <%x>/U <%x>>>",
		int32(st.enc.p), st.enc.o, st.enc.u,
	))
}

func (st *writeState) writeFont(font *document.Font, refs *fontObjRefs) error {
	if font.Subtype != "Type0" {
		encoding := font.Encoding
		if encoding == "" {
			encoding = "WinAnsiEncoding"
		}
		st.set(refs.fontNum, []byte(fmt.Sprintf(
			"<</Type/Font/Subtype/%s/BaseFont/%s/Encoding/%s>>",
			escapeName(orDefault(font.Subtype, "Type1")), escapeName(font.BaseFont), escapeName(encoding),
		)))
		return nil
	}
	if font.Descriptor == nil || len(font.Descriptor.FontFile) == 0 {
		return fmt.Errorf("type0 font %s has no embedded program", font.BaseFont)
	}

	st.set(refs.fontNum, []byte(fmt.Sprintf(
		"<</Type/Font/Subtype/Type0/BaseFont/%s/Encoding/Identity-H/DescendantFonts[%d 0 R]/ToUnicode %d 0 R>>",
		escapeName(font.BaseFont), refs.descendantNum, refs.toUnicodeNum,
	)))

	var desc bytes.Buffer
	fmt.Fprintf(&desc, "<</Type/Font/Subtype/CIDFontType2/BaseFont/%s", escapeName(font.BaseFont))
	desc.WriteString("/CIDSystemInfo<</Registry(Adobe)/Ordering(Identity)/Supplement 0>>")
	fmt.Fprintf(&desc, "/DW %d/W%s/CIDToGIDMap/Identity/FontDescriptor %d 0 R>>",
		orInt(font.DefaultW, 1000), widthsArray(font.CIDWidths), refs.descriptorNum)
	st.set(refs.descendantNum, desc.Bytes())

	d := font.Descriptor
	st.set(refs.descriptorNum, []byte(fmt.Sprintf(
		"<</Type/FontDescriptor/FontName/%s/Flags %d/FontBBox[%s %s %s %s]/ItalicAngle %s/Ascent %s/Descent %s/CapHeight %s/StemV %s/FontFile2 %d 0 R>>",
		escapeName(d.FontName), d.Flags,
		fmtFloat(d.FontBBox[0]), fmtFloat(d.FontBBox[1]), fmtFloat(d.FontBBox[2]), fmtFloat(d.FontBBox[3]),
		fmtFloat(d.ItalicAngle), fmtFloat(d.Ascent), fmtFloat(d.Descent), fmtFloat(d.CapHeight), fmtFloat(d.StemV),
		refs.fontFileNum,
	)))

	st.set(refs.fontFileNum, st.streamBody(refs.fontFileNum, d.FontFile, fmt.Sprintf("/Length1 %d", len(d.FontFile))))
	st.set(refs.toUnicodeNum, st.streamBody(refs.toUnicodeNum, toUnicodeCMap(font.ToUnicode), ""))
	return nil
}

func (st *writeState) writeImage(img *document.Image, num int) {
	data := img.Data
	extra := ""
	if img.Filter != "" {
		extra = "/Filter/" + escapeName(img.Filter)
	}
	if img.SMask != nil {
		maskNum := st.alloc()
		st.writeImage(img.SMask, maskNum)
		extra += fmt.Sprintf("/SMask %d 0 R", maskNum)
	}
	cs := img.ColorSpace
	if cs == "" {
		cs = "DeviceRGB"
	}
	bpc := img.BitsPerComponent
	if bpc == 0 {
		bpc = 8
	}
	if st.enc != nil {
		data = st.enc.encrypt(num, 0, data)
	}
	var out bytes.Buffer
	fmt.Fprintf(&out,
		"<</Type/XObject/Subtype/Image/Width %d/Height %d/ColorSpace/%s/BitsPerComponent %d%s/Length %d>>stream\n",
		img.Width, img.Height, escapeName(cs), bpc, extra, len(data))
	out.Write(data)
	out.WriteString("\nendstream")
	st.set(num, out.Bytes())
}

func (st *writeState) emit(w io.Writer, catalogNum, infoNum, encryptNum int) error {
	var out bytes.Buffer
	out.WriteString("%PDF-1.7\n%")
	out.Write([]byte{0xE2, 0xE3, 0xCF, 0xD3})
	out.WriteByte('\n')

	offsets := make(map[int]int)
	for _, num := range st.order {
		body, ok := st.bodies[num]
		if !ok {
			return fmt.Errorf("object %d allocated but never written", num)
		}
		offsets[num] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", num)
		out.Write(body)
		out.WriteString("\nendobj\n")
	}

	xrefOffset := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", st.next+1)
	out.WriteString("0000000000 65535 f \n")
	for num := 1; num <= st.next; num++ {
		fmt.Fprintf(&out, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&out, "trailer\n<</Size %d/Root %d 0 R/Info %d 0 R/ID[<%x><%x>]",
		st.next+1, catalogNum, infoNum, st.fileID, st.fileID)
	if encryptNum != 0 {
		fmt.Fprintf(&out, "/Encrypt %d 0 R", encryptNum)
	}
	fmt.Fprintf(&out, ">>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	_, err := w.Write(out.Bytes())
	return err
}

// widthsArray renders CID widths as a /W array, grouping consecutive CIDs.
func widthsArray(widths map[int]int) string {
	if len(widths) == 0 {
		return "[]"
	}
	cids := make([]int, 0, len(widths))
	for cid := range widths {
		cids = append(cids, cid)
	}
	sort.Ints(cids)

	var out bytes.Buffer
	out.WriteByte('[')
	for i := 0; i < len(cids); {
		start := i
		for i+1 < len(cids) && cids[i+1] == cids[i]+1 && i-start < 63 {
			i++
		}
		fmt.Fprintf(&out, "%d[", cids[start])
		for j := start; j <= i; j++ {
			if j > start {
				out.WriteByte(' ')
			}
			fmt.Fprintf(&out, "%d", widths[cids[j]])
		}
		out.WriteByte(']')
		i++
	}
	out.WriteByte(']')
	return out.String()
}

// toUnicodeCMap renders a ToUnicode CMap stream body from a CID-to-rune map.
func toUnicodeCMap(m map[int][]rune) []byte {
	cids := make([]int, 0, len(m))
	for cid := range m {
		cids = append(cids, cid)
	}
	sort.Ints(cids)

	var out bytes.Buffer
	out.WriteString("/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n")
	out.WriteString("/CIDSystemInfo <</Registry (Adobe) /Ordering (UCS) /Supplement 0>> def\n")
	out.WriteString("/CMapName /Adobe-Identity-UCS def\n/CMapType 2 def\n")
	out.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")
	for i := 0; i < len(cids); i += 100 {
		end := i + 100
		if end > len(cids) {
			end = len(cids)
		}
		fmt.Fprintf(&out, "%d beginbfchar\n", end-i)
		for _, cid := range cids[i:end] {
			fmt.Fprintf(&out, "<%04X> <", cid)
			for _, r := range m[cid] {
				fmt.Fprintf(&out, "%04X", r)
			}
			out.WriteString(">\n")
		}
		out.WriteString("endbfchar\n")
	}
	out.WriteString("endcmap\nCMapName currentdict /CMap defineresource pop\nend\nend\n")
	return out.Bytes()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
