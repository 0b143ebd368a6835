package extractor

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/documint/pdfcore/fonts"
	"github.com/documint/pdfcore/parser"
)

// fontDecoder maps string-operand bytes of one resource font to decoded
// glyphs with widths in text space (units of 1/1000 em).
type fontDecoder struct {
	name      string // resource name, e.g. F1
	baseFont  string
	type0     bool
	firstChar int
	widths    []float64
	cidWidths map[int]float64
	defaultW  float64
	toUni     map[int]string
}

// glyph is one decoded code from a show-text operand.
type glyph struct {
	text  string
	width float64 // 1/1000 em
}

func (d *Document) fontsForPage(page parser.PageRef) map[string]*fontDecoder {
	if page.Resources == nil {
		return nil
	}
	fontDict, ok := d.file.Resolve(page.Resources["Font"]).(parser.Dict)
	if !ok {
		return nil
	}
	out := make(map[string]*fontDecoder, len(fontDict))
	for name, obj := range fontDict {
		if ref, isRef := obj.(parser.Ref); isRef {
			if cached, hit := d.fonts[ref]; hit {
				out[name] = cached
				continue
			}
			fd := d.loadFont(name, d.file.Resolve(ref))
			d.fonts[ref] = fd
			out[name] = fd
			continue
		}
		out[name] = d.loadFont(name, d.file.Resolve(obj))
	}
	return out
}

func (d *Document) loadFont(name string, obj parser.Object) *fontDecoder {
	dict, ok := obj.(parser.Dict)
	if !ok {
		return &fontDecoder{name: name, defaultW: 500}
	}
	fd := &fontDecoder{name: name, defaultW: 500}
	if bf, ok := d.file.Resolve(dict["BaseFont"]).(parser.Name); ok {
		fd.baseFont = strings.TrimPrefix(string(bf), "/")
		// Subset prefixes look like ABCDEF+Helvetica.
		if plus := strings.IndexByte(fd.baseFont, '+'); plus == 6 {
			fd.baseFont = fd.baseFont[plus+1:]
		}
	}
	subtype, _ := d.file.Resolve(dict["Subtype"]).(parser.Name)

	if subtype == "Type0" {
		fd.type0 = true
		fd.defaultW = 1000
		if desc, ok := d.file.Resolve(dict["DescendantFonts"]).(parser.Array); ok && len(desc) > 0 {
			if cid, ok := d.file.Resolve(desc[0]).(parser.Dict); ok {
				if dw, ok := parser.Float(d.file.Resolve(cid["DW"])); ok {
					fd.defaultW = dw
				}
				fd.cidWidths = d.cidWidths(cid["W"])
			}
		}
	} else {
		if fc, ok := parser.Int(d.file.Resolve(dict["FirstChar"])); ok {
			fd.firstChar = int(fc)
		}
		if arr, ok := d.file.Resolve(dict["Widths"]).(parser.Array); ok {
			fd.widths = make([]float64, len(arr))
			for i, item := range arr {
				fd.widths[i], _ = parser.Float(d.file.Resolve(item))
			}
		}
	}

	if stm, ok := d.file.Resolve(dict["ToUnicode"]).(*parser.Stream); ok {
		if data, err := d.file.StreamData(stm); err == nil {
			fd.toUni = parseToUnicodeCMap(data)
		}
	}
	return fd
}

// cidWidths flattens the /W array. Entries are either "c [w1 w2 ...]" or
// "cFirst cLast w".
func (d *Document) cidWidths(obj parser.Object) map[int]float64 {
	arr, ok := d.file.Resolve(obj).(parser.Array)
	if !ok {
		return nil
	}
	out := make(map[int]float64)
	for i := 0; i < len(arr); {
		first, ok := parser.Int(d.file.Resolve(arr[i]))
		if !ok || i+1 >= len(arr) {
			break
		}
		switch next := d.file.Resolve(arr[i+1]).(type) {
		case parser.Array:
			for j, wObj := range next {
				if w, ok := parser.Float(d.file.Resolve(wObj)); ok {
					out[int(first)+j] = w
				}
			}
			i += 2
		default:
			last, ok1 := parser.Int(next)
			if !ok1 || i+2 >= len(arr) {
				return out
			}
			w, _ := parser.Float(d.file.Resolve(arr[i+2]))
			for c := first; c <= last; c++ {
				out[int(c)] = w
			}
			i += 3
		}
	}
	return out
}

// decode splits the raw bytes of a show-text operand into glyphs.
func (fd *fontDecoder) decode(data []byte) []glyph {
	if fd == nil {
		out := make([]glyph, 0, len(data))
		for _, b := range data {
			out = append(out, glyph{text: string(rune(b)), width: 500})
		}
		return out
	}
	if fd.type0 {
		out := make([]glyph, 0, len(data)/2)
		for i := 0; i+1 < len(data); i += 2 {
			code := int(data[i])<<8 | int(data[i+1])
			out = append(out, glyph{text: fd.textFor(code), width: fd.widthFor(code)})
		}
		return out
	}
	out := make([]glyph, 0, len(data))
	for _, b := range data {
		out = append(out, glyph{text: fd.textFor(int(b)), width: fd.widthFor(int(b))})
	}
	return out
}

func (fd *fontDecoder) textFor(code int) string {
	if txt, ok := fd.toUni[code]; ok {
		return txt
	}
	if fd.type0 {
		// No ToUnicode and no meaningful byte interpretation.
		return ""
	}
	return string(rune(code))
}

func (fd *fontDecoder) widthFor(code int) float64 {
	if fd.type0 {
		if w, ok := fd.cidWidths[code]; ok {
			return w
		}
		return fd.defaultW
	}
	idx := code - fd.firstChar
	if idx >= 0 && idx < len(fd.widths) && fd.widths[idx] > 0 {
		return fd.widths[idx]
	}
	if fonts.IsCoreFont(fd.baseFont) {
		return float64(fonts.CoreWidth(fd.baseFont, rune(code)))
	}
	return fd.defaultW
}

// parseToUnicodeCMap reads bfchar and bfrange sections of a ToUnicode
// CMap into a code-to-text table.
func parseToUnicodeCMap(data []byte) map[int]string {
	out := make(map[int]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	state := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		switch {
		case strings.HasSuffix(line, "beginbfchar"):
			state = "bfchar"
			continue
		case strings.HasSuffix(line, "beginbfrange"):
			state = "bfrange"
			continue
		case strings.HasSuffix(line, "endbfchar"), strings.HasSuffix(line, "endbfrange"):
			state = ""
			continue
		}
		switch state {
		case "bfchar":
			hexes := hexTokens(line)
			if len(hexes) >= 2 {
				out[bytesToInt(hexToBytes(hexes[0]))] = decodeUTF16BE(hexToBytes(hexes[1]))
			}
		case "bfrange":
			line = readUntilBracketClose(line, sc)
			hexes := hexTokens(line)
			if len(hexes) < 3 {
				continue
			}
			start := bytesToInt(hexToBytes(hexes[0]))
			end := bytesToInt(hexToBytes(hexes[1]))
			if strings.Contains(line, "[") {
				for i := 0; start+i <= end && 2+i < len(hexes); i++ {
					out[start+i] = decodeUTF16BE(hexToBytes(hexes[2+i]))
				}
			} else {
				dst := hexToBytes(hexes[2])
				base := bytesToInt(dst)
				for i := 0; start+i <= end; i++ {
					out[start+i] = decodeUTF16BE(intToBytes(base+i, len(dst)))
				}
			}
		}
	}
	return out
}

// readUntilBracketClose joins continuation lines of a bracketed bfrange
// destination list.
func readUntilBracketClose(line string, sc *bufio.Scanner) string {
	if !strings.Contains(line, "[") || strings.Contains(line, "]") {
		return line
	}
	for sc.Scan() {
		next := strings.TrimSpace(sc.Text())
		line += " " + next
		if strings.Contains(next, "]") {
			break
		}
	}
	return line
}

func hexTokens(line string) []string {
	var out []string
	for {
		start := strings.IndexByte(line, '<')
		if start < 0 {
			return out
		}
		end := strings.IndexByte(line[start+1:], '>')
		if end < 0 {
			return out
		}
		out = append(out, strings.ReplaceAll(line[start+1:start+1+end], " ", ""))
		line = line[start+end+2:]
	}
}

func hexToBytes(hex string) []byte {
	if len(hex)%2 == 1 {
		hex += "0"
	}
	out := make([]byte, len(hex)/2)
	for i := 0; i < len(hex); i += 2 {
		out[i/2] = hexNibble(hex[i])<<4 | hexNibble(hex[i+1])
	}
	return out
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func bytesToInt(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

func intToBytes(v, length int) []byte {
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}
