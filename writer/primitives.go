package writer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/documint/pdfcore/document"
)

// fmtFloat renders a float the way PDF expects: plain decimal, no
// exponent, trailing zeros trimmed.
func fmtFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// escapeString escapes a literal PDF string body.
func escapeString(data []byte) []byte {
	var out bytes.Buffer
	for _, b := range data {
		switch b {
		case '\\', '(', ')':
			out.WriteByte('\\')
			out.WriteByte(b)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		default:
			out.WriteByte(b)
		}
	}
	return out.Bytes()
}

// escapeName escapes a PDF name per the #xx convention.
func escapeName(name string) string {
	var out strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= ' ' || c > '~' || strings.IndexByte("()<>[]{}/%#", c) >= 0 {
			fmt.Fprintf(&out, "#%02X", c)
		} else {
			out.WriteByte(c)
		}
	}
	return out.String()
}

// textString encodes an info/annotation string: ASCII stays literal,
// anything else becomes UTF-16BE with a BOM.
func textString(s string) []byte {
	ascii := true
	for _, r := range s {
		if r > 0x7E {
			ascii = false
			break
		}
	}
	if ascii {
		return []byte(s)
	}
	enc := utf16.Encode([]rune(s))
	out := make([]byte, 0, 2+len(enc)*2)
	out = append(out, 0xFE, 0xFF)
	for _, u := range enc {
		out = append(out, byte(u>>8), byte(u))
	}
	return out
}

// serializeOperations renders content operations into stream bytes.
func serializeOperations(ops []document.Operation) []byte {
	var out bytes.Buffer
	for _, op := range ops {
		for _, operand := range op.Operands {
			writeOperand(&out, operand)
			out.WriteByte(' ')
		}
		out.WriteString(op.Operator)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

func writeOperand(out *bytes.Buffer, o document.Operand) {
	switch v := o.(type) {
	case document.NumberOperand:
		out.WriteString(fmtFloat(v.Value))
	case document.NameOperand:
		out.WriteByte('/')
		out.WriteString(escapeName(v.Value))
	case document.StringOperand:
		out.WriteByte('(')
		out.Write(escapeString(v.Value))
		out.WriteByte(')')
	case document.ArrayOperand:
		out.WriteByte('[')
		for i, item := range v.Values {
			if i > 0 {
				out.WriteByte(' ')
			}
			writeOperand(out, item)
		}
		out.WriteByte(']')
	}
}

func rectString(r document.Rectangle) string {
	return fmt.Sprintf("[%s %s %s %s]", fmtFloat(r.LLX), fmtFloat(r.LLY), fmtFloat(r.URX), fmtFloat(r.URY))
}

func numberArray(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmtFloat(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
