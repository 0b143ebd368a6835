package parser

import "fmt"

// ContentOp is one content-stream operator with its operands.
type ContentOp struct {
	Operator string
	Operands []Object
}

// ParseContent tokenizes a decoded content stream into operator calls.
// Inline images (BI..EI) are skipped wholesale; their pixel data obeys no
// object syntax.
func ParseContent(data []byte) ([]ContentOp, error) {
	l := &lexer{data: data}
	var ops []ContentOp
	var operands []Object
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return ops, nil
		}
		c := l.data[l.pos]
		if c == '/' || c == '(' || c == '<' || c == '[' ||
			c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
			obj, err := l.parseContentOperand()
			if err != nil {
				return nil, err
			}
			operands = append(operands, obj)
			continue
		}
		op, err := l.parseOperator()
		if err != nil {
			return nil, err
		}
		if op == "BI" {
			if err := l.skipInlineImage(); err != nil {
				return nil, err
			}
			operands = operands[:0]
			continue
		}
		ops = append(ops, ContentOp{Operator: op, Operands: operands})
		operands = nil
	}
}

// parseContentOperand reads one operand. Content streams never hold
// indirect references, so bare numbers stay numbers.
func (l *lexer) parseContentOperand() (Object, error) {
	c := l.data[l.pos]
	switch {
	case c == '/':
		return l.parseName()
	case c == '(':
		return l.parseLiteralString()
	case c == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			return l.parseDict()
		}
		return l.parseHexString()
	case c == '[':
		return l.parseContentArray()
	}
	obj, _, err := l.parseNumber()
	return obj, err
}

func (l *lexer) parseContentArray() (Array, error) {
	l.pos++ // consume '['
	var out Array
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("unterminated array in content stream")
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return out, nil
		}
		item, err := l.parseContentOperand()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
}

func (l *lexer) parseOperator() (string, error) {
	start := l.pos
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		l.pos++
	}
	if l.pos == start {
		return "", fmt.Errorf("unexpected byte %q at offset %d", l.data[l.pos], l.pos)
	}
	return string(l.data[start:l.pos]), nil
}

// skipInlineImage advances past the binary payload of a BI..EI image.
func (l *lexer) skipInlineImage() error {
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == 'E' && l.data[l.pos+1] == 'I' &&
			(l.pos == 0 || isWhitespace(l.data[l.pos-1])) &&
			(l.pos+2 >= len(l.data) || isWhitespace(l.data[l.pos+2]) || isDelimiter(l.data[l.pos+2])) {
			l.pos += 2
			return nil
		}
		l.pos++
	}
	return fmt.Errorf("unterminated inline image")
}
