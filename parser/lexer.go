package parser

import (
	"fmt"
	"strconv"
)

// lexer is a recursive-descent reader over the raw file bytes.
type lexer struct {
	data []byte
	pos  int
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isWhitespace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) peek() byte {
	if l.pos < len(l.data) {
		return l.data[l.pos]
	}
	return 0
}

func (l *lexer) match(s string) bool {
	if l.pos+len(s) > len(l.data) {
		return false
	}
	if string(l.data[l.pos:l.pos+len(s)]) != s {
		return false
	}
	l.pos += len(s)
	return true
}

// parseObject reads the next object starting at the current position.
func (l *lexer) parseObject() (Object, error) {
	l.skipWhitespace()
	if l.pos >= len(l.data) {
		return nil, fmt.Errorf("unexpected end of data at offset %d", l.pos)
	}
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
		return l.parseArray()
	case c == ']' || c == '>' || c == ')' || c == '}':
		return nil, fmt.Errorf("unexpected delimiter %q at offset %d", c, l.pos)
	case c == 't':
		if l.match("true") {
			return true, nil
		}
	case c == 'f':
		if l.match("false") {
			return false, nil
		}
	case c == 'n':
		if l.match("null") {
			return nil, nil
		}
	}
	if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
		return l.parseNumberOrRef()
	}
	return nil, fmt.Errorf("unexpected byte %q at offset %d", c, l.pos)
}

func (l *lexer) parseName() (Name, error) {
	l.pos++ // consume '/'
	start := l.pos
	var out []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && l.pos+2 < len(l.data) {
			if v, err := strconv.ParseUint(string(l.data[l.pos+1:l.pos+3]), 16, 8); err == nil {
				if out == nil {
					out = append(out, l.data[start:l.pos]...)
				}
				out = append(out, byte(v))
				l.pos += 3
				continue
			}
		}
		if out != nil {
			out = append(out, c)
		}
		l.pos++
	}
	if out != nil {
		return Name(out), nil
	}
	return Name(l.data[start:l.pos]), nil
}

func (l *lexer) parseLiteralString() (String, error) {
	l.pos++ // consume '('
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch c {
		case '\\':
			l.pos++
			if l.pos >= len(l.data) {
				return nil, fmt.Errorf("unterminated string escape")
			}
			e := l.data[l.pos]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\n':
				// line continuation
			case '\r':
				if l.pos+1 < len(l.data) && l.data[l.pos+1] == '\n' {
					l.pos++
				}
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && l.pos+1 < len(l.data); k++ {
						n := l.data[l.pos+1]
						if n < '0' || n > '7' {
							break
						}
						v = v*8 + int(n-'0')
						l.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
			l.pos++
		case '(':
			depth++
			out = append(out, c)
			l.pos++
		case ')':
			depth--
			l.pos++
			if depth == 0 {
				return String(out), nil
			}
			out = append(out, c)
		default:
			out = append(out, c)
			l.pos++
		}
	}
	return nil, fmt.Errorf("unterminated literal string")
}

func (l *lexer) parseHexString() (String, error) {
	l.pos++ // consume '<'
	var out []byte
	var hi byte
	havePending := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c == '>' {
			l.pos++
			if havePending {
				out = append(out, hi<<4)
			}
			return String(out), nil
		}
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			l.pos++
			continue
		}
		if havePending {
			out = append(out, hi<<4|v)
			havePending = false
		} else {
			hi = v
			havePending = true
		}
		l.pos++
	}
	return nil, fmt.Errorf("unterminated hex string")
}

func (l *lexer) parseArray() (Array, error) {
	l.pos++ // consume '['
	var out Array
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("unterminated array")
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return out, nil
		}
		item, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
}

func (l *lexer) parseDict() (Object, error) {
	l.pos += 2 // consume '<<'
	dict := make(Dict)
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("unterminated dictionary")
		}
		if l.data[l.pos] == '>' {
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
				l.pos += 2
				break
			}
			return nil, fmt.Errorf("malformed dictionary close at offset %d", l.pos)
		}
		if l.data[l.pos] != '/' {
			return nil, fmt.Errorf("expected name key at offset %d", l.pos)
		}
		key, err := l.parseName()
		if err != nil {
			return nil, err
		}
		val, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		dict[string(key)] = val
	}

	// A stream keyword after the dictionary turns it into a stream object.
	save := l.pos
	l.skipWhitespace()
	if l.match("stream") {
		if l.pos < len(l.data) && l.data[l.pos] == '\r' {
			l.pos++
		}
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}
		return &Stream{Dict: dict, Raw: l.data[l.pos:]}, nil
	}
	l.pos = save
	return dict, nil
}

// parseNumberOrRef reads a number, looking ahead for the "N G R" indirect
// reference form.
func (l *lexer) parseNumberOrRef() (Object, error) {
	first, isInt, err := l.parseNumber()
	if err != nil {
		return nil, err
	}
	if !isInt || first.(int64) < 0 {
		return first, nil
	}
	save := l.pos
	l.skipWhitespace()
	c := l.peek()
	if c < '0' || c > '9' {
		l.pos = save
		return first, nil
	}
	second, isInt2, err := l.parseNumber()
	if err != nil || !isInt2 {
		l.pos = save
		return first, nil
	}
	l.skipWhitespace()
	if l.pos < len(l.data) && l.data[l.pos] == 'R' &&
		(l.pos+1 >= len(l.data) || isWhitespace(l.data[l.pos+1]) || isDelimiter(l.data[l.pos+1])) {
		l.pos++
		return Ref{Num: int(first.(int64)), Gen: int(second.(int64))}, nil
	}
	l.pos = save
	return first, nil
}

func (l *lexer) parseNumber() (Object, bool, error) {
	start := l.pos
	if c := l.peek(); c == '+' || c == '-' {
		l.pos++
	}
	isInt := true
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c >= '0' && c <= '9' {
			l.pos++
			continue
		}
		if c == '.' {
			isInt = false
			l.pos++
			continue
		}
		break
	}
	text := string(l.data[start:l.pos])
	if isInt {
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("invalid integer %q at offset %d", text, start)
		}
		return v, true, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, false, fmt.Errorf("invalid number %q at offset %d", text, start)
	}
	return v, false, nil
}
