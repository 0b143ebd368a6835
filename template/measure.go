package template

import "strings"

// heightOf returns the vertical space el will consume when rendered at
// the given width, including its margins. Rendering an element at the
// same width consumes exactly this height; the page-break decisions in
// the body flow depend on that symmetry.
func (e *Engine) heightOf(el Element, width float64, data map[string]interface{}) float64 {
	var h float64
	switch el.Type {
	case TypeText:
		size := e.fontSize(el)
		lines := e.wrapText(Resolve(el.Text, data), e.fontName(el), size, width)
		h = float64(len(lines)) * size * lineFactor
	case TypeImage:
		h = el.Height
	case TypeLine:
		h = el.Thickness
		if h <= 0 {
			h = 1
		}
	case TypeSpacer, TypeRect:
		h = el.Height
	case TypeColumns:
		widths := columnWidths(el, width)
		for i, col := range el.Columns {
			var colH float64
			for _, child := range col.Elements {
				colH += e.heightOf(child, widths[i], data)
			}
			if colH > h {
				h = colH
			}
		}
	case TypeTable:
		rows := ResolveArray(el.DataKey, data)
		h = e.tableHeaderHeight(el) + e.tableRowHeight(el)*float64(len(rows))
	case TypeKeyValue:
		h = float64(len(el.Entries)) * e.keyValueRowHeight(el)
	}
	return h + el.MarginTop + el.MarginBottom
}

func (e *Engine) fontName(el Element) string {
	if el.Font != "" {
		return el.Font
	}
	return e.DefaultFont
}

func (e *Engine) fontSize(el Element) float64 {
	if el.FontSize > 0 {
		return el.FontSize
	}
	return e.DefaultFontSize
}

func (e *Engine) tableRowHeight(el Element) float64 {
	if el.RowHeight > 0 {
		return el.RowHeight
	}
	return e.fontSize(el) * lineFactor * 1.5
}

func (e *Engine) tableHeaderHeight(el Element) float64 {
	if el.HeaderHeight > 0 {
		return el.HeaderHeight
	}
	return e.tableRowHeight(el)
}

func (e *Engine) keyValueRowHeight(el Element) float64 {
	label := el.LabelFontSize
	if label <= 0 {
		label = e.DefaultFontSize
	}
	value := el.ValueFontSize
	if value <= 0 {
		value = e.DefaultFontSize
	}
	size := label
	if value > size {
		size = value
	}
	return size*lineFactor + el.LineSpacing
}

// columnWidths splits width among the columns by proportional weight,
// after reserving the inter-column gaps.
func columnWidths(el Element, width float64) []float64 {
	n := len(el.Columns)
	if n == 0 {
		return nil
	}
	usable := width - el.Gap*float64(n-1)
	if usable < 0 {
		usable = 0
	}
	var total float64
	for _, col := range el.Columns {
		w := col.Weight
		if w <= 0 {
			w = 1
		}
		total += w
	}
	out := make([]float64, n)
	for i, col := range el.Columns {
		w := col.Weight
		if w <= 0 {
			w = 1
		}
		out[i] = usable * w / total
	}
	return out
}

// tableColumnWidths splits width among table columns by weight.
func tableColumnWidths(cols []TableColumn, width float64) []float64 {
	n := len(cols)
	if n == 0 {
		return nil
	}
	var total float64
	for _, c := range cols {
		w := c.Weight
		if w <= 0 {
			w = 1
		}
		total += w
	}
	out := make([]float64, n)
	for i, c := range cols {
		w := c.Weight
		if w <= 0 {
			w = 1
		}
		out[i] = width * w / total
	}
	return out
}

// wrapText breaks text into lines that fit width with a greedy word
// wrap. Words wider than the line get a line of their own and overflow
// to the right rather than splitting.
func (e *Engine) wrapText(text, font string, size, width float64) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	spaceW := e.b.MeasureText(" ", size, font)
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		curW := e.b.MeasureText(words[0], size, font)
		for _, word := range words[1:] {
			w := e.b.MeasureText(word, size, font)
			if curW+spaceW+w > width {
				lines = append(lines, cur)
				cur, curW = word, w
				continue
			}
			cur += " " + word
			curW += spaceW + w
		}
		lines = append(lines, cur)
	}
	return lines
}
