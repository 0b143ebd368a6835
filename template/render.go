package template

import (
	"fmt"

	"github.com/documint/pdfcore/builder"
	"github.com/documint/pdfcore/observability"
)

// renderContext is the single mutable state of one generation run. It is
// threaded by pointer through every render call and never copied.
// cursorY grows downward within a page and resets to contentTop when a
// page starts.
type renderContext struct {
	e    *Engine
	def  *Definition
	data map[string]interface{}
	cfg  PageConfig

	page      builder.PageBuilder
	pageCount int
	cursorY   float64

	left          float64
	contentW      float64
	contentTop    float64
	contentBottom float64
}

func (e *Engine) newRenderContext(def *Definition, data map[string]interface{}) *renderContext {
	cfg := pageGeometry(def.Page)
	rc := &renderContext{
		e:        e,
		def:      def,
		data:     data,
		cfg:      cfg,
		left:     cfg.MarginLeft,
		contentW: cfg.Width - cfg.MarginLeft - cfg.MarginRight,
	}
	var headerH, footerH float64
	for _, el := range def.Header {
		headerH += e.heightOf(el, rc.contentW, data)
	}
	for _, el := range def.Footer {
		footerH += e.heightOf(el, rc.contentW, data)
	}
	rc.contentTop = cfg.MarginTop + headerH
	rc.contentBottom = cfg.Height - cfg.MarginBottom - footerH
	return rc
}

// startPage opens a new page, draws the fixed header and footer, and
// resets the cursor to the top of the body area.
func (rc *renderContext) startPage() {
	rc.page = rc.e.b.NewPage(rc.cfg.Width, rc.cfg.Height)
	rc.pageCount++

	y := rc.cfg.MarginTop
	for _, el := range rc.def.Header {
		h := rc.e.heightOf(el, rc.contentW, rc.data)
		if err := rc.e.renderElement(rc, el, rc.left, y, rc.contentW); err != nil {
			rc.e.log.Warn("header element skipped", observability.Error("err", err))
		}
		y += h
	}
	y = rc.contentBottom
	for _, el := range rc.def.Footer {
		h := rc.e.heightOf(el, rc.contentW, rc.data)
		if err := rc.e.renderElement(rc, el, rc.left, y, rc.contentW); err != nil {
			rc.e.log.Warn("footer element skipped", observability.Error("err", err))
		}
		y += h
	}
	rc.cursorY = rc.contentTop
}

// ensureSpace breaks the page when height does not fit above
// contentBottom. Only the top-level body flow calls it.
func (rc *renderContext) ensureSpace(height float64) {
	if rc.cursorY+height > rc.contentBottom {
		rc.startPage()
	}
}

// renderBodyElement lays out one top-level element, paginating as
// needed. Tables split across pages; every other element reserves its
// full measured height up front.
func (e *Engine) renderBodyElement(rc *renderContext, el Element) {
	if el.Type == TypeTable {
		e.renderTableFlow(rc, el)
		return
	}
	h := e.heightOf(el, rc.contentW, rc.data)
	rc.ensureSpace(h)
	if err := e.renderElement(rc, el, rc.left, rc.cursorY, rc.contentW); err != nil {
		// Best effort: a bad element leaves its gap but never aborts
		// the run.
		e.log.Warn("element skipped",
			observability.String("type", el.Type),
			observability.Error("err", err))
	}
	rc.cursorY += h
}

// renderElement draws el with its top-left corner at (x, y) in top-down
// page coordinates. It never breaks pages; the caller has already
// reserved the element's measured height.
func (e *Engine) renderElement(rc *renderContext, el Element, x, y, width float64) error {
	y += el.MarginTop
	switch el.Type {
	case TypeText:
		return e.renderText(rc, el, x, y, width)
	case TypeImage:
		return e.renderImage(rc, el, x, y, width)
	case TypeLine:
		thickness := el.Thickness
		if thickness <= 0 {
			thickness = 1
		}
		color := e.colorOf(el.Color, builder.Color{})
		mid := y + thickness/2
		rc.page.DrawLine(x, rc.cfg.Height-mid, x+width, rc.cfg.Height-mid, builder.LineOptions{
			StrokeColor: color,
			LineWidth:   thickness,
		})
	case TypeSpacer:
		// Vertical gap only.
	case TypeRect:
		w := el.Width
		if w <= 0 || w > width {
			w = width
		}
		fill := e.colorOf(el.FillColor, builder.Color{R: 0.9, G: 0.9, B: 0.9})
		rc.page.DrawRectangle(x, rc.cfg.Height-y-el.Height, w, el.Height, builder.RectOptions{
			FillColor: fill,
			Fill:      true,
		})
	case TypeColumns:
		widths := columnWidths(el, width)
		cx := x
		for i, col := range el.Columns {
			cy := y
			for _, child := range col.Elements {
				h := e.heightOf(child, widths[i], rc.data)
				if err := e.renderElement(rc, child, cx, cy, widths[i]); err != nil {
					e.log.Warn("column element skipped",
						observability.String("type", child.Type),
						observability.Error("err", err))
				}
				cy += h
			}
			cx += widths[i] + el.Gap
		}
	case TypeTable:
		// Inside columns a table renders in one piece and may overflow
		// the page bottom; only the body flow splits tables.
		y = e.renderTableHeader(rc, el, x, y, width)
		rowH := e.tableRowHeight(el)
		for _, row := range ResolveArray(el.DataKey, rc.data) {
			e.renderTableRow(rc, el, row, x, y, width)
			y += rowH
		}
	case TypeKeyValue:
		e.renderKeyValue(rc, el, x, y, width)
	default:
		return fmt.Errorf("unknown element type %q", el.Type)
	}
	return nil
}

func (e *Engine) renderText(rc *renderContext, el Element, x, y, width float64) error {
	font := e.fontName(el)
	size := e.fontSize(el)
	color := e.colorOf(el.Color, builder.Color{})
	lines := e.wrapText(Resolve(el.Text, rc.data), font, size, width)
	for i, line := range lines {
		lx := x
		if el.Align == "center" || el.Align == "right" {
			lw := e.b.MeasureText(line, size, font)
			if el.Align == "center" {
				lx = x + (width-lw)/2
			} else {
				lx = x + width - lw
			}
		}
		top := y + float64(i)*size*lineFactor
		rc.page.DrawText(line, lx, rc.cfg.Height-top-size, builder.TextOptions{
			Font:     font,
			FontSize: size,
			Color:    color,
		})
	}
	return nil
}

func (e *Engine) renderImage(rc *renderContext, el Element, x, y, width float64) error {
	if el.Height <= 0 {
		return fmt.Errorf("image element needs an explicit height")
	}
	img, err := e.loadImage(Resolve(el.Source, rc.data))
	if err != nil {
		return err
	}
	w := el.Width
	if w <= 0 {
		// Keep the source aspect ratio.
		w = el.Height * float64(img.Width) / float64(img.Height)
	}
	if w > width {
		w = width
	}
	ix := x
	switch el.Align {
	case "center":
		ix = x + (width-w)/2
	case "right":
		ix = x + width - w
	}
	rc.page.DrawImage(img, ix, rc.cfg.Height-y-el.Height, w, el.Height)
	return nil
}

// renderTableFlow renders a table in the body flow, splitting rows
// across pages and redrawing the header row after every break.
func (e *Engine) renderTableFlow(rc *renderContext, el Element) {
	rows := ResolveArray(el.DataKey, rc.data)
	headerH := e.tableHeaderHeight(el)
	rowH := e.tableRowHeight(el)

	rc.ensureSpace(el.MarginTop + headerH + rowH)
	rc.cursorY += el.MarginTop
	rc.cursorY = e.renderTableHeader(rc, el, rc.left, rc.cursorY, rc.contentW)
	for _, row := range rows {
		if rc.cursorY+rowH > rc.contentBottom {
			rc.startPage()
			rc.cursorY = e.renderTableHeader(rc, el, rc.left, rc.cursorY, rc.contentW)
		}
		e.renderTableRow(rc, el, row, rc.left, rc.cursorY, rc.contentW)
		rc.cursorY += rowH
	}
	rc.cursorY += el.MarginBottom
}

// renderTableHeader draws the header row at y and returns the y below it.
func (e *Engine) renderTableHeader(rc *renderContext, el Element, x, y, width float64) float64 {
	headerH := e.tableHeaderHeight(el)
	size := e.fontSize(el)
	font := e.fontName(el)
	widths := tableColumnWidths(el.TableColumns, width)

	rc.page.DrawRectangle(x, rc.cfg.Height-y-headerH, width, headerH, builder.RectOptions{
		FillColor: builder.Color{R: 0.88, G: 0.88, B: 0.88},
		Fill:      true,
	})
	cx := x
	textY := y + (headerH-size*lineFactor)/2
	for i, col := range el.TableColumns {
		rc.page.DrawText(Resolve(col.Header, rc.data), cx+2, rc.cfg.Height-textY-size, builder.TextOptions{
			Font:     boldVariant(font),
			FontSize: size,
			Color:    builder.Color{},
		})
		cx += widths[i]
	}
	return y + headerH
}

func (e *Engine) renderTableRow(rc *renderContext, el Element, row interface{}, x, y, width float64) {
	rowH := e.tableRowHeight(el)
	size := e.fontSize(el)
	font := e.fontName(el)
	widths := tableColumnWidths(el.TableColumns, width)

	cx := x
	textY := y + (rowH-size*lineFactor)/2
	for i, col := range el.TableColumns {
		rc.page.DrawText(fieldOf(row, col.Key), cx+2, rc.cfg.Height-textY-size, builder.TextOptions{
			Font:     font,
			FontSize: size,
			Color:    builder.Color{},
		})
		cx += widths[i]
	}
	lineY := y + rowH
	rc.page.DrawLine(x, rc.cfg.Height-lineY, x+width, rc.cfg.Height-lineY, builder.LineOptions{
		StrokeColor: builder.Color{R: 0.7, G: 0.7, B: 0.7},
		LineWidth:   0.5,
	})
}

func (e *Engine) renderKeyValue(rc *renderContext, el Element, x, y, width float64) {
	labelSize := el.LabelFontSize
	if labelSize <= 0 {
		labelSize = e.DefaultFontSize
	}
	valueSize := el.ValueFontSize
	if valueSize <= 0 {
		valueSize = e.DefaultFontSize
	}
	font := e.fontName(el)
	rowH := e.keyValueRowHeight(el)
	valueX := x + width*0.4

	for i, entry := range el.Entries {
		top := y + float64(i)*rowH
		rc.page.DrawText(Resolve(entry.Label, rc.data), x, rc.cfg.Height-top-labelSize, builder.TextOptions{
			Font:     boldVariant(font),
			FontSize: labelSize,
			Color:    builder.Color{},
		})
		rc.page.DrawText(Resolve(entry.Value, rc.data), valueX, rc.cfg.Height-top-valueSize, builder.TextOptions{
			Font:     font,
			FontSize: valueSize,
			Color:    builder.Color{},
		})
	}
}

// colorOf parses a hex color, falling back when empty or malformed.
func (e *Engine) colorOf(hex string, fallback builder.Color) builder.Color {
	if hex == "" {
		return fallback
	}
	c, err := builder.ParseHexColor(hex)
	if err != nil {
		e.log.Warn("bad color, using fallback", observability.String("color", hex))
		return fallback
	}
	return c
}

// boldVariant maps a core font name to its bold face. Unknown fonts keep
// their regular face.
func boldVariant(font string) string {
	switch font {
	case "Helvetica":
		return "Helvetica-Bold"
	case "Times-Roman":
		return "Times-Bold"
	case "Courier":
		return "Courier-Bold"
	}
	return font
}
