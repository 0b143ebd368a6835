package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/documint/pdfcore/builder"
	"github.com/documint/pdfcore/document"
)

// fakeBuilder records draw calls per page. Text is measured at half a
// point per character per size unit, so widths are deterministic without
// real font metrics.
type fakeBuilder struct {
	pages []*fakePage
}

type textCall struct {
	text string
	x, y float64
	opts builder.TextOptions
}

type fakePage struct {
	b     *fakeBuilder
	texts []textCall
	rects int
	lines int
}

func (f *fakeBuilder) NewPage(width, height float64) builder.PageBuilder {
	p := &fakePage{b: f}
	f.pages = append(f.pages, p)
	return p
}

func (f *fakeBuilder) SetInfo(info *document.Info) builder.PDFBuilder { return f }
func (f *fakeBuilder) SetEncryption(o, u string, p document.Permissions) builder.PDFBuilder {
	return f
}
func (f *fakeBuilder) RegisterTrueTypeFont(name string, data []byte) builder.PDFBuilder { return f }

func (f *fakeBuilder) MeasureText(text string, size float64, fontName string) float64 {
	return float64(len([]rune(text))) * size * 0.5
}

func (f *fakeBuilder) Build() (*document.Document, error) { return &document.Document{}, nil }

func (p *fakePage) DrawText(text string, x, y float64, opts builder.TextOptions) builder.PageBuilder {
	p.texts = append(p.texts, textCall{text: text, x: x, y: y, opts: opts})
	return p
}

func (p *fakePage) DrawRectangle(x, y, w, h float64, opts builder.RectOptions) builder.PageBuilder {
	p.rects++
	return p
}

func (p *fakePage) DrawLine(x1, y1, x2, y2 float64, opts builder.LineOptions) builder.PageBuilder {
	p.lines++
	return p
}

func (p *fakePage) DrawImage(img *document.Image, x, y, w, h float64) builder.PageBuilder {
	return p
}

func (p *fakePage) AddAnnotation(ann document.Annotation) builder.PageBuilder { return p }
func (p *fakePage) SetRotation(degrees int) builder.PageBuilder              { return p }
func (p *fakePage) Finish() builder.PDFBuilder                               { return p.b }

func testPage() PageConfig {
	return PageConfig{
		Width: 400, Height: 200,
		MarginTop: 20, MarginBottom: 20, MarginLeft: 20, MarginRight: 20,
	}
}

// Rendering an element must advance the cursor by exactly its measured
// height; page-break decisions depend on the two agreeing.
func TestRenderAdvancesCursorByMeasuredHeight(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)
	data := map[string]interface{}{"name": "World"}
	def := &Definition{Page: testPage()}

	elements := []Element{
		{Type: TypeText, Text: "Hello {{name}} with a few words to wrap across lines", MarginBottom: 4},
		{Type: TypeSpacer, Height: 30},
		{Type: TypeRect, Height: 25, MarginTop: 3},
		{Type: TypeLine, Thickness: 2},
		{Type: TypeKeyValue, Entries: []Entry{{Label: "A", Value: "1"}, {Label: "B", Value: "2"}}},
	}

	rc := e.newRenderContext(def, data)
	rc.startPage()
	for _, el := range elements {
		before := rc.cursorY
		h := e.heightOf(el, rc.contentW, data)
		e.renderBodyElement(rc, el)
		assert.InDelta(t, h, rc.cursorY-before, 1e-9, "element type %s", el.Type)
	}
}

// A failing element leaves its measured gap; later elements keep their
// positions and the run completes.
func TestRenderSkipsFailingElementButKeepsGap(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)
	def := &Definition{Page: testPage()}

	bad := Element{Type: TypeImage, Source: "no-such-file.png", Height: 40}
	rc := e.newRenderContext(def, nil)
	rc.startPage()

	before := rc.cursorY
	e.renderBodyElement(rc, bad)
	assert.InDelta(t, 40, rc.cursorY-before, 1e-9)

	e.renderBodyElement(rc, Element{Type: TypeText, Text: "still here"})
	require.Len(t, fb.pages, 1)
	require.Len(t, fb.pages[0].texts, 1)
	assert.Equal(t, "still here", fb.pages[0].texts[0].text)
}

func TestGeneratePaginatesBody(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)

	// Content area is 160pt tall; four 50pt spacers need two pages.
	def := &Definition{Page: testPage()}
	for i := 0; i < 4; i++ {
		def.Body = append(def.Body, Element{Type: TypeSpacer, Height: 50})
	}

	_, err := e.Generate(context.Background(), def, nil)
	require.NoError(t, err)
	assert.Len(t, fb.pages, 2)
}

func TestGenerateHeaderFooterOnEveryPage(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)

	def := &Definition{
		Page:   testPage(),
		Header: []Element{{Type: TypeText, Text: "HEADER"}},
		Footer: []Element{{Type: TypeText, Text: "FOOTER"}},
	}
	for i := 0; i < 5; i++ {
		def.Body = append(def.Body, Element{Type: TypeSpacer, Height: 60})
	}

	_, err := e.Generate(context.Background(), def, nil)
	require.NoError(t, err)
	require.Greater(t, len(fb.pages), 1)

	for i, page := range fb.pages {
		var header, footer int
		for _, call := range page.texts {
			switch call.text {
			case "HEADER":
				header++
			case "FOOTER":
				footer++
			}
		}
		assert.Equal(t, 1, header, "page %d", i+1)
		assert.Equal(t, 1, footer, "page %d", i+1)
	}
}

func TestTableSplitsAndRepeatsHeader(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)

	rows := make([]interface{}, 5)
	for i := range rows {
		rows[i] = map[string]interface{}{"name": "item"}
	}
	data := map[string]interface{}{"items": rows}

	def := &Definition{
		Page: testPage(),
		Body: []Element{{
			Type:         TypeTable,
			DataKey:      "items",
			RowHeight:    40,
			HeaderHeight: 40,
			TableColumns: []TableColumn{{Header: "Name", Key: "name"}},
		}},
	}

	_, err := e.Generate(context.Background(), def, data)
	require.NoError(t, err)
	require.Len(t, fb.pages, 2)

	headerCount := func(p *fakePage) int {
		n := 0
		for _, call := range p.texts {
			if call.text == "Name" {
				n++
			}
		}
		return n
	}
	rowCount := func(p *fakePage) int {
		n := 0
		for _, call := range p.texts {
			if call.text == "item" {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, headerCount(fb.pages[0]))
	assert.Equal(t, 1, headerCount(fb.pages[1]))
	assert.Equal(t, 5, rowCount(fb.pages[0])+rowCount(fb.pages[1]))
}

func TestTableHeaderUsesBoldFace(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)

	data := map[string]interface{}{
		"items": []interface{}{map[string]interface{}{"name": "x"}},
	}
	def := &Definition{
		Page: testPage(),
		Body: []Element{{
			Type:         TypeTable,
			DataKey:      "items",
			TableColumns: []TableColumn{{Header: "Name", Key: "name"}},
		}},
	}

	_, err := e.Generate(context.Background(), def, data)
	require.NoError(t, err)
	require.Len(t, fb.pages, 1)

	for _, call := range fb.pages[0].texts {
		if call.text == "Name" {
			assert.Equal(t, "Helvetica-Bold", call.opts.Font)
		}
		if call.text == "x" {
			assert.Equal(t, "Helvetica", call.opts.Font)
		}
	}
}

func TestColumnsLayoutSideBySide(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)

	def := &Definition{
		Page: testPage(),
		Body: []Element{{
			Type: TypeColumns,
			Gap:  10,
			Columns: []Column{
				{Elements: []Element{{Type: TypeText, Text: "L"}}},
				{Elements: []Element{{Type: TypeText, Text: "R"}}},
			},
		}},
	}

	_, err := e.Generate(context.Background(), def, nil)
	require.NoError(t, err)
	require.Len(t, fb.pages, 1)
	require.Len(t, fb.pages[0].texts, 2)

	left := fb.pages[0].texts[0]
	right := fb.pages[0].texts[1]
	assert.Equal(t, "L", left.text)
	assert.Equal(t, "R", right.text)
	// Content width 360, gap 10: columns are 175 wide, second starts at
	// 20 + 175 + 10.
	assert.InDelta(t, 20, left.x, 1e-9)
	assert.InDelta(t, 205, right.x, 1e-9)
	assert.InDelta(t, left.y, right.y, 1e-9)
}

func TestTextAlignment(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)
	def := &Definition{Page: testPage()}

	rc := e.newRenderContext(def, nil)
	rc.startPage()

	// "hi" at size 12 measures 12pt in the fake metric; content width is
	// 360 starting at x=20.
	require.NoError(t, e.renderElement(rc, Element{Type: TypeText, Text: "hi"}, 20, 30, 360))
	require.NoError(t, e.renderElement(rc, Element{Type: TypeText, Text: "hi", Align: "center"}, 20, 50, 360))
	require.NoError(t, e.renderElement(rc, Element{Type: TypeText, Text: "hi", Align: "right"}, 20, 70, 360))

	calls := fb.pages[0].texts
	require.Len(t, calls, 3)
	assert.InDelta(t, 20, calls[0].x, 1e-9)
	assert.InDelta(t, 20+(360-12)/2, calls[1].x, 1e-9)
	assert.InDelta(t, 20+360-12, calls[2].x, 1e-9)
}

func TestGenerateRunsScript(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)

	def := &Definition{
		Page:   testPage(),
		Script: `data.greeting = "Hello " + data.name;`,
		Body:   []Element{{Type: TypeText, Text: "{{greeting}}"}},
	}

	_, err := e.Generate(context.Background(), def, map[string]interface{}{"name": "World"})
	require.NoError(t, err)
	require.Len(t, fb.pages, 1)
	require.NotEmpty(t, fb.pages[0].texts)
	assert.Equal(t, "Hello World", fb.pages[0].texts[0].text)
}

func TestGenerateScriptErrorFails(t *testing.T) {
	fb := &fakeBuilder{}
	e := NewEngine(fb)

	def := &Definition{
		Page:   testPage(),
		Script: `throw new Error("boom")`,
		Body:   []Element{{Type: TypeText, Text: "x"}},
	}

	_, err := e.Generate(context.Background(), def, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template script")
}

func TestGenerateNilDefinition(t *testing.T) {
	e := NewEngine(&fakeBuilder{})
	_, err := e.Generate(context.Background(), nil, nil)
	assert.Error(t, err)
}
