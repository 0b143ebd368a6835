package writer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/documint/pdfcore/builder"
	"github.com/documint/pdfcore/document"
	"github.com/documint/pdfcore/extractor"
	"github.com/documint/pdfcore/parser"
)

func buildTextDocument(t *testing.T) *document.Document {
	t.Helper()
	b := builder.NewBuilder()
	b.NewPage(612, 792).
		DrawText("Hello World", 72, 700, builder.TextOptions{Font: "Helvetica", FontSize: 12}).
		Finish()
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return doc
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(buildTextDocument(t), &buf, DefaultConfig()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-1.7")) {
		t.Fatalf("missing header: %q", buf.Bytes()[:16])
	}

	doc, err := extractor.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.PageCount())
	}
	text, err := doc.Text(0)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if text != "Hello World" {
		t.Fatalf("round-trip text = %q", text)
	}
	chars, err := doc.Chars(0)
	if err != nil {
		t.Fatalf("chars: %v", err)
	}
	if chars[0].X != 72 || chars[0].Y != 92 {
		t.Errorf("first char at (%v, %v), want (72, 92)", chars[0].X, chars[0].Y)
	}
}

func TestWriteInfoAndAnnotations(t *testing.T) {
	b := builder.NewBuilder()
	b.SetInfo(&document.Info{Title: "Report", Author: "documint"})
	b.NewPage(612, 792).
		DrawText("body", 72, 700, builder.TextOptions{FontSize: 10}).
		AddAnnotation(document.NewHighlight(
			document.Rectangle{LLX: 70, LLY: 690, URX: 140, URY: 712},
			[]float64{1, 0.9, 0.3}, 0.4, "added text",
		)).
		Finish()
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(doc, &buf, DefaultConfig()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	f, err := parser.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if title, _ := f.Info()["Title"].(parser.String); string(title) != "Report" {
		t.Errorf("info title = %q", title)
	}
	pages, err := f.Pages()
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	annots, ok := f.Resolve(pages[0].Dict["Annots"]).(parser.Array)
	if !ok || len(annots) != 1 {
		t.Fatalf("page annots = %#v", pages[0].Dict["Annots"])
	}
	ann, ok := f.Resolve(annots[0]).(parser.Dict)
	if !ok || ann["Subtype"] != parser.Name("Highlight") {
		t.Fatalf("annotation = %#v", ann)
	}
	if qp, ok := ann["QuadPoints"].(parser.Array); !ok || len(qp) != 8 {
		t.Errorf("quad points = %#v", ann["QuadPoints"])
	}
}

func TestWriteEncryptedRejectedByParser(t *testing.T) {
	b := builder.NewBuilder()
	b.SetEncryption("owner", "user", document.PermPrint)
	b.NewPage(612, 792).
		DrawText("secret", 72, 700, builder.TextOptions{FontSize: 10}).
		Finish()
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(doc, &buf, DefaultConfig()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/Encrypt")) {
		t.Fatalf("output carries no /Encrypt entry")
	}
	if _, err := parser.Parse(buf.Bytes()); !errors.Is(err, parser.ErrEncrypted) {
		t.Fatalf("expected ErrEncrypted, got %v", err)
	}
}

func TestWriteRejectsEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&document.Document{}, &buf, DefaultConfig()); err == nil {
		t.Fatalf("expected error for document without pages")
	}
	if err := Write(nil, &buf, DefaultConfig()); err == nil {
		t.Fatalf("expected error for nil document")
	}
}

func TestWriteUncompressed(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Compress: false, Producer: "test"}
	if err := Write(buildTextDocument(t), &buf, cfg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("FlateDecode")) {
		t.Errorf("uncompressed output should not reference FlateDecode")
	}
	if !bytes.Contains(buf.Bytes(), []byte("(Hello World) Tj")) {
		t.Errorf("content stream should carry the show-text operator in clear")
	}
}

func TestWidthsArrayGroupsRuns(t *testing.T) {
	got := widthsArray(map[int]int{3: 500, 4: 600, 5: 700, 9: 250})
	want := "[3[500 600 700]9[250]]"
	if got != want {
		t.Errorf("widths array = %q, want %q", got, want)
	}
	if got := widthsArray(nil); got != "[]" {
		t.Errorf("empty widths = %q", got)
	}
}
