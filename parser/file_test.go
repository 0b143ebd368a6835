package parser

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func buildClassicPDF() []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")

	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	off2 := buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Count 1 /Kids [3 0 R] /MediaBox [0 0 612 792] >>\nendobj\n")
	off3 := buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n")
	off4 := buf.Len()
	buf.WriteString("4 0 obj\n<< /Title (Old Title) >>\nendobj\n")

	xref := buf.Len()
	buf.WriteString("xref\n0 5\n0000000000 65535 f \n")
	fmt.Fprintf(buf, "%010d 00000 n \n%010d 00000 n \n%010d 00000 n \n%010d 00000 n \n", off1, off2, off3, off4)
	fmt.Fprintf(buf, "trailer\n<< /Size 5 /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func TestParseClassicXref(t *testing.T) {
	f, err := Parse(buildClassicPDF())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if f.MaxObjectNumber() != 4 {
		t.Errorf("max object number = %d, want 4", f.MaxObjectNumber())
	}
	cat, err := f.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if typ, _ := cat["Type"].(Name); typ != "Catalog" {
		t.Errorf("catalog type = %v", cat["Type"])
	}
	pages, err := f.Pages()
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].MediaBox[2] != 612 {
		t.Errorf("inherited MediaBox wrong: %v", pages[0].MediaBox)
	}
	info := f.Info()
	if title, _ := info["Title"].(String); string(title) != "Old Title" {
		t.Errorf("info title = %q", title)
	}
}

func TestParseIncrementalUpdate(t *testing.T) {
	base := buildClassicPDF()
	prevStart := bytes.LastIndex(base, []byte("xref"))

	buf := bytes.NewBuffer(append([]byte(nil), base...))
	off4 := buf.Len()
	buf.WriteString("4 0 obj\n<< /Title (New Title) >>\nendobj\n")
	xref := buf.Len()
	buf.WriteString("xref\n0 1\n0000000000 65535 f \n4 1\n")
	fmt.Fprintf(buf, "%010d 00000 n \n", off4)
	fmt.Fprintf(buf, "trailer\n<< /Size 5 /Root 1 0 R /Info 4 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", prevStart, xref)

	f, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, ok := f.Trailer()["Prev"]; !ok {
		t.Fatalf("trailer should carry /Prev")
	}
	// The newest revision of object 4 wins.
	if title, _ := f.Info()["Title"].(String); string(title) != "New Title" {
		t.Errorf("info title = %q, want updated value", title)
	}
	// Objects only present in the base revision still resolve.
	if _, err := f.Pages(); err != nil {
		t.Errorf("pages from base revision: %v", err)
	}
}

// buildXrefStreamPDF stores the catalog and pages nodes in an object
// stream and indexes everything through a cross-reference stream.
func buildXrefStreamPDF() []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")

	off3 := buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 300] >>\nendobj\n")

	catalog := "<< /Type /Catalog /Pages 2 0 R >>"
	pagesObj := "<< /Type /Pages /Count 1 /Kids [3 0 R] >>"
	header := fmt.Sprintf("1 0 2 %d ", len(catalog)+1)
	payload := header + catalog + " " + pagesObj
	off4 := buf.Len()
	fmt.Fprintf(buf, "4 0 obj\n<< /Type /ObjStm /N 2 /First %d /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(header), len(payload), payload)

	off5 := buf.Len()
	var rows bytes.Buffer
	writeRow := func(typ byte, f2 int, f3 byte) {
		rows.WriteByte(typ)
		rows.WriteByte(byte(f2 >> 8))
		rows.WriteByte(byte(f2))
		rows.WriteByte(f3)
	}
	writeRow(0, 0, 0)         // object 0: free
	writeRow(2, 4, 0)         // object 1: in object stream 4, index 0
	writeRow(2, 4, 1)         // object 2: in object stream 4, index 1
	writeRow(1, off3, 0)      // object 3
	writeRow(1, off4, 0)      // object 4
	writeRow(1, off5, 0)      // object 5: this xref stream
	fmt.Fprintf(buf, "5 0 obj\n<< /Type /XRef /Size 6 /W [1 2 1] /Root 1 0 R /Length %d >>\nstream\n", rows.Len())
	buf.Write(rows.Bytes())
	fmt.Fprintf(buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", off5)
	return buf.Bytes()
}

func TestParseXrefStreamAndObjectStream(t *testing.T) {
	f, err := Parse(buildXrefStreamPDF())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	pages, err := f.Pages()
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].MediaBox[2] != 200 || pages[0].MediaBox[3] != 300 {
		t.Errorf("media box = %v", pages[0].MediaBox)
	}
	// Catalog came from the object stream.
	obj, err := f.Get(1)
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if d, ok := obj.(Dict); !ok || d["Type"] != Name("Catalog") {
		t.Errorf("object 1 = %#v", obj)
	}
}

func TestParseRejectsEncrypted(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")
	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	off2 := buf.Len()
	buf.WriteString("2 0 obj\n<< /Filter /Standard >>\nendobj\n")
	xref := buf.Len()
	buf.WriteString("xref\n0 3\n0000000000 65535 f \n")
	fmt.Fprintf(buf, "%010d 00000 n \n%010d 00000 n \n", off1, off2)
	fmt.Fprintf(buf, "trailer\n<< /Size 3 /Root 1 0 R /Encrypt 2 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)

	_, err := Parse(buf.Bytes())
	if !errors.Is(err, ErrEncrypted) {
		t.Fatalf("expected ErrEncrypted, got %v", err)
	}
}

func TestParseRejectsNonPDF(t *testing.T) {
	if _, err := Parse([]byte("not a pdf")); err == nil {
		t.Fatalf("expected error for missing header")
	}
}

func TestResolveChainLimit(t *testing.T) {
	f, err := Parse(buildClassicPDF())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := f.Resolve(Ref{Num: 99}); got != nil {
		t.Errorf("dangling ref resolved to %#v", got)
	}
	if got := f.Resolve(int64(7)); got != int64(7) {
		t.Errorf("direct object changed: %#v", got)
	}
}
