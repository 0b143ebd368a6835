package parser

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("compress close: %v", err)
	}
	return buf.Bytes()
}

func passthroughResolve(obj Object) Object { return obj }

func TestDecodeStreamFlate(t *testing.T) {
	plain := []byte("BT /F1 12 Tf (Hello) Tj ET")
	dict := Dict{"Filter": Name("FlateDecode")}

	out, err := decodeStream(dict, deflate(t, plain), passthroughResolve)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatalf("round trip mismatch: %q", out)
	}
}

func TestDecodeStreamFlateAbbreviation(t *testing.T) {
	plain := []byte("abbreviated")
	dict := Dict{"Filter": Name("Fl")}

	out, err := decodeStream(dict, deflate(t, plain), passthroughResolve)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatalf("round trip mismatch: %q", out)
	}
}

func TestDecodeStreamFilterArray(t *testing.T) {
	plain := []byte("48656C6C6F>")
	dict := Dict{"Filter": Array{Name("FlateDecode"), Name("ASCIIHexDecode")}}

	out, err := decodeStream(dict, deflate(t, plain), passthroughResolve)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if string(out) != "Hello" {
		t.Fatalf("expected Hello, got %q", out)
	}
}

func TestDecodeStreamNoFilter(t *testing.T) {
	plain := []byte("raw bytes")
	out, err := decodeStream(Dict{}, plain, passthroughResolve)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatalf("passthrough mismatch: %q", out)
	}
}

func TestDecodeStreamDCTLeftEncoded(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	out, err := decodeStream(Dict{"Filter": Name("DCTDecode")}, jpeg, passthroughResolve)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(out, jpeg) {
		t.Fatalf("DCT payload should pass through unchanged")
	}
}

func TestASCIIHexDecode(t *testing.T) {
	out, err := asciiHexDecode([]byte("48 65 6C\n6C 6F>"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if string(out) != "Hello" {
		t.Fatalf("expected Hello, got %q", out)
	}
	// Odd digit count pads with zero.
	out, err = asciiHexDecode([]byte("414>"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(out, []byte{0x41, 0x40}) {
		t.Fatalf("odd-length decode = %x", out)
	}
}

func TestPNGPredictorUp(t *testing.T) {
	// Two rows of 3 bytes, filter type 2 (Up): each byte adds the byte
	// above it.
	data := []byte{
		2, 1, 2, 3,
		2, 1, 1, 1,
	}
	out, err := applyPNGPredictor(data, 3, 1, 8)
	if err != nil {
		t.Fatalf("predictor failed: %v", err)
	}
	want := []byte{1, 2, 3, 2, 3, 4}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestPNGPredictorSub(t *testing.T) {
	// Filter type 1 (Sub): each byte adds its left neighbor.
	data := []byte{1, 10, 5, 5}
	out, err := applyPNGPredictor(data, 3, 1, 8)
	if err != nil {
		t.Fatalf("predictor failed: %v", err)
	}
	want := []byte{10, 15, 20}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestPNGPredictorNone(t *testing.T) {
	data := []byte{0, 7, 8, 9}
	out, err := applyPNGPredictor(data, 3, 1, 8)
	if err != nil {
		t.Fatalf("predictor failed: %v", err)
	}
	if !bytes.Equal(out, []byte{7, 8, 9}) {
		t.Fatalf("got %v", out)
	}
}

func TestPNGPredictorPaeth(t *testing.T) {
	// Single row, filter type 4: with no row above, Paeth degenerates to
	// the left neighbor.
	data := []byte{4, 10, 5, 5}
	out, err := applyPNGPredictor(data, 3, 1, 8)
	if err != nil {
		t.Fatalf("predictor failed: %v", err)
	}
	want := []byte{10, 15, 20}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestPNGPredictorTruncatedRow(t *testing.T) {
	if _, err := applyPNGPredictor([]byte{2, 1}, 3, 1, 8); err == nil {
		t.Fatalf("expected error for truncated row")
	}
}

func TestFlateWithPredictorParms(t *testing.T) {
	// Pre-filtered Up-predicted rows, then deflated; DecodeParms drives
	// the un-prediction.
	filtered := []byte{
		2, 1, 2, 3,
		2, 1, 1, 1,
	}
	dict := Dict{
		"Filter":      Name("FlateDecode"),
		"DecodeParms": Dict{"Predictor": int64(12), "Columns": int64(3)},
	}
	out, err := decodeStream(dict, deflate(t, filtered), passthroughResolve)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := []byte{1, 2, 3, 2, 3, 4}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}
