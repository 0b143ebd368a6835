// Package tesseract provides the gosseract-backed OCR engine.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/documint/pdfcore/ocr"
)

// minRecognitionWidth is the width inputs are upscaled to when they come
// in smaller; tesseract degrades sharply on low-resolution renders.
const minRecognitionWidth = 1000

// Engine implements ocr.Engine using the gosseract client.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed OCR engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	imgData, width, height, scale, err := prepareImage(in)
	if err != nil {
		return ocr.Result{}, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(imgData); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}

	res := ocr.Result{
		PlainText:   strings.TrimSpace(text),
		ImageWidth:  width,
		ImageHeight: height,
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return res, nil
	}
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		res.Words = append(res.Words, ocr.Word{
			Text: word,
			Bounds: ocr.Region{
				X:      float64(b.Box.Min.X) / scale,
				Y:      float64(b.Box.Min.Y) / scale,
				Width:  float64(b.Box.Dx()) / scale,
				Height: float64(b.Box.Dy()) / scale,
			},
			Confidence: b.Confidence / 100,
		})
	}
	return res, nil
}

// prepareImage crops to the requested region and upscales small inputs.
// It returns the encoded image, the ORIGINAL pixel dimensions the word
// bounds are reported in, and the applied scale factor.
func prepareImage(in ocr.Input) (data []byte, width, height int, scale float64, err error) {
	src, _, err := image.Decode(bytes.NewReader(in.Image))
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("decode input image: %w", err)
	}
	if in.Region != nil && !in.Region.IsEmpty() {
		r := image.Rect(
			int(in.Region.X), int(in.Region.Y),
			int(in.Region.X+in.Region.Width), int(in.Region.Y+in.Region.Height),
		).Intersect(src.Bounds())
		cropped := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		xdraw.Draw(cropped, cropped.Bounds(), src, r.Min, xdraw.Src)
		src = cropped
	}

	bounds := src.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	scale = 1.0
	if width > 0 && width < minRecognitionWidth {
		scale = float64(minRecognitionWidth) / float64(width)
		dst := image.NewRGBA(image.Rect(0, 0, minRecognitionWidth, int(float64(height)*scale)))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), width, height, scale, nil
}
