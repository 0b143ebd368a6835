package template

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/documint/pdfcore/document"
)

// loadImage reads a JPEG or PNG file into an image XObject. JPEG data is
// embedded as-is under DCTDecode; PNG is decoded to raw RGB samples with
// the alpha channel split into a soft mask. Results are cached per path
// so repeated template elements share one XObject.
func (e *Engine) loadImage(path string) (*document.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("empty image source")
	}
	if img, ok := e.images[path]; ok {
		return img, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.images[path] = img
	return img, nil
}

func decodeImage(data []byte) (*document.Image, error) {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode jpeg: %w", err)
		}
		return &document.Image{
			Width:            cfg.Width,
			Height:           cfg.Height,
			ColorSpace:       "DeviceRGB",
			BitsPerComponent: 8,
			Filter:           "DCTDecode",
			Data:             data,
		}, nil
	}

	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	rgb := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	opaque := true
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			rgb = append(rgb, byte(r>>8), byte(g>>8), byte(b>>8))
			alpha = append(alpha, byte(a>>8))
			if a>>8 != 0xFF {
				opaque = false
			}
		}
	}
	img := &document.Image{
		Width:            w,
		Height:           h,
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
		Data:             rgb,
	}
	if !opaque {
		img.SMask = &document.Image{
			Width:            w,
			Height:           h,
			ColorSpace:       "DeviceGray",
			BitsPerComponent: 8,
			Data:             alpha,
		}
	}
	return img, nil
}
