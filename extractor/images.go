package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/documint/pdfcore/parser"
)

// ImageAsset is an image XObject found in a page's resources. For
// DCTDecode images Data holds the untouched JPEG bytes; otherwise Data
// holds decoded raw samples.
type ImageAsset struct {
	ResourceName     string
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       string
	Encoded          bool // Data is a complete JPEG payload
	Data             []byte
}

// Images returns the image XObjects referenced by a page's resources.
func (d *Document) Images(pageIndex int) ([]ImageAsset, error) {
	if pageIndex < 0 || pageIndex >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range", pageIndex)
	}
	page := d.pages[pageIndex]
	if page.Resources == nil {
		return nil, nil
	}
	xobjects, ok := d.file.Resolve(page.Resources["XObject"]).(parser.Dict)
	if !ok {
		return nil, nil
	}
	var assets []ImageAsset
	for name, obj := range xobjects {
		stm, ok := d.file.Resolve(obj).(*parser.Stream)
		if !ok {
			continue
		}
		subtype, _ := d.file.Resolve(stm.Dict["Subtype"]).(parser.Name)
		if subtype != "Image" {
			continue
		}
		data, err := d.file.StreamData(stm)
		if err != nil {
			continue
		}
		width, _ := parser.Int(d.file.Resolve(stm.Dict["Width"]))
		height, _ := parser.Int(d.file.Resolve(stm.Dict["Height"]))
		bpc, _ := parser.Int(d.file.Resolve(stm.Dict["BitsPerComponent"]))
		cs, _ := d.file.Resolve(stm.Dict["ColorSpace"]).(parser.Name)
		assets = append(assets, ImageAsset{
			ResourceName:     name,
			Width:            int(width),
			Height:           int(height),
			BitsPerComponent: int(bpc),
			ColorSpace:       string(cs),
			Encoded:          hasDCT(stm.Dict, d.file.Resolve),
			Data:             data,
		})
	}
	return assets, nil
}

func hasDCT(dict parser.Dict, resolve func(parser.Object) parser.Object) bool {
	switch v := resolve(dict["Filter"]).(type) {
	case parser.Name:
		return v == "DCTDecode"
	case parser.Array:
		for _, item := range v {
			if n, ok := resolve(item).(parser.Name); ok && n == "DCTDecode" {
				return true
			}
		}
	}
	return false
}

// Payload returns the asset as an encoded image plus its MIME type,
// suitable for handing to an OCR engine. JPEG passes through; raw
// samples are wrapped and PNG-encoded.
func (a ImageAsset) Payload() ([]byte, string, error) {
	if a.Encoded {
		return a.Data, "image/jpeg", nil
	}
	img, err := a.toImage()
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}

func (a ImageAsset) toImage() (image.Image, error) {
	pixels := a.Width * a.Height
	if pixels <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", a.Width, a.Height)
	}
	switch {
	case len(a.Data) == pixels*3:
		return &rgbImage{pix: a.Data, stride: a.Width * 3, rect: image.Rect(0, 0, a.Width, a.Height)}, nil
	case len(a.Data) == pixels:
		return &image.Gray{Pix: a.Data, Stride: a.Width, Rect: image.Rect(0, 0, a.Width, a.Height)}, nil
	case len(a.Data) == pixels*4 && a.ColorSpace == "DeviceCMYK":
		return &image.CMYK{Pix: a.Data, Stride: a.Width * 4, Rect: image.Rect(0, 0, a.Width, a.Height)}, nil
	case len(a.Data) == pixels*4:
		return &image.RGBA{Pix: a.Data, Stride: a.Width * 4, Rect: image.Rect(0, 0, a.Width, a.Height)}, nil
	}
	return nil, fmt.Errorf("unsupported sample layout: %d bytes for %dx%d", len(a.Data), a.Width, a.Height)
}

type rgbImage struct {
	pix    []byte
	stride int
	rect   image.Rectangle
}

func (p *rgbImage) ColorModel() color.Model { return color.RGBAModel }
func (p *rgbImage) Bounds() image.Rectangle { return p.rect }
func (p *rgbImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.rect)) {
		return color.RGBA{}
	}
	i := (y-p.rect.Min.Y)*p.stride + (x-p.rect.Min.X)*3
	return color.RGBA{R: p.pix[i], G: p.pix[i+1], B: p.pix[i+2], A: 255}
}
