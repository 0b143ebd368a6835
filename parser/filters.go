package parser

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// decodeStream applies the stream's filter chain to data.
func decodeStream(dict Dict, data []byte, resolve func(Object) Object) ([]byte, error) {
	filters, parms := filterChain(dict, resolve)
	for i, filter := range filters {
		var parm Dict
		if i < len(parms) {
			parm = parms[i]
		}
		var err error
		switch filter {
		case "FlateDecode", "Fl":
			data, err = flateDecode(data, parm, resolve)
		case "ASCIIHexDecode", "AHx":
			data, err = asciiHexDecode(data)
		case "DCTDecode", "JPXDecode", "CCITTFaxDecode":
			// Image codecs are left encoded; consumers decode them.
			return data, nil
		default:
			return nil, fmt.Errorf("unsupported stream filter %s", filter)
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filter, err)
		}
	}
	return data, nil
}

func filterChain(dict Dict, resolve func(Object) Object) ([]string, []Dict) {
	var filters []string
	var parms []Dict
	switch v := resolve(dict["Filter"]).(type) {
	case Name:
		filters = []string{string(v)}
	case Array:
		for _, item := range v {
			if n, ok := resolve(item).(Name); ok {
				filters = append(filters, string(n))
			}
		}
	}
	switch v := resolve(dict["DecodeParms"]).(type) {
	case Dict:
		parms = []Dict{v}
	case Array:
		for _, item := range v {
			d, _ := resolve(item).(Dict)
			parms = append(parms, d)
		}
	}
	return filters, parms
}

func flateDecode(data []byte, parm Dict, resolve func(Object) Object) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(zr)
	zr.Close()
	if err != nil && len(out) == 0 {
		return nil, err
	}
	if parm == nil {
		return out, nil
	}
	predictor, _ := Int(resolve(parm["Predictor"]))
	if predictor <= 1 {
		return out, nil
	}
	columns, _ := Int(resolve(parm["Columns"]))
	if columns <= 0 {
		columns = 1
	}
	colors, _ := Int(resolve(parm["Colors"]))
	if colors <= 0 {
		colors = 1
	}
	bpc, _ := Int(resolve(parm["BitsPerComponent"]))
	if bpc <= 0 {
		bpc = 8
	}
	return applyPNGPredictor(out, int(columns), int(colors), int(bpc))
}

// applyPNGPredictor reverses PNG row filtering (predictors 10-15).
func applyPNGPredictor(data []byte, columns, colors, bpc int) ([]byte, error) {
	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8
	stride := rowLen + 1
	if rowLen <= 0 || len(data)%stride != 0 {
		return nil, fmt.Errorf("predictor data length %d does not fit row length %d", len(data), rowLen)
	}
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		ft := data[r*stride]
		copy(cur, data[r*stride+1:(r+1)*stride])
		switch ft {
		case 0:
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				cur[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				left := 0
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				left, up, upLeft := 0, int(prev[i]), 0
				if i >= bpp {
					left = int(cur[i-bpp])
					upLeft = int(prev[i-bpp])
				}
				cur[i] += byte(paeth(left, up, upLeft))
			}
		default:
			return nil, fmt.Errorf("unknown PNG filter type %d", ft)
		}
		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func asciiHexDecode(data []byte) ([]byte, error) {
	var out []byte
	var hi byte
	havePending := false
	for _, c := range data {
		if c == '>' {
			break
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
			continue
		}
		if havePending {
			out = append(out, hi<<4|v)
			havePending = false
		} else {
			hi = v
			havePending = true
		}
	}
	if havePending {
		out = append(out, hi<<4)
	}
	return out, nil
}
