package decode

import (
	"fmt"
	"io"
	"io/fs"
	"math"
	"sync"
)

// FloatImage is a linear-light RGB image as produced by an HDR decoder:
// three float32 radiance values per texel, tightly packed rows.
type FloatImage struct {
	Pix    []float32
	Width  int
	Height int
}

// HDRDecodeFunc decodes one HDR file into linear RGB radiance.
type HDRDecodeFunc func(r io.Reader) (*FloatImage, error)

// hdrRegistry maps lowercase file extensions (without the dot) to decoders.
// Mirrors the stdlib image format registry: format packages register
// themselves, this package only classifies and dispatches.
var (
	hdrMu       sync.RWMutex
	hdrDecoders = make(map[string]HDRDecodeFunc)
)

// RegisterHDR registers an HDR decoder for a file extension such as "hdr"
// or "exr". Registering an extension twice replaces the earlier decoder.
func RegisterHDR(extension string, fn HDRDecodeFunc) {
	hdrMu.Lock()
	defer hdrMu.Unlock()
	hdrDecoders[extension] = fn
}

// IsHDR reports whether the file name carries a registered HDR extension.
func IsHDR(name string) bool {
	hdrMu.RLock()
	defer hdrMu.RUnlock()
	_, ok := hdrDecoders[ext(name)]
	return ok
}

func hdrDecoder(name string) (HDRDecodeFunc, bool) {
	hdrMu.RLock()
	defer hdrMu.RUnlock()
	fn, ok := hdrDecoders[ext(name)]
	return fn, ok
}

// decodeHDRFile runs the HDR preview pipeline: decode, bound the preview
// size, tone map to 8-bit RGB.
func decodeHDRFile(fsys fs.FS, name string, opts Options) (*Result, error) {
	fn, ok := hdrDecoder(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHDRDecoder, name)
	}

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("decode: open %s: %w", name, err)
	}
	defer f.Close()

	img, err := fn(f)
	if err != nil {
		return nil, fmt.Errorf("decode: hdr %s: %w", name, err)
	}
	if img == nil || img.Width <= 0 || img.Height <= 0 ||
		len(img.Pix) < img.Width*img.Height*3 {
		return nil, fmt.Errorf("decode: hdr %s: %w", name, ErrEmptyImage)
	}

	for img.Width > opts.MaxPreviewSize || img.Height > opts.MaxPreviewSize {
		img = halveBox(img)
	}

	return toneMap(img, opts), nil
}

// halveBox downsamples by a factor of two with a 2x2 box filter.
// Odd trailing rows/columns are folded into the nearest box.
func halveBox(img *FloatImage) *FloatImage {
	w := img.Width / 2
	h := img.Height / 2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	out := &FloatImage{
		Pix:    make([]float32, w*h*3),
		Width:  w,
		Height: h,
	}

	for y := 0; y < h; y++ {
		y0 := y * 2
		y1 := min(y0+1, img.Height-1)
		for x := 0; x < w; x++ {
			x0 := x * 2
			x1 := min(x0+1, img.Width-1)
			for c := 0; c < 3; c++ {
				sum := img.Pix[(y0*img.Width+x0)*3+c] +
					img.Pix[(y0*img.Width+x1)*3+c] +
					img.Pix[(y1*img.Width+x0)*3+c] +
					img.Pix[(y1*img.Width+x1)*3+c]
				out.Pix[(y*w+x)*3+c] = sum * 0.25
			}
		}
	}
	return out
}

// toneMap converts linear radiance to an 8-bit preview: exposure scale,
// Reinhard compression c/(1+c), then gamma correction.
func toneMap(img *FloatImage, opts Options) *Result {
	texels := img.Width * img.Height
	out := make([]byte, texels*3)

	exposure := opts.Exposure
	invGamma := 1.0 / opts.Gamma

	for i := 0; i < texels*3; i++ {
		c := float64(img.Pix[i]) * exposure
		if c < 0 {
			c = 0
		}
		c = c / (1 + c)
		c = math.Pow(c, invGamma)
		out[i] = uint8(math.Round(c * 255))
	}

	return &Result{
		Pix:    out,
		Width:  img.Width,
		Height: img.Height,
		Format: RGB8,
		HDR:    true,
	}
}
