// Package decode turns texture asset files into upload-ready pixel buffers.
//
// It is the CPU half of the streaming pipeline: everything here runs on
// decode worker goroutines and never touches a graphics API. The package
// handles format classification (LDR vs HDR), alpha-channel inspection to
// pick a 3- or 4-channel layout, HDR preview tone mapping, and normal-map
// renormalization.
//
// Standard (LDR) images go through the stdlib image registry. PNG, JPEG,
// GIF, BMP, TIFF and WebP decoders are registered by this package; callers
// can register more via image.RegisterFormat. TGA carries no magic bytes and
// is dispatched by extension instead. HDR formats are decoded by external
// collaborators registered with [RegisterHDR].
package decode

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path"
	"strings"

	// LDR format decoders. BMP, TIFF and WebP come from golang.org/x/image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ftrvxmtrx/tga"
	xdraw "golang.org/x/image/draw"
)

// Package errors.
var (
	// ErrNoHDRDecoder is returned when a file classifies as HDR but no
	// decoder is registered for its extension.
	ErrNoHDRDecoder = errors.New("decode: no HDR decoder registered")

	// ErrEmptyImage is returned when a decoder produces a zero-sized image.
	ErrEmptyImage = errors.New("decode: empty image")
)

// PixelFormat is the channel layout of a decoded pixel buffer.
type PixelFormat uint8

const (
	// RGB8 is 3 bytes per texel, fully opaque.
	RGB8 PixelFormat = iota + 1

	// RGBA8 is 4 bytes per texel with straight alpha.
	RGBA8
)

// BytesPerTexel returns the storage size of one texel.
func (f PixelFormat) BytesPerTexel() int {
	if f == RGB8 {
		return 3
	}
	return 4
}

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case RGB8:
		return "rgb8"
	case RGBA8:
		return "rgba8"
	default:
		return "unknown"
	}
}

// Meta is side-channel asset metadata consulted during decoding. The asset
// database supplies it per identity; the zero value means a plain texture.
type Meta struct {
	// NormalMap marks the asset as a tangent-space normal map, enabling
	// per-texel renormalization.
	NormalMap bool

	// FlipGreen negates the Y (green) channel during normal-map repair,
	// converting between DirectX- and OpenGL-style normal maps.
	FlipGreen bool
}

// Options controls the decode pipeline. The zero value selects defaults.
type Options struct {
	// Exposure scales HDR radiance before tone mapping. Default 1.0.
	Exposure float64

	// Gamma is the display gamma applied after tone mapping. Default 2.2.
	Gamma float64

	// MaxPreviewSize caps HDR preview dimensions. HDR images larger than
	// this on either axis are box-downsampled before tone mapping to bound
	// preview memory. Default 2048.
	MaxPreviewSize int
}

// DefaultMaxPreviewSize is the HDR preview dimension cap when
// Options.MaxPreviewSize is zero.
const DefaultMaxPreviewSize = 2048

func (o Options) withDefaults() Options {
	if o.Exposure <= 0 {
		o.Exposure = 1.0
	}
	if o.Gamma <= 0 {
		o.Gamma = 2.2
	}
	if o.MaxPreviewSize <= 0 {
		o.MaxPreviewSize = DefaultMaxPreviewSize
	}
	return o
}

// Result is a fully decoded, upload-ready pixel buffer.
type Result struct {
	// Pix holds tightly packed rows, Format.BytesPerTexel() bytes per texel.
	Pix []byte

	// Width and Height are the final (possibly downsampled) dimensions.
	Width  int
	Height int

	// Format is the channel layout of Pix.
	Format PixelFormat

	// HDR reports that the source was a high-dynamic-range image and Pix
	// holds a tone-mapped LDR preview.
	HDR bool
}

// SizeBytes returns the accounted size of the buffer: one byte per channel
// per texel at the final resolution.
func (r *Result) SizeBytes() int64 {
	return int64(r.Width) * int64(r.Height) * int64(r.Format.BytesPerTexel())
}

// File reads and decodes one texture asset. It classifies the file as HDR or
// LDR by extension, runs the matching pipeline, and applies normal-map
// repair when meta asks for it.
func File(fsys fs.FS, name string, meta Meta, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	if IsHDR(name) {
		return decodeHDRFile(fsys, name, opts)
	}

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("decode: open %s: %w", name, err)
	}
	defer f.Close()

	// TGA has no magic bytes, so the stdlib registry cannot sniff it;
	// dispatch on the extension like the HDR path above.
	var img image.Image
	if ext(name) == "tga" {
		img, err = tga.Decode(f)
	} else {
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode: %s: %w", name, err)
	}

	res, err := fromImage(img)
	if err != nil {
		return nil, fmt.Errorf("decode: %s: %w", name, err)
	}
	if meta.NormalMap {
		RenormalizeNormals(res, meta.FlipGreen)
	}
	return res, nil
}

// fromImage converts a decoded image into a Result, inspecting the alpha
// channel to choose between RGB8 and RGBA8.
func fromImage(img image.Image) (*Result, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != w*4 || !b.Min.Eq(image.Point{}) {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
		nrgba = dst
	}

	if fullyOpaque(nrgba.Pix) {
		return &Result{
			Pix:    packRGB(nrgba.Pix, w*h),
			Width:  w,
			Height: h,
			Format: RGB8,
		}, nil
	}

	return &Result{
		Pix:    nrgba.Pix,
		Width:  w,
		Height: h,
		Format: RGBA8,
	}, nil
}

// fullyOpaque reports whether every alpha byte in RGBA-packed pix is 255.
func fullyOpaque(pix []byte) bool {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0xFF {
			return false
		}
	}
	return true
}

// packRGB drops the alpha byte from RGBA-packed pix.
func packRGB(pix []byte, texels int) []byte {
	out := make([]byte, texels*3)
	for i := 0; i < texels; i++ {
		copy(out[i*3:], pix[i*4:i*4+3])
	}
	return out
}

// ext returns the lowercase extension of name, without the dot.
func ext(name string) string {
	e := strings.ToLower(path.Ext(name))
	return strings.TrimPrefix(e, ".")
}
