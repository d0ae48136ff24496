// Package device abstracts the GPU objects owned by the texture streaming
// cache.
//
// The cache creates and destroys 2D sampled textures through the [Device]
// interface and never touches a graphics API directly. Implementations are
// selected through a named registry: the "software" device (this package) is
// always available and backs tests and headless tooling, while importing
// github.com/gogpu/texstream/device/gogpu registers the production device.
//
// # Resource Handles
//
// Textures are referred to by opaque [TextureID] values. IDs are minted by
// the device that created the texture and are meaningless to any other
// device. Callers never construct a TextureID; the zero value
// [InvalidTexture] represents "no texture".
//
// # Threading
//
// All Device methods must be called from the thread that owns the graphics
// context. The software device tolerates concurrent use, but callers should
// not rely on that: the streaming cache funnels every call through its
// graphics thread.
package device

import (
	"github.com/gogpu/gputypes"
)

// TextureID is an opaque handle to a GPU texture owned by a Device.
type TextureID uint64

// InvalidTexture is the zero TextureID, representing "no texture".
const InvalidTexture TextureID = 0

// FilterMode selects the sampling filter for a texture.
type FilterMode uint8

const (
	// FilterBilinear samples the base level with linear filtering.
	// Used for textures without mipmaps.
	FilterBilinear FilterMode = iota

	// FilterTrilinear samples with linear filtering between mip levels.
	// Requires the texture to carry a mip chain.
	FilterTrilinear
)

// String returns the filter mode name.
func (m FilterMode) String() string {
	switch m {
	case FilterBilinear:
		return "bilinear"
	case FilterTrilinear:
		return "trilinear"
	default:
		return "unknown"
	}
}

// WrapMode selects how texture coordinates outside [0,1] are handled.
type WrapMode uint8

const (
	// WrapRepeat tiles the texture. This is the default for all textures
	// created by the streaming cache.
	WrapRepeat WrapMode = iota

	// WrapClampToEdge clamps coordinates to the texture edge.
	WrapClampToEdge
)

// Texture2DDescriptor describes a 2D sampled texture to create.
//
// Pixel data is always supplied as tightly packed 8-bit RGBA rows
// (width*height*4 bytes); Format names the GPU-side storage format.
type Texture2DDescriptor struct {
	// Label is an optional debug name, typically the source asset path.
	Label string

	// Width and Height are the base level dimensions in pixels.
	Width  uint32
	Height uint32

	// Format is the GPU storage format. The streaming cache always uses
	// gputypes.TextureFormatRGBA8Unorm; devices may reject other formats.
	Format gputypes.TextureFormat

	// Mipmaps requests generation of a full mip chain down to 1x1.
	Mipmaps bool

	// Filter is the minification filter to associate with the texture.
	Filter FilterMode

	// Wrap is the coordinate wrap mode. Zero value is WrapRepeat.
	Wrap WrapMode

	// Anisotropic requests anisotropic filtering. Ignored by devices
	// whose Capabilities report no anisotropy support.
	Anisotropic bool
}

// Capabilities describes optional features of a Device.
type Capabilities struct {
	// AnisotropicFiltering reports whether the device honors
	// Texture2DDescriptor.Anisotropic.
	AnisotropicFiltering bool

	// MaxAnisotropy is the maximum supported anisotropy level.
	// Zero when AnisotropicFiltering is false.
	MaxAnisotropy float32

	// MaxTextureDimension is the largest supported width or height.
	MaxTextureDimension uint32
}

// Device creates and destroys GPU textures on behalf of the streaming cache.
//
// Implementations map TextureIDs to backend resources and must tolerate
// DestroyTexture calls with unknown IDs (they are ignored).
type Device interface {
	// Name returns the device identifier, e.g. "software" or "gogpu".
	Name() string

	// CreateTexture2D creates a texture from tightly packed RGBA pixels.
	// The pixel slice must hold exactly desc.Width*desc.Height*4 bytes;
	// the device copies the data and does not retain the slice.
	CreateTexture2D(desc *Texture2DDescriptor, pixels []byte) (TextureID, error)

	// DestroyTexture releases the texture. Unknown IDs are ignored.
	DestroyTexture(id TextureID)

	// Capabilities reports the device's optional features.
	Capabilities() Capabilities

	// Close releases every resource still owned by the device.
	// The device is unusable afterwards.
	Close() error
}
