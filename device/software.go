package device

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// NameSoftware is the registry name of the software reference device.
const NameSoftware = "software"

// softwareMaxDim mirrors the default WebGPU limit so descriptor validation
// behaves like a real device.
const softwareMaxDim = 8192

// init registers the software device on package import, so a device is
// always available.
func init() {
	Register(NameSoftware, func() (Device, error) {
		return NewSoftware(), nil
	})
}

// Software is a CPU-only reference device. It performs full descriptor
// validation and tracks live textures with their byte sizes, but allocates
// no GPU memory. Tests and headless tools use it in place of a real GPU.
type Software struct {
	mu       sync.Mutex
	textures map[TextureID]softwareTexture
	bytes    int64
	closed   bool

	nextID atomic.Uint64
}

// softwareTexture records what a real device would have resident.
type softwareTexture struct {
	width   uint32
	height  uint32
	mipmaps bool
	filter  FilterMode
	bytes   int64
}

// NewSoftware creates a software reference device.
func NewSoftware() *Software {
	return &Software{textures: make(map[TextureID]softwareTexture)}
}

// Name returns "software".
func (d *Software) Name() string { return NameSoftware }

// CreateTexture2D validates the descriptor and records a live texture.
func (d *Software) CreateTexture2D(desc *Texture2DDescriptor, pixels []byte) (TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 ||
		desc.Width > softwareMaxDim || desc.Height > softwareMaxDim {
		return InvalidTexture, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}
	if desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return InvalidTexture, fmt.Errorf("%w: %v", ErrUnsupportedFormat, desc.Format)
	}
	want := int(desc.Width) * int(desc.Height) * 4
	if len(pixels) != want {
		return InvalidTexture, fmt.Errorf("%w: got %d bytes, want %d", ErrPixelSizeMismatch, len(pixels), want)
	}

	size := int64(want)
	if desc.Mipmaps {
		// Approximate the geometric mip series, matching GPU residency.
		size = size * 4 / 3
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return InvalidTexture, ErrDeviceClosed
	}

	id := TextureID(d.nextID.Add(1))
	d.textures[id] = softwareTexture{
		width:   desc.Width,
		height:  desc.Height,
		mipmaps: desc.Mipmaps,
		filter:  desc.Filter,
		bytes:   size,
	}
	d.bytes += size
	return id, nil
}

// DestroyTexture releases a tracked texture. Unknown IDs are ignored.
func (d *Software) DestroyTexture(id TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if tex, ok := d.textures[id]; ok {
		d.bytes -= tex.bytes
		delete(d.textures, id)
	}
}

// Capabilities reports anisotropy as available so the cache exercises the
// same descriptor path it would on real hardware.
func (d *Software) Capabilities() Capabilities {
	return Capabilities{
		AnisotropicFiltering: true,
		MaxAnisotropy:        16,
		MaxTextureDimension:  softwareMaxDim,
	}
}

// Close releases all tracked textures.
func (d *Software) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.textures = make(map[TextureID]softwareTexture)
	d.bytes = 0
	d.closed = true
	return nil
}

// TextureCount returns the number of live textures. Test helper.
func (d *Software) TextureCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// BytesResident returns the tracked byte total of live textures. Test helper.
func (d *Software) BytesResident() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bytes
}

// TextureSize returns the dimensions of a live texture.
func (d *Software) TextureSize(id TextureID) (width, height uint32, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, ok := d.textures[id]
	if !ok {
		return 0, 0, false
	}
	return tex.width, tex.height, true
}
