package gogpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/texstream/device"
)

// ErrNilCreator is returned when NewContextDevice receives a nil creator.
var ErrNilCreator = errors.New("gogpu: nil texture creator")

// textureDestroyer is implemented by host textures that can be destroyed.
// This matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// ContextDevice adapts a host application's gpucontext.TextureCreator
// (for example a gogpu window's draw context) into a device.Device, so the
// streaming cache can share the application's GPU device instead of creating
// its own.
//
// The host creator owns sampler state: mipmap and filter hints in the
// descriptor are ignored, and Capabilities reports no anisotropy.
type ContextDevice struct {
	mu sync.Mutex

	creator  gpucontext.TextureCreator
	textures map[device.TextureID]any
	nextID   uint64
	closed   bool
}

// NewContextDevice wraps a host texture creator.
func NewContextDevice(creator gpucontext.TextureCreator) (*ContextDevice, error) {
	if creator == nil {
		return nil, ErrNilCreator
	}
	return &ContextDevice{
		creator:  creator,
		textures: make(map[device.TextureID]any),
	}, nil
}

// Name returns "gogpu-context".
func (d *ContextDevice) Name() string { return "gogpu-context" }

// CreateTexture2D creates a host texture from RGBA pixels.
func (d *ContextDevice) CreateTexture2D(desc *device.Texture2DDescriptor, pixels []byte) (device.TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return device.InvalidTexture, fmt.Errorf("%w: %dx%d", device.ErrInvalidDimensions, desc.Width, desc.Height)
	}
	if len(pixels) != int(desc.Width)*int(desc.Height)*4 {
		return device.InvalidTexture, device.ErrPixelSizeMismatch
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return device.InvalidTexture, device.ErrDeviceClosed
	}

	tex, err := d.creator.NewTextureFromRGBA(int(desc.Width), int(desc.Height), pixels)
	if err != nil {
		return device.InvalidTexture, fmt.Errorf("gogpu: NewTextureFromRGBA failed: %w", err)
	}

	d.nextID++
	id := device.TextureID(d.nextID)
	d.textures[id] = tex
	return id, nil
}

// DestroyTexture destroys a host texture. Unknown IDs are ignored; host
// textures that expose no Destroy method are simply dropped and left to the
// host's resource management.
func (d *ContextDevice) DestroyTexture(id device.TextureID) {
	d.mu.Lock()
	tex, ok := d.textures[id]
	if ok {
		delete(d.textures, id)
	}
	d.mu.Unlock()

	if !ok {
		return
	}
	if destroyer, ok := tex.(textureDestroyer); ok {
		destroyer.Destroy()
	}
}

// Capabilities reports no optional features: sampler state belongs to the
// host creator.
func (d *ContextDevice) Capabilities() device.Capabilities {
	return device.Capabilities{MaxTextureDimension: 8192}
}

// Close destroys every tracked texture.
func (d *ContextDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	for id, tex := range d.textures {
		if destroyer, ok := tex.(textureDestroyer); ok {
			destroyer.Destroy()
		}
		delete(d.textures, id)
	}
	d.closed = true
	return nil
}
