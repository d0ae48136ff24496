// Package gogpu provides the production texture device for the streaming
// cache, backed by the gogpu/gogpu GPU framework.
//
// gogpu's gpu.Backend interface supports both Rust (wgpu-native) and Pure Go
// implementations. Select one by importing the matching package:
//
//	import _ "github.com/gogpu/gogpu/gpu/backend/rust"   // Rust (wgpu-native)
//	import _ "github.com/gogpu/gogpu/gpu/backend/native" // Pure Go
//
// Importing this package registers the "gogpu" factory with the device
// registry, making it the preferred device for device.Default().
package gogpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gogpu/gpu"
	"github.com/gogpu/gogpu/gpu/types"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texstream/device"
)

// Name is the registry name of this device.
const Name = "gogpu"

// Package errors.
var (
	// ErrNoGPUBackend is returned when no gogpu backend is available.
	ErrNoGPUBackend = errors.New("gogpu: no GPU backend available")

	// ErrDeviceCreationFailed is returned when GPU device creation fails.
	ErrDeviceCreationFailed = errors.New("gogpu: device creation failed")
)

// init registers the device factory on package import.
func init() {
	device.Register(Name, func() (device.Device, error) {
		return New()
	})
}

// Device creates and destroys sampled 2D textures through gogpu.
//
// Mip chains are generated on the CPU with a 2x2 box filter and uploaded
// level by level; gogpu's gpu.Backend exposes no mipmap generation pass.
type Device struct {
	mu sync.Mutex

	backend  gpu.Backend
	instance types.Instance
	adapter  types.Adapter
	device   types.Device
	queue    types.Queue

	textures map[device.TextureID]types.Texture
	nextID   uint64

	closed bool
}

// New creates the device: it acquires the active gogpu backend (initializing
// the default one if necessary), requests a high-performance adapter, and
// creates a logical device and queue.
func New() (*Device, error) {
	backend := gpu.GetBackend()
	if backend == nil {
		if err := gpu.InitDefaultBackend(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoGPUBackend, err)
		}
		backend = gpu.GetBackend()
	}
	if backend == nil {
		return nil, ErrNoGPUBackend
	}

	instance, err := backend.CreateInstance()
	if err != nil {
		return nil, fmt.Errorf("gogpu: instance creation failed: %w", err)
	}

	adapter, err := backend.RequestAdapter(instance, &types.AdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoGPUBackend, err)
	}

	dev, err := backend.RequestDevice(adapter, &types.DeviceOptions{
		Label: "texstream-device",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceCreationFailed, err)
	}

	return &Device{
		backend:  backend,
		instance: instance,
		adapter:  adapter,
		device:   dev,
		queue:    backend.GetQueue(dev),
		textures: make(map[device.TextureID]types.Texture),
	}, nil
}

// Name returns "gogpu".
func (d *Device) Name() string { return Name }

// CreateTexture2D creates a sampled texture and writes all mip levels.
func (d *Device) CreateTexture2D(desc *device.Texture2DDescriptor, pixels []byte) (device.TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return device.InvalidTexture, fmt.Errorf("%w: %dx%d", device.ErrInvalidDimensions, desc.Width, desc.Height)
	}
	if desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return device.InvalidTexture, fmt.Errorf("%w: %v", device.ErrUnsupportedFormat, desc.Format)
	}
	if len(pixels) != int(desc.Width)*int(desc.Height)*4 {
		return device.InvalidTexture, device.ErrPixelSizeMismatch
	}

	mipLevels := uint32(1)
	if desc.Mipmaps {
		mipLevels = mipLevelCount(desc.Width, desc.Height)
	}

	texDesc := &types.TextureDescriptor{
		Label: desc.Label,
		Size: gputypes.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: mipLevels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return device.InvalidTexture, device.ErrDeviceClosed
	}

	texture, err := d.backend.CreateTexture(d.device, texDesc)
	if err != nil {
		return device.InvalidTexture, fmt.Errorf("gogpu: failed to create texture: %w", err)
	}

	w, h, level := desc.Width, desc.Height, pixels
	for mip := uint32(0); mip < mipLevels; mip++ {
		d.writeLevel(texture, mip, w, h, level)
		if mip+1 < mipLevels {
			level, w, h = halveRGBA(level, w, h)
		}
	}

	d.nextID++
	id := device.TextureID(d.nextID)
	d.textures[id] = texture
	return id, nil
}

// writeLevel uploads one mip level.
func (d *Device) writeLevel(texture types.Texture, mip, w, h uint32, pixels []byte) {
	dst := &types.ImageCopyTexture{
		Texture:  texture,
		MipLevel: mip,
		Origin:   gputypes.Origin3D{X: 0, Y: 0, Z: 0},
		Aspect:   gputypes.TextureAspectAll,
	}
	layout := &types.ImageDataLayout{
		Offset:       0,
		BytesPerRow:  w * 4,
		RowsPerImage: h,
	}
	size := &gputypes.Extent3D{
		Width:              w,
		Height:             h,
		DepthOrArrayLayers: 1,
	}
	d.backend.WriteTexture(d.queue, dst, pixels, layout, size)
}

// DestroyTexture releases a texture. Unknown IDs are ignored.
func (d *Device) DestroyTexture(id device.TextureID) {
	d.mu.Lock()
	texture, ok := d.textures[id]
	if ok {
		delete(d.textures, id)
	}
	d.mu.Unlock()

	if ok {
		d.backend.ReleaseTexture(texture)
	}
}

// Capabilities reports anisotropic filtering support. All wgpu-class
// hardware supports 16x anisotropy.
func (d *Device) Capabilities() device.Capabilities {
	return device.Capabilities{
		AnisotropicFiltering: true,
		MaxAnisotropy:        16,
		MaxTextureDimension:  8192,
	}
}

// Close releases every texture still alive. Instance, adapter, device and
// queue handles are managed by the gogpu backend and need no explicit
// release.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	for id, texture := range d.textures {
		d.backend.ReleaseTexture(texture)
		delete(d.textures, id)
	}

	d.device = 0
	d.adapter = 0
	d.instance = 0
	d.queue = 0
	d.backend = nil
	d.closed = true
	return nil
}

// mipLevelCount returns the number of levels in a full chain down to 1x1.
func mipLevelCount(w, h uint32) uint32 {
	levels := uint32(1)
	for w > 1 || h > 1 {
		w = maxU32(w/2, 1)
		h = maxU32(h/2, 1)
		levels++
	}
	return levels
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// halveRGBA downsamples tightly packed RGBA pixels by a factor of two with
// a 2x2 box filter, clamping at odd edges.
func halveRGBA(pix []byte, w, h uint32) ([]byte, uint32, uint32) {
	nw := maxU32(w/2, 1)
	nh := maxU32(h/2, 1)
	out := make([]byte, int(nw)*int(nh)*4)

	for y := uint32(0); y < nh; y++ {
		y0 := y * 2
		y1 := y0 + 1
		if y1 >= h {
			y1 = h - 1
		}
		for x := uint32(0); x < nw; x++ {
			x0 := x * 2
			x1 := x0 + 1
			if x1 >= w {
				x1 = w - 1
			}
			for c := uint32(0); c < 4; c++ {
				sum := uint32(pix[(y0*w+x0)*4+c]) +
					uint32(pix[(y0*w+x1)*4+c]) +
					uint32(pix[(y1*w+x0)*4+c]) +
					uint32(pix[(y1*w+x1)*4+c])
				out[(y*nw+x)*4+c] = uint8(sum / 4)
			}
		}
	}
	return out, nw, nh
}
