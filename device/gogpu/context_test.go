package gogpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texstream/device"
)

// mockTexture is a host texture that records destruction.
type mockTexture struct {
	width, height int
	destroyed     bool
}

func (m *mockTexture) Destroy() { m.destroyed = true }

func (m *mockTexture) Width() int  { return m.width }
func (m *mockTexture) Height() int { return m.height }

// mockCreator implements gpucontext.TextureCreator.
type mockCreator struct {
	created  []*mockTexture
	failNext bool
}

func (m *mockCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if m.failNext {
		m.failNext = false
		return nil, errors.New("mock texture creation failed")
	}
	tex := &mockTexture{width: width, height: height}
	m.created = append(m.created, tex)
	return tex, nil
}

func rgba(w, h int) []byte {
	return make([]byte, w*h*4)
}

func TestContextDeviceCreateDestroy(t *testing.T) {
	creator := &mockCreator{}
	dev, err := NewContextDevice(creator)
	if err != nil {
		t.Fatalf("NewContextDevice: %v", err)
	}

	id, err := dev.CreateTexture2D(&device.Texture2DDescriptor{
		Width:  4,
		Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, rgba(4, 2))
	if err != nil {
		t.Fatalf("CreateTexture2D: %v", err)
	}
	if id == device.InvalidTexture {
		t.Fatal("CreateTexture2D returned InvalidTexture")
	}
	if len(creator.created) != 1 {
		t.Fatalf("creator calls = %d, want 1", len(creator.created))
	}
	if tex := creator.created[0]; tex.width != 4 || tex.height != 2 {
		t.Errorf("host texture size = %dx%d, want 4x2", tex.width, tex.height)
	}

	dev.DestroyTexture(id)
	if !creator.created[0].destroyed {
		t.Error("host texture not destroyed")
	}

	// Unknown IDs are ignored.
	dev.DestroyTexture(id)
	dev.DestroyTexture(device.TextureID(999))
}

func TestContextDeviceCreationFailure(t *testing.T) {
	creator := &mockCreator{failNext: true}
	dev, err := NewContextDevice(creator)
	if err != nil {
		t.Fatalf("NewContextDevice: %v", err)
	}

	id, err := dev.CreateTexture2D(&device.Texture2DDescriptor{
		Width:  2,
		Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, rgba(2, 2))
	if err == nil {
		t.Fatal("CreateTexture2D succeeded, want error")
	}
	if id != device.InvalidTexture {
		t.Errorf("id = %v, want InvalidTexture", id)
	}
}

func TestContextDeviceValidation(t *testing.T) {
	dev, err := NewContextDevice(&mockCreator{})
	if err != nil {
		t.Fatalf("NewContextDevice: %v", err)
	}

	if _, err := dev.CreateTexture2D(&device.Texture2DDescriptor{
		Width:  0,
		Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, nil); !errors.Is(err, device.ErrInvalidDimensions) {
		t.Errorf("zero width err = %v, want ErrInvalidDimensions", err)
	}

	if _, err := dev.CreateTexture2D(&device.Texture2DDescriptor{
		Width:  2,
		Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, rgba(1, 1)); !errors.Is(err, device.ErrPixelSizeMismatch) {
		t.Errorf("short pixels err = %v, want ErrPixelSizeMismatch", err)
	}
}

func TestContextDeviceClose(t *testing.T) {
	creator := &mockCreator{}
	dev, err := NewContextDevice(creator)
	if err != nil {
		t.Fatalf("NewContextDevice: %v", err)
	}

	_, err = dev.CreateTexture2D(&device.Texture2DDescriptor{
		Width:  2,
		Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, rgba(2, 2))
	if err != nil {
		t.Fatalf("CreateTexture2D: %v", err)
	}

	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !creator.created[0].destroyed {
		t.Error("host texture not destroyed on Close")
	}

	_, err = dev.CreateTexture2D(&device.Texture2DDescriptor{
		Width:  2,
		Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, rgba(2, 2))
	if !errors.Is(err, device.ErrDeviceClosed) {
		t.Errorf("err = %v, want ErrDeviceClosed", err)
	}
}

func TestNewContextDeviceNilCreator(t *testing.T) {
	if _, err := NewContextDevice(nil); !errors.Is(err, ErrNilCreator) {
		t.Errorf("err = %v, want ErrNilCreator", err)
	}
}

func TestMipLevelCount(t *testing.T) {
	tests := []struct {
		w, h uint32
		want uint32
	}{
		{1, 1, 1},
		{2, 2, 2},
		{4, 4, 3},
		{8, 4, 4},
		{256, 256, 9},
		{512, 128, 10},
	}
	for _, tt := range tests {
		if got := mipLevelCount(tt.w, tt.h); got != tt.want {
			t.Errorf("mipLevelCount(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestHalveRGBA(t *testing.T) {
	// 2x2 image: averaging four texels per channel.
	pix := []byte{
		0, 0, 0, 255, 100, 0, 0, 255,
		0, 200, 0, 255, 0, 0, 40, 255,
	}
	out, w, h := halveRGBA(pix, 2, 2)
	if w != 1 || h != 1 {
		t.Fatalf("size = %dx%d, want 1x1", w, h)
	}
	want := []byte{25, 50, 10, 255}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestHalveRGBAOddEdges(t *testing.T) {
	// A 3x1 row halves to 1x1 by clamping the sample window.
	pix := []byte{
		10, 0, 0, 255, 30, 0, 0, 255, 99, 0, 0, 255,
	}
	out, w, h := halveRGBA(pix, 3, 1)
	if w != 1 || h != 1 {
		t.Fatalf("size = %dx%d, want 1x1", w, h)
	}
	// Samples (0,0) and (1,0) twice each: (10+30+10+30)/4 = 20.
	if out[0] != 20 {
		t.Errorf("out[0] = %d, want 20", out[0])
	}
}
