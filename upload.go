package texstream

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/texstream/decode"
	"github.com/gogpu/texstream/device"
)

// mipOverhead approximates the geometric series of a full mip chain:
// accounted size is the base level scaled by 1.33.
const mipOverhead = 1.33

// ProcessPendingUploads drains at most maxPerFrame decoded payloads from the
// result channel and uploads them, amortizing upload cost across frames. It
// never blocks: when the channel is empty it returns immediately.
// maxPerFrame <= 0 means no limit. Returns the number of results processed,
// counting decode failures as well as uploads and aliases, so a frame's
// drain work stays observable even when every payload fails.
//
// Must be called on the graphics thread.
func (c *Cache[K]) ProcessPendingUploads(maxPerFrame int) int {
	if c.closed {
		return 0
	}

	processed := 0
	for maxPerFrame <= 0 || processed < maxPerFrame {
		select {
		case r := <-c.results:
			c.handleResult(r)
			processed++
		default:
			return processed
		}
	}
	return processed
}

// FlushPendingUploads blocks until every outstanding decode has been
// processed (or maxProcessed results have been handled, when
// maxProcessed > 0). Returns the number of results processed, failures
// included. Used when the caller can tolerate blocking, e.g. before the
// first paint of a scene, to avoid visible texture pop-in.
//
// Must be called on the graphics thread.
func (c *Cache[K]) FlushPendingUploads(maxProcessed int) int {
	if c.closed {
		return 0
	}

	processed := 0
	for len(c.pending) > 0 && (maxProcessed <= 0 || processed < maxProcessed) {
		r := <-c.results
		c.handleResult(r)
		processed++
	}
	return processed
}

// handleResult applies one decode result on the graphics thread: clears the
// pending entry, then either aliases, uploads, or logs a failure.
func (c *Cache[K]) handleResult(r decodeResult[K]) {
	// Clearing pending first makes failures retryable: the next GetOrLoad
	// for this identity dispatches a fresh decode.
	delete(c.pending, r.identity)

	if r.err != nil {
		Logger().Warn("texture decode failed", "path", r.path, "err", r.err)
		return
	}

	// Two identities resolving to the same file can decode concurrently;
	// the second arrival aliases the winner and its pixels are discarded.
	if e, ok := c.idx.byPath[r.path]; ok {
		c.idx.alias(e, r.identity)
		c.idx.touch(e, c.frame)
		return
	}

	size := accountedSize(r.res)
	c.ensureCapacity(size)

	tex, err := c.dev.CreateTexture2D(descriptorFor(r.res, r.path, c.dev.Capabilities()), uploadPixels(r.res))
	if err != nil {
		Logger().Warn("texture creation failed", "path", r.path, "err", err)
		return
	}

	e := &entry[K]{
		tex:       tex,
		width:     uint32(r.res.Width),
		height:    uint32(r.res.Height),
		sizeBytes: size,
		path:      r.path,
	}
	c.idx.insert(e, r.identity, c.frame)

	Logger().Debug("texture uploaded",
		"path", r.path,
		"size", size,
		"hdr", r.res.HDR,
		"format", r.res.Format.String())
}

// ensureCapacity evicts least-recently-used entries until the incoming size
// fits under both budgets. A single texture larger than the whole memory
// budget still uploads after everything else is evicted; the byte ceiling is
// otherwise never exceeded.
//
// Eviction does not pin textures touched this frame: the budget is a hard
// ceiling, and deferring destruction to a frame boundary is the renderer's
// concern.
func (c *Cache[K]) ensureCapacity(incoming int64) {
	for c.idx.len() > 0 &&
		(c.idx.bytes+incoming > c.maxBytes || c.idx.len()+1 > c.maxCount) {
		e := c.idx.tail()
		if e == nil {
			return
		}
		c.destroyEntry(e, "budget")
	}
}

// descriptorFor builds the device descriptor for a decoded payload. Standard
// textures get a mip chain with trilinear minification (plus anisotropy when
// the device supports it); HDR previews are bilinear-only with no mips to
// bound memory and avoid artifacts from tone-mapped levels.
func descriptorFor(res *decode.Result, label string, caps device.Capabilities) *device.Texture2DDescriptor {
	desc := &device.Texture2DDescriptor{
		Label:  label,
		Width:  uint32(res.Width),
		Height: uint32(res.Height),
		Format: gputypes.TextureFormatRGBA8Unorm,
		Wrap:   device.WrapRepeat,
	}
	if res.HDR {
		desc.Filter = device.FilterBilinear
		return desc
	}
	desc.Mipmaps = true
	desc.Filter = device.FilterTrilinear
	desc.Anisotropic = caps.AnisotropicFiltering
	return desc
}

// uploadPixels returns the payload as tightly packed RGBA rows, expanding
// 3-channel buffers with opaque alpha. Accounting still uses the logical
// 3-byte texel size; the expansion exists only because GPU storage is RGBA.
func uploadPixels(res *decode.Result) []byte {
	if res.Format == decode.RGBA8 {
		return res.Pix
	}
	texels := res.Width * res.Height
	out := make([]byte, texels*4)
	for i := 0; i < texels; i++ {
		copy(out[i*4:], res.Pix[i*3:i*3+3])
		out[i*4+3] = 0xFF
	}
	return out
}

// accountedSize is the resource's budget charge: width*height*bytesPerTexel,
// scaled by the mip series for standard textures. HDR previews carry no mips
// and are charged at their tone-mapped LDR size, not the source float size.
func accountedSize(res *decode.Result) int64 {
	base := res.SizeBytes()
	if res.HDR {
		return base
	}
	return int64(float64(base) * mipOverhead)
}
