package texstream

import (
	"fmt"
	"io/fs"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/texstream/decode"
	"github.com/gogpu/texstream/device"
	"github.com/gogpu/texstream/internal/workpool"
)

// Resolver maps an identity to the path of its source file. It must be a
// pure function with no side effects; the cache may call it at most once per
// GetOrLoad. Returning ("", false) means the identity is unresolvable: the
// caller gets the placeholder and no decode is dispatched until GetOrLoad is
// called again with a resolver that succeeds.
type Resolver[K comparable] func(K) (string, bool)

// MetaResolver supplies side-channel asset metadata (normal-map flags) for
// an identity. See [Cache.SetMetaResolver].
type MetaResolver[K comparable] func(K) decode.Meta

// Cache streams 2D textures onto a GPU device under hard memory and count
// budgets.
//
// All methods must be called from the thread that owns the graphics context;
// the LRU index, both identity/path maps, and the pending-decode set are
// single-writer structures owned by that thread. Decode workers run
// internally and communicate only over the bounded result channel.
type Cache[K comparable] struct {
	dev  device.Device
	fsys fs.FS

	decodeOpts decode.Options
	metaFn     MetaResolver[K]

	idx *residencyIndex[K]

	// pending is the pending-decode set: identities dispatched to a worker
	// but not yet processed by the upload scheduler. Graphics-thread-owned;
	// workers never touch it.
	pending map[K]string

	// results carries decoded payloads (and decode failures) from workers
	// back to the graphics thread. Bounded: full channel blocks workers.
	results chan decodeResult[K]

	// quit releases workers blocked on the results channel during Close.
	quit chan struct{}

	pool *workpool.Pool

	placeholder device.TextureID

	maxBytes int64
	maxCount int

	frame  uint64
	closed bool

	// Statistics (atomic for zero-allocation reads).
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Stats is a read-only snapshot of cache state.
type Stats struct {
	// ResidentCount is the number of resident textures (placeholder excluded).
	ResidentCount int
	// BytesUsed is the accounted size of all resident textures.
	BytesUsed int64
	// MaxCount is the hard ceiling on resident texture count.
	MaxCount int
	// MaxBytes is the hard ceiling on resident texture bytes.
	MaxBytes int64
	// PendingDecodes is the number of identities currently being decoded.
	PendingDecodes int
	// Hits is the number of GetOrLoad calls answered by a resident texture.
	Hits uint64
	// Misses is the number of GetOrLoad calls answered by the placeholder.
	Misses uint64
	// Evictions is the number of textures destroyed by budget pressure,
	// sweeps, invalidation, or clears.
	Evictions uint64
}

// New creates a texture streaming cache on the given device and immediately
// creates the always-resident 1x1 opaque placeholder texture. The cache does
// not take ownership of the device.
func New[K comparable](dev device.Device, opts ...Option) (*Cache[K], error) {
	if dev == nil {
		return nil, ErrNilDevice
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.fsys == nil {
		cfg.fsys = osFS{}
	}

	placeholder, err := dev.CreateTexture2D(&device.Texture2DDescriptor{
		Label:  "texstream/placeholder",
		Width:  1,
		Height: 1,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Filter: device.FilterBilinear,
		Wrap:   device.WrapRepeat,
	}, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlaceholderFailed, err)
	}

	c := &Cache[K]{
		dev:         dev,
		fsys:        cfg.fsys,
		decodeOpts:  cfg.decodeOpts,
		idx:         newResidencyIndex[K](),
		pending:     make(map[K]string),
		results:     make(chan decodeResult[K], cfg.queueDepth),
		quit:        make(chan struct{}),
		pool:        workpool.New(cfg.workers, cfg.queueDepth*4),
		placeholder: placeholder,
		maxBytes:    cfg.maxBytes,
		maxCount:    cfg.maxCount,
	}

	Logger().Info("texture cache initialized",
		"device", dev.Name(),
		"maxBytes", c.maxBytes,
		"maxTextures", c.maxCount)
	return c, nil
}

// SetMetaResolver installs the callback that supplies side-channel asset
// metadata (normal-map and green-flip flags) per identity. Call it before
// the first GetOrLoad, from the graphics thread. A nil resolver means all
// assets are plain color textures.
func (c *Cache[K]) SetMetaResolver(fn MetaResolver[K]) {
	c.metaFn = fn
}

// Placeholder returns the handle of the always-resident 1x1 placeholder
// texture. It is never evicted and is not counted in Stats.
func (c *Cache[K]) Placeholder() device.TextureID {
	return c.placeholder
}

// GetOrLoad returns the resident texture for id, or the placeholder while
// the texture is being streamed in. It never blocks and performs no file or
// GPU I/O itself; on a first sighting it dispatches a background decode.
//
// Identities whose resolver yields the same path share one GPU resource.
func (c *Cache[K]) GetOrLoad(id K, resolve Resolver[K]) device.TextureID {
	if c.closed {
		return c.placeholder
	}

	if e, ok := c.idx.byIdentity[id]; ok {
		c.idx.touch(e, c.frame)
		c.hits.Add(1)
		return e.tex
	}

	c.misses.Add(1)

	if _, ok := c.pending[id]; ok {
		return c.placeholder
	}

	if resolve == nil {
		return c.placeholder
	}
	path, ok := resolve(id)
	if !ok || path == "" {
		return c.placeholder
	}

	// A different identity may already have this file resident.
	if e, ok := c.idx.byPath[path]; ok {
		c.idx.alias(e, id)
		c.idx.touch(e, c.frame)
		return e.tex
	}

	c.dispatch(id, path)
	return c.placeholder
}

// Preload warms the cache for id without using the result. Equivalent to a
// GetOrLoad whose handle is discarded.
func (c *Cache[K]) Preload(id K, resolve Resolver[K]) {
	_ = c.GetOrLoad(id, resolve)
}

// Invalidate force-evicts the texture backing id, e.g. because the source
// asset changed on disk. Every identity aliased to the same file loses
// residency; the next GetOrLoad re-triggers a decode from scratch.
func (c *Cache[K]) Invalidate(id K) {
	if e, ok := c.idx.byIdentity[id]; ok {
		c.destroyEntry(e, "invalidated")
	}
}

// FreeUnusedTextures evicts every resident texture that has not been touched
// within the last framesToKeep frames. Periodic housekeeping, independent of
// budget pressure.
func (c *Cache[K]) FreeUnusedTextures(framesToKeep int) {
	for _, e := range c.idx.staleEntries(c.frame, framesToKeep) {
		c.destroyEntry(e, "unused")
	}
}

// Clear evicts every resident texture except the placeholder. Pending
// decodes are unaffected and will upload on subsequent drains.
func (c *Cache[K]) Clear() {
	for _, e := range c.idx.all() {
		c.destroyEntry(e, "clear")
	}
}

// AdvanceFrame advances the cache's frame clock. Call once per rendered
// frame; recency bookkeeping and FreeUnusedTextures key off it.
func (c *Cache[K]) AdvanceFrame() {
	c.frame++
}

// Stats returns a snapshot of cache state. The byte total equals the sum of
// accounted sizes over all resident entries at every point in time.
func (c *Cache[K]) Stats() Stats {
	return Stats{
		ResidentCount:  c.idx.len(),
		BytesUsed:      c.idx.bytes,
		MaxCount:       c.maxCount,
		MaxBytes:       c.maxBytes,
		PendingDecodes: len(c.pending),
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		Evictions:      c.evictions.Load(),
	}
}

// Close shuts the cache down: stops decode workers, discards undelivered
// results, and destroys every GPU texture including the placeholder. The
// device itself stays open (the caller owns it). Idempotent.
func (c *Cache[K]) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	// Release workers blocked on a full results channel, then wait for
	// in-flight tasks.
	close(c.quit)
	c.pool.Shutdown()

	// Discard anything that arrived meanwhile.
	for {
		select {
		case <-c.results:
			continue
		default:
		}
		break
	}

	for _, e := range c.idx.all() {
		c.idx.remove(e)
		c.dev.DestroyTexture(e.tex)
	}
	c.dev.DestroyTexture(c.placeholder)
	c.placeholder = device.InvalidTexture
	c.pending = make(map[K]string)

	Logger().Info("texture cache closed")
	return nil
}

// destroyEntry removes an entry from the index and destroys its GPU
// resource.
func (c *Cache[K]) destroyEntry(e *entry[K], reason string) {
	c.idx.remove(e)
	c.dev.DestroyTexture(e.tex)
	c.evictions.Add(1)

	Logger().Debug("texture evicted",
		"path", e.path,
		"width", e.width,
		"height", e.height,
		"bytes", e.sizeBytes,
		"reason", reason)
}
