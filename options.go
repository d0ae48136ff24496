package texstream

import (
	"io/fs"

	"github.com/gogpu/texstream/decode"
)

// Default configuration constants.
const (
	// DefaultMemoryBudget is the default hard ceiling on resident texture
	// bytes (512 MiB).
	DefaultMemoryBudget = 512 * 1024 * 1024

	// DefaultMaxTextures is the default hard ceiling on resident texture
	// count.
	DefaultMaxTextures = 1024

	// DefaultQueueDepth is the default capacity of the decode result
	// channel. A full channel blocks decode workers, so a slow graphics
	// thread naturally backpressures decode throughput.
	DefaultQueueDepth = 64
)

// config holds constructor configuration. Identity-typed callbacks
// (the asset metadata resolver) are set on the cache itself; see
// [Cache.SetMetaResolver].
type config struct {
	maxBytes   int64
	maxCount   int
	workers    int
	queueDepth int
	fsys       fs.FS
	decodeOpts decode.Options
}

func defaultConfig() config {
	return config{
		maxBytes:   DefaultMemoryBudget,
		maxCount:   DefaultMaxTextures,
		queueDepth: DefaultQueueDepth,
	}
}

// Option configures a Cache.
type Option func(*config)

// WithMemoryBudget sets the hard ceiling on resident texture bytes.
// Non-positive values select the default.
func WithMemoryBudget(bytes int64) Option {
	return func(c *config) {
		if bytes > 0 {
			c.maxBytes = bytes
		}
	}
}

// WithMaxTextures sets the hard ceiling on resident texture count.
// Non-positive values select the default.
func WithMaxTextures(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxCount = n
		}
	}
}

// WithWorkers sets the number of decode worker goroutines.
// If n <= 0, GOMAXPROCS is used.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithQueueDepth sets the capacity of the decode result channel.
// Non-positive values select the default.
func WithQueueDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueDepth = n
		}
	}
}

// WithFS sets the filesystem the decode workers read assets from.
// By default paths returned by resolvers are opened directly through the
// operating system, so absolute paths work. Tests pass an fstest.MapFS.
func WithFS(fsys fs.FS) Option {
	return func(c *config) {
		c.fsys = fsys
	}
}

// WithDecodeOptions sets the decode pipeline parameters (HDR exposure,
// gamma, preview size cap).
func WithDecodeOptions(o decode.Options) Option {
	return func(c *config) {
		c.decodeOpts = o
	}
}
