package texstream

import (
	"io/fs"
	"os"

	"github.com/gogpu/texstream/decode"
)

// decodeResult crosses the worker/graphics-thread boundary: one fully
// decoded payload, or the error that ended the attempt. Immutable once sent.
type decodeResult[K comparable] struct {
	identity K
	path     string
	res      *decode.Result
	err      error
}

// dispatch adds id to the pending-decode set and submits a decode task for
// its path. Called on the graphics thread with id neither resident nor
// pending.
//
// The metadata resolver is consulted here, not in the worker, so worker
// goroutines never call back into caller code concurrently.
func (c *Cache[K]) dispatch(id K, path string) {
	var meta decode.Meta
	if c.metaFn != nil {
		meta = c.metaFn(id)
	}

	fsys := c.fsys
	opts := c.decodeOpts
	results := c.results
	quit := c.quit

	ok := c.pool.TrySubmit(func() {
		res, err := decode.File(fsys, path, meta, opts)
		select {
		case results <- decodeResult[K]{identity: id, path: path, res: res, err: err}:
		case <-quit:
			// Cache is closing; the payload is no longer wanted.
		}
	})
	if !ok {
		// Task queue saturated (or pool stopped). Leave the identity out of
		// the pending set so a later GetOrLoad retries the dispatch.
		Logger().Debug("decode dispatch deferred", "path", path)
		return
	}

	c.pending[id] = path
}

// osFS opens resolver paths directly through the operating system, so
// absolute paths work. The default when WithFS is not given.
type osFS struct{}

func (osFS) Open(name string) (fs.File, error) { return os.Open(name) }
