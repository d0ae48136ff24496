package texstream

import (
	"container/list"

	"github.com/gogpu/texstream/device"
)

// entry is one resident texture: a GPU resource plus the bookkeeping that
// keeps it reachable by identity and by source path.
//
// Every live entry is linked into the recency list, indexed by exactly one
// path, and reachable from at least one identity. All three references are
// added and removed together, so the invariant holds at every point the
// graphics thread can observe.
type entry[K comparable] struct {
	tex       device.TextureID
	width     uint32
	height    uint32
	sizeBytes int64

	// lastUsedFrame is the cache frame counter value at the most recent hit.
	lastUsedFrame uint64

	// path is the source file; unique across resident entries.
	path string

	// identities holds every identity aliased to this entry.
	identities map[K]struct{}

	elem *list.Element
}

// residencyIndex is the LRU index and memory accountant for resident
// textures. It is single-writer: only the graphics thread touches it, so it
// carries no locking (the cache's concurrency contract).
type residencyIndex[K comparable] struct {
	// lru orders entries by recency; front is most recently used.
	// Element values are *entry[K].
	lru *list.List

	byIdentity map[K]*entry[K]
	byPath     map[string]*entry[K]

	// bytes is the running total of accounted sizes over all residents.
	// Invariant: equals the sum of entry.sizeBytes across the list.
	bytes int64
}

func newResidencyIndex[K comparable]() *residencyIndex[K] {
	return &residencyIndex[K]{
		lru:        list.New(),
		byIdentity: make(map[K]*entry[K]),
		byPath:     make(map[string]*entry[K]),
	}
}

// insert links a new entry at the most-recently-used position and indexes
// it under the given identity and its path.
func (ri *residencyIndex[K]) insert(e *entry[K], id K, frame uint64) {
	e.lastUsedFrame = frame
	e.identities = map[K]struct{}{id: {}}
	e.elem = ri.lru.PushFront(e)
	ri.byIdentity[id] = e
	ri.byPath[e.path] = e
	ri.bytes += e.sizeBytes
}

// alias registers an additional identity against an existing entry.
func (ri *residencyIndex[K]) alias(e *entry[K], id K) {
	e.identities[id] = struct{}{}
	ri.byIdentity[id] = e
}

// touch bumps an entry to the most-recently-used position.
func (ri *residencyIndex[K]) touch(e *entry[K], frame uint64) {
	ri.lru.MoveToFront(e.elem)
	e.lastUsedFrame = frame
}

// remove unlinks an entry from the recency list and both index maps and
// subtracts its size from the running total. The caller destroys the GPU
// resource.
func (ri *residencyIndex[K]) remove(e *entry[K]) {
	ri.lru.Remove(e.elem)
	for id := range e.identities {
		delete(ri.byIdentity, id)
	}
	delete(ri.byPath, e.path)
	ri.bytes -= e.sizeBytes
	e.elem = nil
	e.identities = nil
}

// tail returns the least-recently-used entry, or nil when empty.
func (ri *residencyIndex[K]) tail() *entry[K] {
	elem := ri.lru.Back()
	if elem == nil {
		return nil
	}
	return elem.Value.(*entry[K])
}

// len returns the number of resident entries.
func (ri *residencyIndex[K]) len() int {
	return ri.lru.Len()
}

// staleEntries returns every entry whose last use is older than
// frame - framesToKeep, oldest first.
func (ri *residencyIndex[K]) staleEntries(frame uint64, framesToKeep int) []*entry[K] {
	if framesToKeep < 0 {
		framesToKeep = 0
	}
	keep := uint64(framesToKeep)

	var stale []*entry[K]
	for elem := ri.lru.Back(); elem != nil; elem = elem.Prev() {
		e := elem.Value.(*entry[K])
		if e.lastUsedFrame+keep < frame {
			stale = append(stale, e)
		}
	}
	return stale
}

// all returns every resident entry, least recently used first.
func (ri *residencyIndex[K]) all() []*entry[K] {
	out := make([]*entry[K], 0, ri.lru.Len())
	for elem := ri.lru.Back(); elem != nil; elem = elem.Prev() {
		out = append(out, elem.Value.(*entry[K]))
	}
	return out
}
