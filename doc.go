// Package texstream implements a GPU texture streaming cache.
//
// # Overview
//
// A renderer asks for textures by opaque identity (for example a content
// GUID) and always gets a usable GPU handle back immediately: either the
// resident texture, or a 1x1 opaque placeholder while the real pixels are
// decoded in the background. Decoding runs on a worker pool; finished pixel
// buffers cross back to the graphics thread over a bounded channel and are
// uploaded there, a few per frame, so texture pop-in never stalls a frame.
//
// Resident textures live in an LRU index under hard memory and count
// budgets. Identities that resolve to the same file share one GPU resource.
//
// # Quick Start
//
//	dev, err := device.Default()
//	if err != nil {
//	    return err
//	}
//	cache, err := texstream.New[string](dev)
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	// Each frame, on the graphics thread:
//	cache.AdvanceFrame()
//	cache.ProcessPendingUploads(4)
//	tex := cache.GetOrLoad(assetGUID, assetDB.ResolvePath)
//
// # Threading
//
// Every Cache method must be called from the thread that owns the graphics
// context. The cache owns its decode workers internally; the only structure
// shared with them is the bounded result channel.
package texstream
