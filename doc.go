// Package hyperview provides a windowed preload and GPU-texture cache for
// browsing long, ordered sequences of multi-band (hyperspectral) images.
//
// # Overview
//
// A hyperspectral dataset is typically far too large to keep GPU-resident,
// and decoding a single capture is too slow to do on the interactive
// thread. hyperview keeps a small sliding window of images uploaded as
// GPU texture arrays, decodes neighbors in the background, and evicts
// everything that falls outside the window as the user navigates. The
// sequence is logically circular: stepping past either end wraps around.
//
// The library is organized into:
//   - Root package: image identities, circular sequence arithmetic, and
//     the pure band-to-RGBA8-layer packing transform.
//   - decode: turns raw bytes into normalized float bands plus packed
//     layers (NumPy .npy multi-band data, with a standard-image fallback).
//   - executor: the background decode engine. One contract, two
//     substrates: a dedicated goroutine natively, a Web Worker on
//     js/wasm builds.
//   - texture: GPU texture-array upload and the keep-window cache built
//     on gogpu/wgpu.
//   - preload: the non-blocking tick loop that drives the other three.
//
// # Quick Start
//
//	seq := hyperview.NewSequence(names)
//	exec, err := executor.Spawn()
//	if err != nil {
//	    return err
//	}
//	defer exec.Close()
//
//	up, err := texture.NewUploader(device, queue)
//	if err != nil {
//	    return err
//	}
//	cache := texture.NewCache(device, texture.WithPreloadCount(2))
//
//	ctrl := preload.NewController(exec, cache, up, reader, seq)
//
//	// Once per frame, from the interactive context:
//	ctrl.Tick() // never blocks
//	if entry, ok := ctrl.TakeCurrent(); ok {
//	    // hand entry to the render slot
//	}
//
// # Concurrency Model
//
// There is exactly one interactive context and one background decode
// context. All CPU-bound work (format sniffing, array parsing, band
// packing) happens in the background context. The only data shared
// between the two is the pending-identity set and the result queue;
// everything else is handed off by value at the result boundary.
//
// # Logging
//
// hyperview produces no log output by default. Call SetLogger to enable
// diagnostics for decode failures, cache eviction, and worker lifecycle.
package hyperview
