// Package texture owns the GPU side of the preload window: uploading
// decoded images as RGBA8 2D texture arrays and caching them keyed by
// identity with index-distance eviction over a circular sequence.
//
// All types here are driven from the interactive context. GPU resource
// lifetime is explicit: each cache entry exclusively owns its texture,
// view, and bind group, and eviction destroys them synchronously.
package texture
