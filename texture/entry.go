package texture

import (
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hyperview"
)

// Entry is one GPU-resident image: the texture array holding its
// packed band layers plus the view and bind group a renderer consumes.
//
// An Entry exclusively owns its GPU resources. Whoever holds the entry
// (the cache, or a caller after Take) is responsible for calling
// Destroy exactly when the image leaves the keep window.
type Entry struct {
	// Name is the identity the entry was uploaded for.
	Name hyperview.Identity

	// Texture is the RGBA8 2D array texture, one layer per packed
	// band group.
	Texture hal.Texture

	// View covers all array layers as a 2D-array view.
	View hal.TextureView

	// BindGroup binds View for sampling in a downstream pipeline.
	BindGroup hal.BindGroup

	// Width and Height are the pixel dimensions.
	Width  uint32
	Height uint32

	// NumBands and NumLayers describe the packed band layout.
	NumBands  int
	NumLayers int

	mu        sync.Mutex
	destroyed bool
}

// Destroy releases the entry's GPU resources. It is idempotent and
// synchronous: when it returns the texture memory is reclaimable.
func (e *Entry) Destroy(device hal.Device) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	bindGroup := e.BindGroup
	view := e.View
	tex := e.Texture
	e.BindGroup = nil
	e.View = nil
	e.Texture = nil
	e.mu.Unlock()

	if bindGroup != nil {
		device.DestroyBindGroup(bindGroup)
	}
	if view != nil {
		device.DestroyTextureView(view)
	}
	if tex != nil {
		device.DestroyTexture(tex)
	}
}

// IsDestroyed reports whether Destroy has run.
func (e *Entry) IsDestroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}
