package texture

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hyperview"
)

// Upload errors.
var (
	// ErrNilDevice is returned when constructing an uploader without a
	// device or queue.
	ErrNilDevice = errors.New("texture: nil device or queue")

	// ErrNoHALProvider is returned when a device provider does not
	// expose HAL handles.
	ErrNoHALProvider = errors.New("texture: provider does not expose HAL types")

	// ErrBadImage is returned for images with no layers or mismatched
	// layer sizes.
	ErrBadImage = errors.New("texture: invalid decoded image")
)

// Uploader turns decoded images into GPU texture-array entries.
//
// The uploader owns one shared bind group layout (a single 2D-array
// texture binding, fragment-visible); every entry's bind group is
// created against it, so a renderer can bind any cached image with the
// same pipeline layout. Uploader methods run on the interactive
// context.
type Uploader struct {
	device hal.Device
	queue  hal.Queue
	layout hal.BindGroupLayout
}

// NewUploader creates an uploader on the given device and queue.
func NewUploader(device hal.Device, queue hal.Queue) (*Uploader, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "hyperview_image_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2DArray,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("texture: create bind group layout: %w", err)
	}
	return &Uploader{device: device, queue: queue, layout: layout}, nil
}

// NewUploaderFromProvider creates an uploader from a shared device
// provider. The provider must expose HalDevice() any and HalQueue()
// any returning hal.Device and hal.Queue.
func NewUploaderFromProvider(provider gpucontext.DeviceProvider) (*Uploader, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}
	return NewUploader(device, queue)
}

// Device returns the uploader's HAL device, shared with the cache for
// entry destruction.
func (u *Uploader) Device() hal.Device { return u.device }

// Layout returns the shared bind group layout for building a render
// pipeline that samples uploaded entries.
func (u *Uploader) Layout() hal.BindGroupLayout { return u.layout }

// Upload creates a texture array for the image, writes every layer,
// and returns the entry owning the new resources. The image's layers
// must all be width*height*4 bytes.
func (u *Uploader) Upload(img *hyperview.DecodedImage) (*Entry, error) {
	if img == nil || len(img.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrBadImage)
	}
	w := uint32(img.Width)  //nolint:gosec // validated decode dimensions
	h := uint32(img.Height) //nolint:gosec // validated decode dimensions
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadImage, img.Width, img.Height)
	}
	layerBytes := int(w) * int(h) * 4
	for i, layer := range img.Layers {
		if len(layer) != layerBytes {
			return nil, fmt.Errorf("%w: layer %d has %d bytes, want %d", ErrBadImage, i, len(layer), layerBytes)
		}
	}
	layers := uint32(len(img.Layers)) //nolint:gosec // bounded by band count

	tex, err := u.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "hyperview_" + string(img.Name),
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: layers},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("texture: create array texture: %w", err)
	}

	for i, layer := range img.Layers {
		err := u.queue.WriteTexture(
			&hal.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   hal.Origin3D{X: 0, Y: 0, Z: uint32(i)}, //nolint:gosec // bounded by band count
				Aspect:   gputypes.TextureAspectAll,
			},
			layer,
			&hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  w * 4,
				RowsPerImage: h,
			},
			&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		)
		if err != nil {
			u.device.DestroyTexture(tex)
			return nil, fmt.Errorf("texture: write layer %d: %w", i, err)
		}
	}

	view, err := u.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "hyperview_" + string(img.Name) + "_view",
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2DArray,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: layers,
	})
	if err != nil {
		u.device.DestroyTexture(tex)
		return nil, fmt.Errorf("texture: create array view: %w", err)
	}

	bindGroup, err := u.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "hyperview_" + string(img.Name) + "_bind",
		Layout: u.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{
				TextureView: view.NativeHandle(),
			}},
		},
	})
	if err != nil {
		u.device.DestroyTextureView(view)
		u.device.DestroyTexture(tex)
		return nil, fmt.Errorf("texture: create bind group: %w", err)
	}

	return &Entry{
		Name:      img.Name,
		Texture:   tex,
		View:      view,
		BindGroup: bindGroup,
		Width:     w,
		Height:    h,
		NumBands:  img.NumBands,
		NumLayers: len(img.Layers),
	}, nil
}

// Wrap builds an entry around a texture the caller created and filled
// itself, for workflows where upload happens incrementally outside
// this package. The texture must be an RGBA8 2D array with numLayers
// layers; the entry takes ownership of it, adding the array view and
// bind group that Upload would have produced.
func (u *Uploader) Wrap(name hyperview.Identity, tex hal.Texture, width, height uint32, numBands, numLayers int) (*Entry, error) {
	if tex == nil || width == 0 || height == 0 || numLayers < 1 {
		return nil, fmt.Errorf("%w: wrap %s", ErrBadImage, name)
	}

	view, err := u.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "hyperview_" + string(name) + "_view",
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2DArray,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: uint32(numLayers), //nolint:gosec // bounded by band count
	})
	if err != nil {
		return nil, fmt.Errorf("texture: create array view: %w", err)
	}

	bindGroup, err := u.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "hyperview_" + string(name) + "_bind",
		Layout: u.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{
				TextureView: view.NativeHandle(),
			}},
		},
	})
	if err != nil {
		u.device.DestroyTextureView(view)
		return nil, fmt.Errorf("texture: create bind group: %w", err)
	}

	return &Entry{
		Name:      name,
		Texture:   tex,
		View:      view,
		BindGroup: bindGroup,
		Width:     width,
		Height:    height,
		NumBands:  numBands,
		NumLayers: numLayers,
	}, nil
}

// Destroy releases the shared bind group layout. Entries remain valid
// for destruction but no further uploads are possible.
func (u *Uploader) Destroy() {
	if u.layout != nil {
		u.device.DestroyBindGroupLayout(u.layout)
		u.layout = nil
	}
}
