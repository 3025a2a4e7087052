package decode

import (
	"errors"
	"fmt"

	"github.com/gogpu/hyperview"
)

// Decode errors.
var (
	// ErrEmptyData is returned when the payload is empty.
	ErrEmptyData = errors.New("decode: empty data")

	// ErrUnsupportedFormat is returned when the payload matches no
	// known multi-band or standard image format.
	ErrUnsupportedFormat = errors.New("decode: unsupported format")
)

// Decode decodes one image payload into packed RGBA8 texture layers.
//
// The payload may be wrapped in zstd or gzip compression; the wrapper
// is removed transparently before format detection. A NumPy .npy array
// of float32 or float64 samples is decoded as a multi-band image; any
// other payload goes through the standard image decoders and yields
// three bands (R, G, B).
//
// Decode never panics on malformed data; all faults come back as
// errors wrapping ErrEmptyData, ErrUnsupportedFormat, or the
// underlying parser error.
func Decode(name hyperview.Identity, data []byte) (*hyperview.DecodedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, name)
	}

	data, err := maybeDecompress(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	if isNPY(data) {
		img, err := decodeNPY(name, data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return img, nil
	}

	img, err := decodeStdImage(name, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}

// packImage normalizes the bands and assembles the final DecodedImage.
// Bands whose samples fall outside [0, 1] are rescaled to the unit
// range per band before packing.
func packImage(name hyperview.Identity, bands [][]float32, width, height int) *hyperview.DecodedImage {
	for _, band := range bands {
		normalizeBand(band)
	}
	layers := hyperview.PackBands(bands, width, height, hyperview.LayerCount(len(bands)))
	return &hyperview.DecodedImage{
		Name:      name,
		Width:     width,
		Height:    height,
		NumBands:  len(bands),
		NumLayers: len(layers),
		Layers:    layers,
	}
}

// normalizeBand rescales a band to [0, 1] in place when any sample
// falls outside the unit range. Bands already in range are left alone
// so 8-bit sources keep their exact levels. A constant out-of-range
// band maps to all zeros.
func normalizeBand(band []float32) {
	if len(band) == 0 {
		return
	}
	mn, mx := band[0], band[0]
	for _, v := range band[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	if mn >= 0 && mx <= 1 {
		return
	}
	span := mx - mn
	if span == 0 {
		for i := range band {
			band[i] = 0
		}
		return
	}
	for i := range band {
		band[i] = (band[i] - mn) / span
	}
}
