package decode

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sbinet/npyio"

	"github.com/gogpu/hyperview"
)

// npyMagic starts every NumPy .npy file.
var npyMagic = []byte("\x93NUMPY")

// NumPy parse errors.
var (
	// ErrNPYHeader is returned when the .npy header is truncated,
	// malformed, or inconsistent with the body.
	ErrNPYHeader = errors.New("decode: malformed npy header")

	// ErrNPYDtype is returned for dtypes other than little-endian
	// float32 and float64.
	ErrNPYDtype = errors.New("decode: unsupported npy dtype")

	// ErrNPYShape is returned for shapes other than 2 or 3 dimensions.
	ErrNPYShape = errors.New("decode: unsupported npy shape")
)

func isNPY(data []byte) bool {
	return bytes.HasPrefix(data, npyMagic)
}

// decodeNPY reads a .npy array into float32 bands and packs them.
//
// Accepted shapes:
//   - (H, W): one band
//   - 3-d: bands-first (B, H, W) when the first dimension is not
//     larger than the last, otherwise bands-last (H, W, B)
func decodeNPY(name hyperview.Identity, data []byte) (*hyperview.DecodedImage, error) {
	r, err := npyio.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNPYHeader, err)
	}
	if r.Header.Descr.Fortran {
		return nil, fmt.Errorf("%w: fortran order", ErrNPYHeader)
	}

	var sampleSize int
	switch r.Header.Descr.Type {
	case "<f4":
		sampleSize = 4
	case "<f8":
		sampleSize = 8
	default:
		return nil, fmt.Errorf("%w: %q", ErrNPYDtype, r.Header.Descr.Type)
	}

	shape := r.Header.Descr.Shape
	var numBands, height, width int
	var bandsFirst bool
	switch len(shape) {
	case 2:
		numBands, height, width = 1, shape[0], shape[1]
		bandsFirst = true
	case 3:
		d0, d1, d2 := shape[0], shape[1], shape[2]
		if d0 <= d2 {
			numBands, height, width = d0, d1, d2
			bandsFirst = true
		} else {
			height, width, numBands = d0, d1, d2
		}
	default:
		return nil, fmt.Errorf("%w: %d dimensions", ErrNPYShape, len(shape))
	}
	if numBands < 1 || height < 1 || width < 1 {
		return nil, fmt.Errorf("%w: %v", ErrNPYShape, shape)
	}

	// The whole payload bounds the sample count. Checking one dimension
	// at a time keeps the product from overflowing before the check.
	limit := len(data) / sampleSize
	if numBands > limit || height > limit/numBands || width > limit/(numBands*height) {
		return nil, fmt.Errorf("%w: %d bytes cannot hold shape %v", ErrNPYHeader, len(data), shape)
	}
	total := numBands * height * width

	flat := make([]float32, total)
	switch sampleSize {
	case 4:
		if err := r.Read(&flat); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNPYHeader, err)
		}
	case 8:
		raw := make([]float64, total)
		if err := r.Read(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNPYHeader, err)
		}
		for i, v := range raw {
			flat[i] = float32(v)
		}
	}

	pixels := height * width
	bands := make([][]float32, numBands)
	if bandsFirst {
		for b := range bands {
			bands[b] = flat[b*pixels : (b+1)*pixels]
		}
	} else {
		for b := range bands {
			bands[b] = make([]float32, pixels)
		}
		for i := 0; i < pixels; i++ {
			base := i * numBands
			for b := 0; b < numBands; b++ {
				bands[b][i] = flat[base+b]
			}
		}
	}

	return packImage(name, bands, width, height), nil
}
