package decode

import (
	"bytes"
	"fmt"
	"image"

	// Standard and extended image formats for the fallback decoder.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/hyperview"
)

// decodeStdImage decodes a conventional image and exposes it as three
// bands (R, G, B), each scaled to [0, 1]. Alpha is dropped.
func decodeStdImage(name hyperview.Identity, data []byte) (*hyperview.DecodedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := width * height

	bands := [][]float32{
		make([]float32, pixels),
		make([]float32, pixels),
		make([]float32, pixels),
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA() returns 16-bit values.
			bands[0][i] = float32(r) / 0xFFFF
			bands[1][i] = float32(g) / 0xFFFF
			bands[2][i] = float32(b) / 0xFFFF
			i++
		}
	}

	return packImage(name, bands, width, height), nil
}
