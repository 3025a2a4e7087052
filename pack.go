package hyperview

import "fmt"

// BandsPerLayer is the number of spectral bands packed into one RGBA8
// texture layer, one band per channel.
const BandsPerLayer = 4

// MinLayerCount is the floor on the number of layers in a packed image.
// Some texture-array backends reject arrays with a single layer, so
// every image carries at least this many layers even when one would
// hold all its bands. Padding layers are zero-filled.
const MinLayerCount = 2

// LayerCount returns the number of RGBA8 layers needed to hold the
// given number of bands, never less than MinLayerCount.
func LayerCount(bands int) int {
	n := (bands + BandsPerLayer - 1) / BandsPerLayer
	if n < MinLayerCount {
		n = MinLayerCount
	}
	return n
}

// PackBands packs normalized float32 bands into RGBA8 texture layers.
//
// Band b lands in layer b/4, channel b%4. Each sample is clamped to
// [0, 1] and scaled to [0, 255]. Channels and layers not covered by a
// band stay zero. The returned slices are freshly allocated, one
// width*height*4 byte slice per layer.
//
// PackBands is pure and safe to call from any goroutine. It panics if
// layerCount < LayerCount(len(bands)) or if any band's length differs
// from width*height; both are programmer errors, not data errors.
func PackBands(bands [][]float32, width, height, layerCount int) [][]byte {
	if layerCount < LayerCount(len(bands)) {
		panic(fmt.Sprintf("hyperview: layerCount %d cannot hold %d bands", layerCount, len(bands)))
	}
	pixels := width * height
	for b, band := range bands {
		if len(band) != pixels {
			panic(fmt.Sprintf("hyperview: band %d has %d samples, want %d", b, len(band), pixels))
		}
	}

	layers := make([][]byte, layerCount)
	for i := range layers {
		layers[i] = make([]byte, pixels*4)
	}
	for b, band := range bands {
		layer := layers[b/BandsPerLayer]
		ch := b % BandsPerLayer
		for i, v := range band {
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			layer[i*4+ch] = byte(v*255 + 0.5)
		}
	}
	return layers
}
