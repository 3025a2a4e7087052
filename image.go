package hyperview

// DecodedImage is the result of decoding one multi-band image: its
// dimensions plus the bands packed into RGBA8 texture layers, ready
// for upload as a 2D texture array.
//
// A DecodedImage is immutable after production and is handed between
// the decode context and the interactive context by value, so it is
// safe to read from any goroutine.
type DecodedImage struct {
	// Name is the identity the image was decoded for.
	Name Identity

	// Width and Height are the pixel dimensions shared by all bands.
	Width  int
	Height int

	// NumBands is the number of spectral bands the source carried.
	NumBands int

	// NumLayers is len(Layers), at least MinLayerCount.
	NumLayers int

	// Layers holds one width*height*4 RGBA8 byte slice per layer,
	// produced by PackBands.
	Layers [][]byte
}
