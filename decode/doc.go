// Package decode turns raw image bytes into packed texture layers.
//
// Decode is substrate-agnostic: the same code runs on a background
// goroutine natively and inside a Web Worker on js/wasm builds. The
// pipeline sniffs a transparent compression wrapper (zstd or gzip),
// then tries the NumPy .npy multi-band format, then falls back to the
// standard image formats (PNG, JPEG, GIF, TIFF, BMP, WebP) decoded as
// three bands.
package decode
