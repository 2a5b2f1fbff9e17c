// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, PCM types and sample conversion functions
// Package audio provides the sample types shared by the decoders, the
// encoder and the mixer output.
//
//   - Format: codec, sample rate, channels and bit depth of an asset
//   - PCM: a fully decoded asset, interleaved int32 samples in 24-bit range
//
// Decoders normalize every source width into the 24-bit range so the
// sound bank can render one layout (signed 16-bit little-endian) for the
// music engine.
//
// Example:
//
//	pcm, err := decode.File("theme.flac")
//	data := pcm.S16LE()
package audio
