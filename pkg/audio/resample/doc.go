// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates and
// handles both upsampling and downsampling. A Resampler keeps state
// between chunks, so a stream fed in arbitrary pieces produces the same
// output as one fed in a single call.
//
// Example:
//
//	r := resample.New(22050, 44100, 1)
//	out = r.Resample(out[:0], chunk)
package resample
