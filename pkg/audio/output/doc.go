// ABOUTME: Audio output package for playing music engine streams
// ABOUTME: Provides the software mixer with oto and null backends
// Package output implements the music engine's mixer contract.
//
// Mixer keeps one append stream per channel. Streams convert engine PCM
// (8 or 16-bit, mono or stereo, any rate) to stereo frames at the device
// rate as they are appended. Reading from the Mixer sums every playing
// channel with its volume and balance into signed 16-bit stereo.
//
// Backends:
//   - Oto plays the mixer through github.com/ebitengine/oto/v3
//   - Null drains the mixer on a clock for headless runs and tests
//
// Example:
//
//	out, err := output.NewOto(output.Config{SampleRate: 44100})
//	engine := imuse.New(imuse.Config{}, bank, out)
package output
