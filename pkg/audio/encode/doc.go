// ABOUTME: Audio encoder package for encoding PCM to various formats
// ABOUTME: Provides Encoder interface, PCM and Opus encoders and Opus pack writing
// Package encode provides audio encoders used to build sound banks.
//
// Supports: PCM (8-bit unsigned, 16-bit and 24-bit) and Opus. WriteOpusPack
// stores a whole asset as length-prefixed Opus packets that
// decode.DecodeOpusPack reads back.
//
// WriteAll streams a whole asset through any Encoder, which is how raw
// PCM assets are written.
//
// Example:
//
//	err := encode.WriteOpusPack(f, pcm, 96000)
//
//	enc, _ := encode.NewPCM(audio.Format{Codec: "pcm", BitDepth: 16})
//	n, err := encode.WriteAll(f, enc, pcm.Samples, 4096)
package encode
