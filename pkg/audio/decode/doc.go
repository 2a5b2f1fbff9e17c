// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides whole-asset decoding for PCM, MP3, FLAC, Ogg Vorbis and Opus packs
// Package decode turns sound assets into PCM.
//
// Supports: raw PCM (8-bit unsigned, 16-bit and 24-bit), MP3, FLAC, Ogg Vorbis and
// Opus packs (see audio.PackHeader).
//
// Every decoder produces int32 samples in the 24-bit range. File picks
// the codec from the file extension; raw PCM needs its layout passed in.
//
// Example:
//
//	pcm, err := decode.File("music/theme.flac", audio.Format{})
//	data := pcm.S16LE()
package decode
