// ABOUTME: Sound bank package documentation
// ABOUTME: Describes bank layout and the JSON sound descriptor
// Package sound provides the music engine's sound manager: a directory
// of audio assets and JSON descriptors.
//
// A bank looks like:
//
//	bank/
//	  music/theme.json    descriptor with regions and jumps
//	  music/theme.flac    the asset it points to
//	  sfx/door.mp3        bare asset, one region, no jumps
//	  sfx/wind.ogg        Ogg Vorbis asset
//	  voice/line01.opk    Opus pack
//
// Open searches the volume group's subdirectory first and then the bank
// root. Within a directory a descriptor wins over a bare asset. Decoded
// sounds are cached for the life of the bank.
//
// Descriptor fields, with regions given in frames:
//
//	{
//	  "file": "theme.flac",
//	  "regions": [{"offset": 0, "length": 44100}, {"offset": 44100, "length": 88200}],
//	  "jumps": [{"region": 1, "dest": 1, "hook": 0, "fade_ms": 0}]
//	}
//
// Raw PCM assets (.raw, .pcm) need "codec": "pcm" with sample_rate,
// channels and bits.
package sound
