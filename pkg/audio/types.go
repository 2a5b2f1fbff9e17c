// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded PCM buffers and sample conversions
package audio

import "encoding/binary"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes an audio asset
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// FrameSize returns the size in bytes of one interleaved frame at BitDepth
func (f Format) FrameSize() int {
	return f.Channels * f.BitDepth / 8
}

// PCM is a fully decoded asset. Samples are interleaved and left-justified
// in the 24-bit range regardless of the source bit depth.
type PCM struct {
	Format  Format
	Samples []int32
}

// Frames returns the number of interleaved frames
func (p *PCM) Frames() int {
	if p.Format.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Format.Channels
}

// S16LE renders the samples as signed 16-bit little-endian bytes
func (p *PCM) S16LE() []byte {
	out := make([]byte, len(p.Samples)*2)
	for i, s := range p.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(SampleToInt16(s)))
	}
	return out
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromUint8 converts an unsigned 8-bit sample to the 24-bit range
func SampleFromUint8(sample uint8) int32 {
	return (int32(sample) - 128) << 16
}

// SampleFromBits scales a signed sample of the given width to the 24-bit range
func SampleFromBits(sample int32, bits int) int32 {
	shift := bits - 24
	if shift > 0 {
		return sample >> shift
	}
	return sample << -shift
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// ClampInt16 saturates a mixed value to the int16 range
func ClampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
