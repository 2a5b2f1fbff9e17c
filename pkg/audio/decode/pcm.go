// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 8-bit unsigned, 16-bit and 24-bit PCM audio to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 8 && format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Decode converts PCM bytes to int32 samples. A trailing partial sample
// is dropped.
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	switch d.bitDepth {
	case 8:
		samples := make([]int32, len(data))
		for i, b := range data {
			samples[i] = audio.SampleFromUint8(b)
		}
		return samples, nil
	case 24:
		numSamples := len(data) / 3
		samples := make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
		return samples, nil
	default:
		numSamples := len(data) / 2
		samples := make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
			samples[i] = audio.SampleFromInt16(sample16)
		}
		return samples, nil
	}
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}

// DecodeRaw decodes a headerless PCM asset described by format
func DecodeRaw(data []byte, format audio.Format) (*audio.PCM, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("raw pcm needs a sample rate")
	}
	if format.Channels != 1 && format.Channels != 2 {
		return nil, fmt.Errorf("raw pcm needs 1 or 2 channels, got %d", format.Channels)
	}

	dec, err := NewPCM(format)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	frame := format.FrameSize()
	samples, err := dec.Decode(data[:len(data)/frame*frame])
	if err != nil {
		return nil, err
	}
	return &audio.PCM{Format: format, Samples: samples}, nil
}
