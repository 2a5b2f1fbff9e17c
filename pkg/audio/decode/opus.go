// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets and complete Opus packs to int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	decoder *opus.Decoder
	format  audio.Format
}

// NewOpus creates a new Opus decoder
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder: dec,
		format:  format,
	}, nil
}

// Decode converts one Opus packet to int32 samples
func (d *OpusDecoder) Decode(data []byte) ([]int32, error) {
	pcmSize := 5760 * d.format.Channels // Max frame size
	pcm16 := make([]int16, pcmSize)

	n, err := d.decoder.Decode(data, pcm16)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	actualSamples := n * d.format.Channels
	pcm32 := make([]int32, actualSamples)
	for i := 0; i < actualSamples; i++ {
		pcm32[i] = audio.SampleFromInt16(pcm16[i])
	}
	return pcm32, nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}

// DecodeOpusPack decodes an Opus pack written by encode.WriteOpusPack
func DecodeOpusPack(r io.Reader) (*audio.PCM, error) {
	header, err := audio.ReadPackHeader(r)
	if err != nil {
		return nil, err
	}

	format := audio.Format{
		Codec:      "opus",
		SampleRate: header.SampleRate,
		Channels:   header.Channels,
		BitDepth:   16,
	}
	dec, err := NewOpus(format)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	samples := make([]int32, 0, header.Frames*header.Channels)
	for {
		packet, err := audio.ReadPacket(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		decoded, err := dec.Decode(packet)
		if err != nil {
			return nil, err
		}
		samples = append(samples, decoded...)
	}

	// The last packet is padded to a whole frame
	if want := header.Frames * header.Channels; len(samples) > want {
		samples = samples[:want]
	}

	return &audio.PCM{Format: format, Samples: samples}, nil
}
