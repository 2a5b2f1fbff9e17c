// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes a complete FLAC asset to int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/mewkiz/flac"
)

// DecodeFLAC decodes a FLAC stream frame by frame
func DecodeFLAC(r io.Reader) (*audio.PCM, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported FLAC channel count: %d", channels)
	}

	samples := make([]int32, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("flac frame: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.SampleFromBits(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	return &audio.PCM{
		Format: audio.Format{
			Codec:      "flac",
			SampleRate: int(info.SampleRate),
			Channels:   channels,
			BitDepth:   bitDepth,
		},
		Samples: samples,
	}, nil
}
