// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes a complete Ogg Vorbis asset to int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// DecodeOgg decodes an Ogg Vorbis stream. Vorbis yields float samples, which
// are clipped and scaled into the 24-bit range.
func DecodeOgg(r io.Reader) (*audio.PCM, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Ogg Vorbis: %w", err)
	}

	channels := reader.Channels()
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("ogg vorbis has %d channels", channels)
	}

	var samples []int32
	if n := reader.Length(); n > 0 {
		samples = make([]int32, 0, int(n)*channels)
	}

	buf := make([]float32, 4096*channels)
	for {
		n, err := reader.Read(buf)
		for _, v := range buf[:n] {
			samples = append(samples, floatToSample(v))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ogg decode error: %w", err)
		}
	}

	return &audio.PCM{
		Format: audio.Format{
			Codec:      "ogg",
			SampleRate: reader.SampleRate(),
			Channels:   channels,
			BitDepth:   24,
		},
		Samples: samples,
	}, nil
}

func floatToSample(v float32) int32 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int32(v * audio.Max24Bit)
}
