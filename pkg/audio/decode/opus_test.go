// ABOUTME: Tests for Opus pack decoding
// ABOUTME: Round trips packs from the encoder and rejects damaged ones
package decode

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/encode"
)

// tonePack encodes frames of a 330 Hz tone at 48 kHz as an Opus pack
func tonePack(t *testing.T, channels, frames int) []byte {
	t.Helper()
	samples := make([]int32, frames*channels)
	for i := 0; i < frames; i++ {
		v := int32(0.4 * audio.Max24Bit * math.Sin(2*math.Pi*330*float64(i)/48000))
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = v
		}
	}
	pcm := &audio.PCM{
		Format:  audio.Format{Codec: "pcm", SampleRate: 48000, Channels: channels, BitDepth: 16},
		Samples: samples,
	}

	var buf bytes.Buffer
	if err := encode.WriteOpusPack(&buf, pcm, 64000); err != nil {
		t.Fatalf("WriteOpusPack: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeOpusPackRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		frames   int
	}{
		{"mono whole packets", 1, 960 * 5},
		{"mono padded tail", 1, 960*5 + 17},
		{"stereo padded tail", 2, 960*3 + 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm, err := DecodeOpusPack(bytes.NewReader(tonePack(t, tt.channels, tt.frames)))
			if err != nil {
				t.Fatalf("DecodeOpusPack: %v", err)
			}
			if pcm.Format.Codec != "opus" || pcm.Format.SampleRate != 48000 || pcm.Format.Channels != tt.channels {
				t.Errorf("unexpected format %+v", pcm.Format)
			}
			if pcm.Frames() != tt.frames {
				t.Errorf("expected %d frames, got %d", tt.frames, pcm.Frames())
			}

			var peak int32
			for _, s := range pcm.Samples {
				if s > peak {
					peak = s
				}
			}
			if peak == 0 {
				t.Error("decoded tone is silent")
			}
		})
	}
}

func TestDecodeOpusPackDamaged(t *testing.T) {
	good := tonePack(t, 1, 960*2)

	// A corrupt packet body: keep the header and first length prefix
	garbled := append([]byte(nil), good...)
	for i := 18; i < len(garbled) && i < 40; i++ {
		garbled[i] = 0xFF
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"header only prefix", good[:8]},
		{"wrong magic", append([]byte("RIFF"), good[4:]...)},
		{"truncated packet", good[:len(good)-3]},
		{"garbled packet", garbled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeOpusPack(bytes.NewReader(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFileDecodesOpusPack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "line.opk")
	if err := os.WriteFile(path, tonePack(t, 2, 960), 0o644); err != nil {
		t.Fatal(err)
	}

	pcm, err := File(path, audio.Format{})
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if pcm.Format.Channels != 2 || pcm.Frames() != 960 {
		t.Errorf("unexpected decode: %d channels, %d frames", pcm.Format.Channels, pcm.Frames())
	}
}

func TestNewOpusRejectsCodec(t *testing.T) {
	decoder, err := NewOpus(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err == nil || decoder != nil {
		t.Fatalf("expected codec error, got %v, %v", decoder, err)
	}
}
