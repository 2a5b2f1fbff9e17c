// ABOUTME: Tests for Ogg Vorbis decoder
// ABOUTME: Tests rejection of bad streams and float sample scaling
package decode

import (
	"bytes"
	"testing"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
)

func TestDecodeOgg_InvalidData(t *testing.T) {
	pcm, err := DecodeOgg(bytes.NewReader([]byte("OggS but not really a vorbis stream")))
	if err == nil {
		t.Fatal("expected error for invalid data, got nil")
	}
	if pcm != nil {
		t.Fatal("expected nil PCM on error")
	}
}

func TestDecodeOgg_Empty(t *testing.T) {
	if _, err := DecodeOgg(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestFloatToSample(t *testing.T) {
	tests := []struct {
		in   float32
		want int32
	}{
		{0, 0},
		{1, audio.Max24Bit},
		{-1, -audio.Max24Bit},
		{2.5, audio.Max24Bit},
		{-3, -audio.Max24Bit},
	}

	for _, tt := range tests {
		if got := floatToSample(tt.in); got != tt.want {
			t.Errorf("floatToSample(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
