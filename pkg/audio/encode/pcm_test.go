// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests 8-bit, 16-bit and 24-bit PCM encoding against the decoder
package encode

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/decode"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		errContains string
	}{
		{"valid 8-bit", audio.Format{Codec: "pcm", SampleRate: 22050, Channels: 1, BitDepth: 8}, ""},
		{"valid 16-bit", audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}, ""},
		{"valid 24-bit", audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24}, ""},
		{"invalid codec", audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}, "invalid codec"},
		{"invalid depth", audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 32}, "unsupported bit depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil || encoder == nil {
				t.Fatalf("NewPCM() = %v, %v", encoder, err)
			}
			if err := encoder.Close(); err != nil {
				t.Errorf("Close() = %v", err)
			}
		})
	}
}

func TestPCMEncode16Bit(t *testing.T) {
	encoder, _ := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})

	output, err := encoder.Encode([]int32{256 << 8, -1 << 8})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if want := []byte{0x00, 0x01, 0xFF, 0xFF}; !bytes.Equal(output, want) {
		t.Errorf("expected % x, got % x", want, output)
	}
}

func TestPCMEncode8BitUnsigned(t *testing.T) {
	encoder, _ := NewPCM(audio.Format{Codec: "pcm", SampleRate: 11025, Channels: 1, BitDepth: 8})

	output, err := encoder.Encode([]int32{0, -128 << 16, 127 << 16})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if want := []byte{0x80, 0x00, 0xFF}; !bytes.Equal(output, want) {
		t.Errorf("expected % x, got % x", want, output)
	}
}

func TestPCMRoundTrip(t *testing.T) {
	for _, depth := range []int{8, 16, 24} {
		format := audio.Format{Codec: "pcm", SampleRate: 22050, Channels: 1, BitDepth: depth}

		// Values representable at every depth
		samples := []int32{0, 5 << 16, -7 << 16, audio.Min24Bit}

		encoder, err := NewPCM(format)
		if err != nil {
			t.Fatal(err)
		}
		data, err := encoder.Encode(samples)
		if err != nil {
			t.Fatal(err)
		}
		decoder, err := decode.NewPCM(format)
		if err != nil {
			t.Fatal(err)
		}
		got, err := decoder.Decode(data)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, samples) {
			t.Errorf("%d-bit: expected %v, got %v", depth, samples, got)
		}
	}
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, io.ErrShortWrite
	}
	w.after--
	return len(p), nil
}

func TestWriteAll(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 22050, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatal(err)
	}
	samples := []int32{1 << 8, 2 << 8, 3 << 8, 4 << 8, 5 << 8}

	var buf bytes.Buffer
	n, err := WriteAll(&buf, encoder, samples, 2)
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if n != 10 || buf.Len() != 10 {
		t.Fatalf("expected 10 bytes, got n=%d len=%d", n, buf.Len())
	}

	whole, _ := encoder.Encode(samples)
	if !bytes.Equal(buf.Bytes(), whole) {
		t.Errorf("chunked output % x differs from % x", buf.Bytes(), whole)
	}
}

func TestWriteAllErrors(t *testing.T) {
	encoder, _ := NewPCM(audio.Format{Codec: "pcm", SampleRate: 22050, Channels: 1, BitDepth: 8})

	if _, err := WriteAll(io.Discard, encoder, []int32{0}, 0); err == nil {
		t.Error("expected error for zero chunk")
	}

	n, err := WriteAll(&failingWriter{after: 1}, encoder, []int32{0, 0, 0, 0}, 2)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("expected io.ErrShortWrite, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 bytes before the failure, got %d", n)
	}
}
