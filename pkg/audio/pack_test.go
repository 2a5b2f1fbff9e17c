// ABOUTME: Tests for Opus pack framing
// ABOUTME: Tests header validation and packet boundaries
package audio

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestPackFraming(t *testing.T) {
	var buf bytes.Buffer
	header := PackHeader{SampleRate: 48000, Channels: 2, FrameSize: 960, Frames: 1500}
	if err := WritePackHeader(&buf, header); err != nil {
		t.Fatalf("WritePackHeader: %v", err)
	}
	packets := [][]byte{{1, 2, 3}, {}, bytes.Repeat([]byte{9}, 300)}
	for _, p := range packets {
		if err := WritePacket(&buf, p); err != nil {
			t.Fatalf("WritePacket: %v", err)
		}
	}

	r := bytes.NewReader(buf.Bytes())
	got, err := ReadPackHeader(r)
	if err != nil {
		t.Fatalf("ReadPackHeader: %v", err)
	}
	if got != header {
		t.Errorf("expected %+v, got %+v", header, got)
	}
	for i, want := range packets {
		p, err := ReadPacket(r)
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if !bytes.Equal(p, want) {
			t.Errorf("packet %d mismatch", i)
		}
	}
	if _, err := ReadPacket(r); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReadPackHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte("OPK1")},
		{"magic", append([]byte("OGGS"), make([]byte, 12)...)},
		{"channels", []byte{'O', 'P', 'K', '1', 0x80, 0xBB, 0, 0, 3, 0, 0xC0, 0x03, 0, 0, 0, 0}},
		{"frame size", []byte{'O', 'P', 'K', '1', 0x80, 0xBB, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadPackHeader(bytes.NewReader(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadPacketTruncated(t *testing.T) {
	data := []byte{10, 0, 1, 2, 3}
	if _, err := ReadPacket(bytes.NewReader(data)); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("expected truncation error, got %v", err)
	}
}

func TestWritePacketTooLarge(t *testing.T) {
	if err := WritePacket(io.Discard, make([]byte, MaxPacketSize+1)); err == nil {
		t.Error("expected error")
	}
}
