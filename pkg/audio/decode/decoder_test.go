// ABOUTME: Tests for codec selection and asset loading
// ABOUTME: Tests extension mapping, raw files and unsupported codecs
package decode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
)

func TestCodecForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"music/theme.MP3", "mp3", false},
		{"a.flac", "flac", false},
		{"b.OGG", "ogg", false},
		{"voice/line.opk", "opus", false},
		{"sfx/door.raw", "pcm", false},
		{"sfx/door.pcm", "pcm", false},
		{"notes.txt", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := CodecForPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("expected %q, got %q (%v)", tt.want, got, err)
			}
		})
	}
}

func TestFileRawPCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "click.raw")
	if err := os.WriteFile(path, []byte{0x80, 0x90, 0x70, 0x80}, 0o644); err != nil {
		t.Fatal(err)
	}

	pcm, err := File(path, audio.Format{SampleRate: 11025, Channels: 1, BitDepth: 8})
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if pcm.Format.Codec != "pcm" || pcm.Frames() != 4 {
		t.Errorf("unexpected result: %+v frames=%d", pcm.Format, pcm.Frames())
	}
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := File(filepath.Join(dir, "missing.flac"), audio.Format{}); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := File(filepath.Join(dir, "readme.txt"), audio.Format{}); err == nil {
		t.Error("expected error for unknown extension")
	}

	bad := filepath.Join(dir, "bad.opk")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := File(bad, audio.Format{}); err == nil {
		t.Error("expected error for corrupt pack")
	}
}

func TestReaderUnsupportedCodec(t *testing.T) {
	if _, err := Reader(nil, audio.Format{Codec: "vorbis"}); err == nil {
		t.Error("expected error for unsupported codec")
	}
}
