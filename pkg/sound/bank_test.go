// ABOUTME: Tests for the sound bank
// ABOUTME: Covers name resolution, descriptors, caching and listing
package sound

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
)

var _ imuse.SoundManager = (*Bank)(nil)

// writeRaw writes frames of 16-bit mono PCM
func writeRaw(t *testing.T, path string, frames int) {
	t.Helper()
	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(i*100))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeDesc(t *testing.T, path string, desc *Descriptor) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteDescriptor(path, desc); err != nil {
		t.Fatal(err)
	}
}

func rawDesc(file string, regions ...Region) *Descriptor {
	return &Descriptor{
		File:       file,
		Codec:      "pcm",
		SampleRate: 11025,
		Channels:   1,
		Bits:       16,
		Regions:    regions,
	}
}

func newTestBank(t *testing.T) (*Bank, string) {
	t.Helper()
	dir := t.TempDir()
	b, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b, dir
}

func TestNewRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(Config{Dir: filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing dir")
	}
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{Dir: file}); err == nil {
		t.Error("expected error for plain file")
	}
}

func TestOpenDescriptor(t *testing.T) {
	b, dir := newTestBank(t)
	writeRaw(t, filepath.Join(dir, "music", "theme.raw"), 10)
	desc := rawDesc("theme.raw", Region{Offset: 0, Length: 4}, Region{Offset: 4, Length: 6})
	desc.Jumps = []JumpEntry{{Region: 1, Dest: 0, Hook: 2, FadeMs: 250}}
	writeDesc(t, filepath.Join(dir, "music", "theme.json"), desc)

	snd, err := b.Open("theme", imuse.GroupMusic)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if snd.Freq() != 11025 || snd.Channels() != 1 || snd.NumRegions() != 2 {
		t.Errorf("unexpected sound %d Hz, %d ch, %d regions", snd.Freq(), snd.Channels(), snd.NumRegions())
	}
	data := snd.Data(1, 0, 2)
	if v := int16(binary.LittleEndian.Uint16(data)); v != 400 {
		t.Errorf("region 1 starts with %d, want 400", v)
	}
	j, ok := snd.FindJump(1, 2)
	if !ok || j.Dest != 0 || j.FadeMs != 250 {
		t.Errorf("FindJump = %+v, %v", j, ok)
	}

	again, err := b.Open("theme", imuse.GroupMusic)
	if err != nil {
		t.Fatal(err)
	}
	if again != snd {
		t.Error("expected cached sound")
	}
	if b.Cached() != 1 {
		t.Errorf("expected 1 cached sound, got %d", b.Cached())
	}
}

func TestOpenSearchesGroupDirFirst(t *testing.T) {
	b, dir := newTestBank(t)
	writeRaw(t, filepath.Join(dir, "door.raw"), 8)
	writeDesc(t, filepath.Join(dir, "door.json"), rawDesc("door.raw"))
	writeRaw(t, filepath.Join(dir, "sfx", "door.raw"), 8)
	writeDesc(t, filepath.Join(dir, "sfx", "door.json"),
		rawDesc("door.raw", Region{Offset: 0, Length: 2}, Region{Offset: 2, Length: 6}))

	sfx, err := b.Open("door", imuse.GroupSFX)
	if err != nil {
		t.Fatalf("Open sfx: %v", err)
	}
	if sfx.NumRegions() != 2 {
		t.Errorf("expected sfx/door with 2 regions, got %d", sfx.NumRegions())
	}

	voice, err := b.Open("door", imuse.GroupVoice)
	if err != nil {
		t.Fatalf("Open voice: %v", err)
	}
	if voice.NumRegions() != 1 {
		t.Errorf("expected root door with 1 region, got %d", voice.NumRegions())
	}
}

func TestOpenErrors(t *testing.T) {
	b, dir := newTestBank(t)
	writeRaw(t, filepath.Join(dir, "short.raw"), 4)
	writeDesc(t, filepath.Join(dir, "short.json"), rawDesc("short.raw", Region{Offset: 2, Length: 4}))
	writeDesc(t, filepath.Join(dir, "orphan.json"), rawDesc("gone.raw"))
	if err := os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`{"regions": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		sound    string
		notFound bool
	}{
		{"missing", "nothing", true},
		{"traversal", "../etc", false},
		{"separator", "music/theme", false},
		{"empty", "", false},
		{"region past end", "short", false},
		{"missing asset", "orphan", false},
		{"no file", "empty", false},
		{"bad json", "broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Open(tt.sound, imuse.GroupNone)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Errorf("ErrNotFound = %v, want %v (%v)", errors.Is(err, ErrNotFound), tt.notFound, err)
			}
		})
	}
	if b.Cached() != 0 {
		t.Errorf("failed opens were cached: %d", b.Cached())
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	want := rawDesc("x.raw", Region{Offset: 0, Length: 10})
	want.Jumps = []JumpEntry{{Region: 0, Dest: 0, Hook: 0x80}}
	if err := WriteDescriptor(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadDescriptor(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestList(t *testing.T) {
	b, dir := newTestBank(t)
	writeRaw(t, filepath.Join(dir, "music", "theme.raw"), 4)
	writeDesc(t, filepath.Join(dir, "music", "theme.json"), rawDesc("theme.raw"))
	writeRaw(t, filepath.Join(dir, "door.raw"), 4)
	writeDesc(t, filepath.Join(dir, "sfx", "door.json"), rawDesc("../door.raw"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := b.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"door", "theme"}; !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestGroupDir(t *testing.T) {
	tests := []struct {
		group int
		want  string
	}{
		{imuse.GroupNone, ""},
		{imuse.GroupVoice, "voice"},
		{imuse.GroupSFX, "sfx"},
		{imuse.GroupMusic, "music"},
	}
	for _, tt := range tests {
		if got := GroupDir(tt.group); got != tt.want {
			t.Errorf("GroupDir(%d) = %q, want %q", tt.group, got, tt.want)
		}
	}
}

func TestPreload(t *testing.T) {
	b, dir := newTestBank(t)
	for _, name := range []string{"a", "b", "c"} {
		writeRaw(t, filepath.Join(dir, "music", name+".raw"), 8)
		writeDesc(t, filepath.Join(dir, "music", name+".json"), rawDesc(name+".raw"))
	}

	if err := b.Preload(imuse.GroupMusic, "a", "b", "c", "a"); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if b.Cached() != 3 {
		t.Errorf("expected 3 cached sounds, got %d", b.Cached())
	}

	first, _ := b.Open("a", imuse.GroupMusic)
	second, _ := b.Open("a", imuse.GroupMusic)
	if first != second {
		t.Error("expected cached sound to be reused")
	}
}

func TestPreloadReportsFailures(t *testing.T) {
	b, dir := newTestBank(t)
	writeRaw(t, filepath.Join(dir, "ok.raw"), 8)
	writeDesc(t, filepath.Join(dir, "ok.json"), rawDesc("ok.raw"))

	err := b.Preload(imuse.GroupNone, "ok", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if b.Cached() != 1 {
		t.Errorf("expected the good sound cached, got %d", b.Cached())
	}
}
