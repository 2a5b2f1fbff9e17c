// ABOUTME: Sound bank resource manager
// ABOUTME: Resolves sound names to assets on disk, decodes and caches them
package sound

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
	"github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"
)

// DescriptorExt marks a JSON sound descriptor
const DescriptorExt = ".json"

// audioExts are tried in order when a name has no descriptor
var audioExts = []string{".opk", ".flac", ".ogg", ".mp3"}

// ErrNotFound means no descriptor or asset matched a sound name
var ErrNotFound = errors.New("sound not found")

// Descriptor is the JSON form of a sound: an asset plus its region graph
type Descriptor struct {
	File       string      `json:"file"`
	Codec      string      `json:"codec,omitempty"`
	SampleRate int         `json:"sample_rate,omitempty"`
	Channels   int         `json:"channels,omitempty"`
	Bits       int         `json:"bits,omitempty"`
	Regions    []Region    `json:"regions,omitempty"`
	Jumps      []JumpEntry `json:"jumps,omitempty"`
}

// JumpEntry is the JSON form of a jump
type JumpEntry struct {
	Region int `json:"region"`
	Dest   int `json:"dest"`
	Hook   int `json:"hook,omitempty"`
	FadeMs int `json:"fade_ms,omitempty"`
}

// Config holds bank configuration
type Config struct {
	Dir   string // Bank root
	Debug bool
}

// Bank opens sounds from a directory tree. Group subdirectories voice/,
// sfx/ and music/ are searched before the root.
type Bank struct {
	config Config

	mu    sync.Mutex
	cache map[string]*Sound
}

// New creates a bank rooted at config.Dir
func New(config Config) (*Bank, error) {
	info, err := os.Stat(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open bank: %s is not a directory", config.Dir)
	}

	log.Printf("Sound bank at %s", config.Dir)

	return &Bank{
		config: config,
		cache:  make(map[string]*Sound),
	}, nil
}

// GroupDir returns the subdirectory searched first for a volume group
func GroupDir(group int) string {
	switch group {
	case imuse.GroupVoice:
		return "voice"
	case imuse.GroupSFX:
		return "sfx"
	case imuse.GroupMusic:
		return "music"
	}
	return ""
}

// Open resolves, decodes and caches a sound
func (b *Bank) Open(name string, group int) (imuse.Sound, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid sound name %q", name)
	}

	path, err := b.resolve(name, group)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	s, ok := b.cache[path]
	b.mu.Unlock()
	if ok {
		return s, nil
	}

	// Decode outside the lock so Preload can work in parallel
	s, err = b.load(name, path)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if cached, ok := b.cache[path]; ok {
		return cached, nil
	}
	b.cache[path] = s

	log.Printf("Loaded sound %s: %d Hz, %d channels, %d regions, %d jumps, %s",
		name, s.freq, s.channels, len(s.regions), len(s.jumps), humanize.Bytes(uint64(len(s.data))))

	return s, nil
}

// Preload decodes names for group into the cache, several at a time. It
// returns every failure joined.
func (b *Bank) Preload(group int, names ...string) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	wg := sizedwaitgroup.New(runtime.NumCPU())
	for _, name := range names {
		wg.Add()
		go func(name string) {
			defer wg.Done()
			if _, err := b.Open(name, group); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Cached returns the number of decoded sounds held
func (b *Bank) Cached() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cache)
}

// resolve finds the descriptor or asset for name
func (b *Bank) resolve(name string, group int) (string, error) {
	dirs := []string{b.config.Dir}
	if sub := GroupDir(group); sub != "" {
		dirs = append([]string{filepath.Join(b.config.Dir, sub)}, dirs...)
	}

	var candidates []string
	if filepath.Ext(name) != "" {
		candidates = append(candidates, name)
	}
	candidates = append(candidates, name+DescriptorExt)
	for _, ext := range audioExts {
		candidates = append(candidates, name+ext)
	}

	for _, dir := range dirs {
		for _, c := range candidates {
			path := filepath.Join(dir, c)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				if b.config.Debug {
					log.Printf("[DEBUG] Resolved sound %s (group %d) to %s", name, group, path)
				}
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

func (b *Bank) load(name, path string) (*Sound, error) {
	if filepath.Ext(path) != DescriptorExt {
		pcm, err := decode.File(path, audio.Format{})
		if err != nil {
			return nil, err
		}
		return NewSound(name, pcm, nil, nil)
	}

	desc, err := ReadDescriptor(path)
	if err != nil {
		return nil, err
	}

	asset := desc.File
	if !filepath.IsAbs(asset) {
		asset = filepath.Join(filepath.Dir(path), asset)
	}
	pcm, err := decode.File(asset, audio.Format{
		Codec:      desc.Codec,
		SampleRate: desc.SampleRate,
		Channels:   desc.Channels,
		BitDepth:   desc.Bits,
	})
	if err != nil {
		return nil, err
	}

	jumps := make([]imuse.Jump, len(desc.Jumps))
	for i, j := range desc.Jumps {
		jumps[i] = imuse.Jump{Region: j.Region, Dest: j.Dest, HookID: j.Hook, FadeMs: j.FadeMs}
	}
	return NewSound(name, pcm, desc.Regions, jumps)
}

// ReadDescriptor parses a JSON sound descriptor
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parse descriptor %s: %w", filepath.Base(path), err)
	}
	if desc.File == "" {
		return nil, fmt.Errorf("descriptor %s names no file", filepath.Base(path))
	}
	return &desc, nil
}

// WriteDescriptor writes desc as indented JSON
func WriteDescriptor(path string, desc *Descriptor) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}

// List returns the sound names available in the bank, sorted
func (b *Bank) List() ([]string, error) {
	seen := make(map[string]bool)
	err := filepath.WalkDir(b.config.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext == DescriptorExt || contains(audioExts, ext) {
			seen[strings.TrimSuffix(d.Name(), ext)] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bank: %w", err)
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
