// ABOUTME: Decoded sound resource with regions and jumps
// ABOUTME: Implements the music engine's Sound contract over 16-bit PCM
package sound

import (
	"fmt"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
)

// Region is a span of a sound in frames
type Region struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// Sound is a fully decoded sound. It holds no read cursor, so one Sound
// can serve a track and its fade clones at once.
type Sound struct {
	name      string
	freq      int
	channels  int
	frameSize int
	data      []byte // signed 16-bit little-endian
	regions   []Region
	jumps     []imuse.Jump
}

// NewSound builds a sound from decoded PCM. Regions are in frames; nil
// regions make the whole sound one region.
func NewSound(name string, pcm *audio.PCM, regions []Region, jumps []imuse.Jump) (*Sound, error) {
	if pcm.Format.Channels != 1 && pcm.Format.Channels != 2 {
		return nil, fmt.Errorf("sound %s: unsupported channel count %d", name, pcm.Format.Channels)
	}
	if pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("sound %s: invalid sample rate %d", name, pcm.Format.SampleRate)
	}

	frames := pcm.Frames()
	if len(regions) == 0 {
		regions = []Region{{Offset: 0, Length: frames}}
	}
	for i, r := range regions {
		if r.Offset < 0 || r.Length < 0 || r.Offset+r.Length > frames {
			return nil, fmt.Errorf("sound %s: region %d (%d+%d) outside %d frames", name, i, r.Offset, r.Length, frames)
		}
	}
	for _, j := range jumps {
		if j.Region < 0 || j.Region >= len(regions) {
			return nil, fmt.Errorf("sound %s: jump from unknown region %d", name, j.Region)
		}
		if j.Dest < 0 || j.Dest >= len(regions) {
			return nil, fmt.Errorf("sound %s: jump to unknown region %d", name, j.Dest)
		}
		if j.FadeMs < 0 {
			return nil, fmt.Errorf("sound %s: negative fade %d", name, j.FadeMs)
		}
	}

	return &Sound{
		name:      name,
		freq:      pcm.Format.SampleRate,
		channels:  pcm.Format.Channels,
		frameSize: pcm.Format.Channels * 2,
		data:      pcm.S16LE(),
		regions:   regions,
		jumps:     jumps,
	}, nil
}

// Name returns the name the sound was opened with
func (s *Sound) Name() string { return s.name }

func (s *Sound) Freq() int       { return s.freq }
func (s *Sound) Channels() int   { return s.channels }
func (s *Sound) Bits() int       { return 16 }
func (s *Sound) NumRegions() int { return len(s.regions) }

// Jumps returns the sound's jump table
func (s *Sound) Jumps() []imuse.Jump {
	return append([]imuse.Jump(nil), s.jumps...)
}

// RegionOffset returns the byte offset of a region
func (s *Sound) RegionOffset(region int) int {
	if region < 0 || region >= len(s.regions) {
		return 0
	}
	return s.regions[region].Offset * s.frameSize
}

func (s *Sound) regionBytes(region int) int {
	return s.regions[region].Length * s.frameSize
}

// Data returns up to maxBytes of the region starting offset bytes in. The
// slice aliases the decoded sound and must not be modified.
func (s *Sound) Data(region, offset, maxBytes int) []byte {
	if region < 0 || region >= len(s.regions) || offset < 0 || maxBytes <= 0 {
		return nil
	}
	remaining := s.regionBytes(region) - offset
	if remaining <= 0 {
		return nil
	}
	if maxBytes > remaining {
		maxBytes = remaining
	}
	start := s.RegionOffset(region) + offset
	return s.data[start : start+maxBytes]
}

// RegionExhausted reports whether offset has reached the end of region
func (s *Sound) RegionExhausted(region, offset int) bool {
	if region < 0 || region >= len(s.regions) {
		return true
	}
	return offset >= s.regionBytes(region)
}

// FindJump returns the jump from region for hookID
func (s *Sound) FindJump(region, hookID int) (imuse.Jump, bool) {
	for _, j := range s.jumps {
		if j.Region == region && j.HookID == hookID {
			return j, true
		}
	}
	return imuse.Jump{}, false
}
