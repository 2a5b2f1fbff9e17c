// ABOUTME: Test doubles for the music engine collaborators
// ABOUTME: In-memory sounds with byte-sized regions and a recording mixer
package imuse

import (
	"fmt"
	"testing"
)

// fakeSound is a 16-bit sound whose regions are plain byte lengths
type fakeSound struct {
	freq     int
	channels int
	regions  []int
	jumps    []Jump

	// maxRead caps every Data call to simulate a slow decoder
	maxRead int
}

func (s *fakeSound) Freq() int       { return s.freq }
func (s *fakeSound) Channels() int   { return s.channels }
func (s *fakeSound) Bits() int       { return 16 }
func (s *fakeSound) NumRegions() int { return len(s.regions) }

func (s *fakeSound) RegionOffset(region int) int {
	offset := 0
	for i := 0; i < region && i < len(s.regions); i++ {
		offset += s.regions[i]
	}
	return offset
}

func (s *fakeSound) Data(region, offset, maxBytes int) []byte {
	if region < 0 || region >= len(s.regions) {
		return nil
	}
	n := s.regions[region] - offset
	if n > maxBytes {
		n = maxBytes
	}
	if s.maxRead > 0 && n > s.maxRead {
		n = s.maxRead
	}
	if n <= 0 {
		return nil
	}
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(region)
	}
	return data
}

func (s *fakeSound) RegionExhausted(region, offset int) bool {
	if region < 0 || region >= len(s.regions) {
		return true
	}
	return offset >= s.regions[region]
}

func (s *fakeSound) FindJump(region, hookID int) (Jump, bool) {
	for _, j := range s.jumps {
		if j.Region == region && j.HookID == hookID {
			return j, true
		}
	}
	return Jump{}, false
}

type fakeManager struct {
	sounds map[string]*fakeSound
	opened []string
}

func (m *fakeManager) Open(name string, group int) (Sound, error) {
	s, ok := m.sounds[name]
	if !ok {
		return nil, fmt.Errorf("no sound %q", name)
	}
	m.opened = append(m.opened, name)
	return s, nil
}

type fakeStream struct {
	mixer    *fakeMixer
	appended int
	chunks   int
}

func (s *fakeStream) Append(data []byte) {
	s.appended += len(data)
	s.chunks++
}

func (s *fakeStream) EndOfData() bool {
	if s.mixer.ownQueue {
		return s.appended == 0
	}
	return s.mixer.starved
}

type fakeChannel struct {
	stream  *fakeStream
	vol     int
	pan     int
	paused  bool
	stopped bool
}

type fakeMixer struct {
	notReady bool
	starved  bool
	// ownQueue makes each stream starved only until its first append
	ownQueue bool
	next     ChannelID
	channels map[ChannelID]*fakeChannel
}

func newFakeMixer() *fakeMixer {
	return &fakeMixer{channels: make(map[ChannelID]*fakeChannel)}
}

func (m *fakeMixer) IsReady() bool { return !m.notReady }

func (m *fakeMixer) NewAppendStream(freq int, flags MixerFlags, bufferSize int) AppendStream {
	return &fakeStream{mixer: m}
}

func (m *fakeMixer) Play(s AppendStream, vol, pan int, paused bool) ChannelID {
	m.next++
	m.channels[m.next] = &fakeChannel{stream: s.(*fakeStream), vol: vol, pan: pan, paused: paused}
	return m.next
}

func (m *fakeMixer) Stop(ch ChannelID) {
	if c, ok := m.channels[ch]; ok {
		c.stopped = true
	}
}

func (m *fakeMixer) SetVolume(ch ChannelID, vol int) {
	if c, ok := m.channels[ch]; ok {
		c.vol = vol
	}
}

func (m *fakeMixer) SetBalance(ch ChannelID, pan int) {
	if c, ok := m.channels[ch]; ok {
		c.pan = pan
	}
}

func (m *fakeMixer) Pause(ch ChannelID, paused bool) {
	if c, ok := m.channels[ch]; ok {
		c.paused = paused
	}
}

func (m *fakeMixer) active() int {
	n := 0
	for _, c := range m.channels {
		if !c.stopped {
			n++
		}
	}
	return n
}

// newTestEngine builds an engine over the given sounds. A 1000 Hz mono
// sound has an iteration of 2000 bytes, so at 20 ticks/s each tick
// decodes 100 bytes.
func newTestEngine(t *testing.T, config Config, sounds map[string]*fakeSound) (*Engine, *fakeMixer) {
	t.Helper()
	mixer := newFakeMixer()
	e := New(config, &fakeManager{sounds: sounds}, mixer)
	t.Cleanup(func() { _ = e.Close() })
	return e, mixer
}

func monoSound(regions ...int) *fakeSound {
	return &fakeSound{freq: 1000, channels: 1, regions: regions}
}

func mustStart(t *testing.T, e *Engine, name string, group int) int {
	t.Helper()
	id, err := e.StartSound(name, group, 0, 127, CenterPan, 64)
	if err != nil {
		t.Fatalf("start %s: %v", name, err)
	}
	return id
}
