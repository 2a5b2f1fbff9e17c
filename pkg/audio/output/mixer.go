// ABOUTME: Software mixer implementing the music engine's mixer contract
// ABOUTME: Sums every playing stream with volume and balance into stereo int16
package output

import (
	"encoding/binary"
	"io"
	"log"
	"sync"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
)

type channel struct {
	stream *appendStream
	vol    int // 0-127
	pan    int // -127..127
	paused bool
}

// Mixer mixes append streams into one stereo 16-bit signal. It is an
// io.Reader so a playback backend can pull from it.
type Mixer struct {
	sampleRate int

	mu       sync.Mutex
	channels map[imuse.ChannelID]*channel
	nextID   imuse.ChannelID
	ready    bool
	closed   bool
	volume   int
	muted    bool
	mix      []int32
}

// NewMixer creates a mixer producing frames at sampleRate
func NewMixer(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Mixer{
		sampleRate: sampleRate,
		channels:   make(map[imuse.ChannelID]*channel),
		volume:     100,
	}
}

// SampleRate returns the device rate
func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

// setReady marks whether the backend accepts data
func (m *Mixer) setReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}

// IsReady reports whether the backend accepts data
func (m *Mixer) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready && !m.closed
}

// NewAppendStream creates an empty stream resampled to the device rate
func (m *Mixer) NewAppendStream(freq int, flags imuse.MixerFlags, bufferSize int) imuse.AppendStream {
	return newAppendStream(freq, m.sampleRate, flags, bufferSize)
}

// Play binds a stream created by NewAppendStream to a new channel
func (m *Mixer) Play(s imuse.AppendStream, vol, pan int, paused bool) imuse.ChannelID {
	as, ok := s.(*appendStream)
	if !ok {
		log.Printf("output: refusing foreign stream %T", s)
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.channels[m.nextID] = &channel{
		stream: as,
		vol:    clamp(vol, 0, imuse.MaxLevel),
		pan:    clamp(pan, -imuse.MaxLevel, imuse.MaxLevel),
		paused: paused,
	}
	return m.nextID
}

// Stop detaches a channel and discards its stream
func (m *Mixer) Stop(ch imuse.ChannelID) {
	m.mu.Lock()
	c, ok := m.channels[ch]
	delete(m.channels, ch)
	m.mu.Unlock()

	if ok {
		c.stream.close()
	}
}

// SetVolume sets a channel's volume (0-127)
func (m *Mixer) SetVolume(ch imuse.ChannelID, vol int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.channels[ch]; ok {
		c.vol = clamp(vol, 0, imuse.MaxLevel)
	}
}

// SetBalance sets a channel's balance (-127 left .. 127 right)
func (m *Mixer) SetBalance(ch imuse.ChannelID, pan int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.channels[ch]; ok {
		c.pan = clamp(pan, -imuse.MaxLevel, imuse.MaxLevel)
	}
}

// Pause suspends or resumes a channel. A paused channel keeps its queue.
func (m *Mixer) Pause(ch imuse.ChannelID, paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.channels[ch]; ok {
		c.paused = paused
	}
}

// SetMasterVolume sets the volume (0-100)
func (m *Mixer) SetMasterVolume(volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clamp(volume, 0, 100)
	log.Printf("Volume set to %d", m.volume)
}

// SetMuted sets mute state
func (m *Mixer) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	log.Printf("Muted: %v", muted)
}

// ActiveChannels returns the number of bound channels
func (m *Mixer) ActiveChannels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

// Read mixes len(p)/4 stereo frames of signed 16-bit little-endian PCM.
// Starved channels contribute silence; Read only fails once closed.
func (m *Mixer) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, io.EOF
	}

	frames := len(p) / 4
	if cap(m.mix) < frames*2 {
		m.mix = make([]int32, frames*2)
	}
	mix := m.mix[:frames*2]
	for i := range mix {
		mix[i] = 0
	}

	for _, c := range m.channels {
		if c.paused {
			continue
		}
		// Unity gain is 127*127
		gainL := int64(c.vol * (imuse.MaxLevel - max(c.pan, 0)))
		gainR := int64(c.vol * (imuse.MaxLevel + min(c.pan, 0)))
		c.stream.take(frames, func(src []int32) {
			for i := 0; i+1 < len(src); i += 2 {
				mix[i] += int32(int64(src[i]) * gainL / (imuse.MaxLevel * imuse.MaxLevel))
				mix[i+1] += int32(int64(src[i+1]) * gainR / (imuse.MaxLevel * imuse.MaxLevel))
			}
		})
	}

	master := m.volume
	if m.muted {
		master = 0
	}
	for i, v := range mix {
		s := audio.ClampInt16(int32(int64(v) * int64(master) / 100 >> 8))
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}

	return frames * 4, nil
}

// close detaches every channel and ends Read
func (m *Mixer) close() {
	m.mu.Lock()
	channels := m.channels
	m.channels = make(map[imuse.ChannelID]*channel)
	m.closed = true
	m.ready = false
	m.mu.Unlock()

	for _, c := range channels {
		c.stream.close()
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
