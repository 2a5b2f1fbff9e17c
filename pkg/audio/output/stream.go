// ABOUTME: Append stream queued by the engine and drained by the mixer
// ABOUTME: Converts engine PCM to stereo int32 frames at the device rate
package output

import (
	"encoding/binary"
	"sync"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/resample"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
)

// appendStream holds converted stereo frames waiting to be mixed
type appendStream struct {
	mu        sync.Mutex
	flags     imuse.MixerFlags
	channels  int
	resampler *resample.Resampler
	queue     []int32 // interleaved stereo at the device rate
	scratch   []int32
	converted []int32
	closed    bool
}

func newAppendStream(freq, deviceRate int, flags imuse.MixerFlags, bufferSize int) *appendStream {
	channels := flags.Channels()
	return &appendStream{
		flags:     flags,
		channels:  channels,
		resampler: resample.New(freq, deviceRate, channels),
		queue:     make([]int32, 0, bufferSize),
	}
}

// Append converts and queues PCM bytes laid out as the stream's flags say
func (s *appendStream) Append(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.scratch = decodeSamples(s.scratch[:0], data, s.flags)
	s.converted = s.resampler.Resample(s.converted[:0], s.scratch)

	if s.channels == 2 {
		s.queue = append(s.queue, s.converted...)
		return
	}
	for _, v := range s.converted {
		s.queue = append(s.queue, v, v)
	}
}

// EndOfData reports whether the queue has run dry
func (s *appendStream) EndOfData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) < 2
}

// take removes up to frames stereo frames and passes them to fn
func (s *appendStream) take(frames int, fn func(frames []int32)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.queue) / 2
	if n > frames {
		n = frames
	}
	if n == 0 {
		return 0
	}
	fn(s.queue[:n*2])
	remaining := copy(s.queue, s.queue[n*2:])
	s.queue = s.queue[:remaining]
	return n
}

// queued returns the number of stereo frames waiting
func (s *appendStream) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) / 2
}

func (s *appendStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queue = nil
}

// decodeSamples converts raw engine PCM to 24-bit range samples
func decodeSamples(dst []int32, data []byte, flags imuse.MixerFlags) []int32 {
	if flags.Has(imuse.Flag16Bits) {
		for i := 0; i+1 < len(data); i += 2 {
			var v int16
			if flags.Has(imuse.FlagLittleEndian) {
				v = int16(binary.LittleEndian.Uint16(data[i:]))
			} else {
				v = int16(binary.BigEndian.Uint16(data[i:]))
			}
			dst = append(dst, audio.SampleFromInt16(v))
		}
		return dst
	}
	for _, b := range data {
		if flags.Has(imuse.FlagUnsigned) {
			dst = append(dst, audio.SampleFromUint8(b))
		} else {
			dst = append(dst, int32(int8(b))<<16)
		}
	}
	return dst
}
