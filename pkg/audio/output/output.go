// ABOUTME: Audio output interface definition
// ABOUTME: A music engine mixer sink bound to a playback backend
package output

import (
	"time"

	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
)

const (
	// DefaultSampleRate is the device rate every stream is resampled to
	DefaultSampleRate = 44100

	// DefaultBufferSize is the device buffer requested from the backend
	DefaultBufferSize = 100 * time.Millisecond
)

// Output is a mixer sink that plays through a device
type Output interface {
	imuse.Mixer

	// SetMasterVolume sets the output volume (0-100)
	SetMasterVolume(volume int)

	// SetMuted silences the output without stopping streams
	SetMuted(muted bool)

	// Close releases output resources
	Close() error
}

// Config holds output configuration
type Config struct {
	SampleRate int
	BufferSize time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	return c
}

// NullDrainInterval is how often a device-less output consumes the mixer
const NullDrainInterval = 20 * time.Millisecond

// Open returns the oto device output, or a draining Null output when
// null is set
func Open(config Config, null bool) (Output, error) {
	if null {
		n := NewNull(config)
		n.Start(NullDrainInterval)
		return n, nil
	}
	return NewOto(config)
}
