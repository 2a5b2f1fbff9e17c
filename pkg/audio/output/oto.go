// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays the software mixer through one persistent oto player
package output

import (
	"fmt"
	"log"

	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	*Mixer

	otoCtx *oto.Context
	player *oto.Player
}

// NewOto opens the default audio device as 16-bit stereo and starts
// pulling from a new mixer. oto allows one context per process.
func NewOto(config Config) (*Oto, error) {
	config = config.withDefaults()

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o := &Oto{
		Mixer:  NewMixer(config.SampleRate),
		otoCtx: ctx,
	}

	// One persistent player pulls the mixed signal
	o.player = ctx.NewPlayer(o.Mixer)
	o.player.Play()
	o.setReady(true)

	log.Printf("Audio output initialized: %dHz, 2 channels", config.SampleRate)

	return o, nil
}

// Close stops playback and releases output resources
func (o *Oto) Close() error {
	o.Mixer.close()
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Failed to close oto player: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("suspend oto context: %w", err)
		}
	}
	return nil
}
