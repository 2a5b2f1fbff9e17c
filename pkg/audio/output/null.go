// ABOUTME: Device-less audio output
// ABOUTME: Drains the software mixer on a real-time clock and discards the signal
package output

import (
	"context"
	"log"
	"sync"
	"time"
)

// Null is an output without a device. Run drains the mixer at the device
// rate so streams behave as if a device were consuming them.
type Null struct {
	*Mixer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	drained int64
}

// NewNull creates a device-less output that is immediately ready
func NewNull(config Config) *Null {
	config = config.withDefaults()
	n := &Null{Mixer: NewMixer(config.SampleRate)}
	n.setReady(true)
	return n
}

// Start drains the mixer every interval until Close
func (n *Null) Start(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.done = make(chan struct{})

	go func() {
		defer close(n.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		frames := int(int64(n.SampleRate()) * int64(interval) / int64(time.Second))
		buf := make([]byte, frames*4)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.Drain(buf)
			}
		}
	}()

	log.Printf("Null audio output draining every %v", interval)
}

// Drain mixes one buffer and discards it, returning the frames consumed
func (n *Null) Drain(buf []byte) int {
	read, err := n.Read(buf)
	if err != nil {
		return 0
	}
	n.mu.Lock()
	n.drained += int64(read / 4)
	n.mu.Unlock()
	return read / 4
}

// Drained returns the total number of frames discarded
func (n *Null) Drained() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.drained
}

// Close stops draining and detaches every channel
func (n *Null) Close() error {
	n.mu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	n.Mixer.close()
	return nil
}
