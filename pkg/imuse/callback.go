// ABOUTME: Per-tick engine callback
// ABOUTME: Advances fades, resolves regions and feeds decoded PCM to the mixer
package imuse

import "log"

// Tick runs one engine callback. It is normally driven by Run.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return
	}

	for _, t := range e.tracks {
		if !t.used {
			continue
		}
		if t.readyToRemove {
			e.releaseTrack(t)
			continue
		}
		if t.toBeRemoved {
			// Removal waits one tick so reads already queued can finish
			t.readyToRemove = true
			continue
		}

		t.advanceFades()
		e.updateMixerLevels(t)

		if t.curRegion == -1 {
			e.switchToNextRegion(t)
			if t.toBeRemoved {
				continue
			}
		}

		e.feedTrack(t)
	}
}

// updateMixerLevels converts the track's fixed-point levels to mixer units.
// Group scaling divides by 128 on purpose.
func (e *Engine) updateMixerLevels(t *Track) {
	pan := t.pan / levelScale
	if pan != CenterPan {
		pan = 2*pan - MaxLevel
	} else {
		pan = 0
	}

	vol := t.vol / levelScale
	if isVolumeGroup(t.volGroupID) {
		vol = vol * e.groupVolume(t.volGroupID) / 128
	}

	t.mixerVol = vol
	t.mixerPan = pan
}

// alignToChannels rounds a byte count down to a whole sample frame
func alignToChannels(n, channels int) int {
	switch channels {
	case 1:
		return n &^ 1
	case 2:
		return n &^ 3
	}
	return n
}

// MixerChunkSize returns how many bytes a track decodes in one tick.
// A starved stream gets a double chunk to catch up.
func MixerChunkSize(iteration, fps, channels int, starved bool) int {
	if fps <= 0 {
		return 0
	}
	size := iteration / fps
	if starved {
		size *= 2
	}
	return alignToChannels(size, channels)
}

// feedTrack decodes this tick's chunk for the track and appends it to its
// stream. Data is only pushed while the mixer is ready; otherwise the read
// is retried on the next tick.
func (e *Engine) feedTrack(t *Track) {
	if t.stream == nil {
		e.attachStream(t)
	}

	channels := t.sound.Channels()
	size := MixerChunkSize(t.iteration, e.config.CallbackFPS, channels, t.starved())
	if size == 0 {
		return
	}

	// Bounds region hops that produce no data, so a cycle of empty
	// regions cannot spin forever
	emptyHops := 0

	for size > 0 {
		data := t.sound.Data(t.curRegion, t.regionOffset, size)
		n := alignToChannels(len(data), channels)
		if n > size {
			n = size
		}

		if n > 0 {
			if !e.mixer.IsReady() {
				return
			}
			e.mixer.SetVolume(t.channel, t.mixerVol)
			e.mixer.SetBalance(t.channel, t.mixerPan)
			t.stream.Append(data[:n])
			t.resumed = false
			t.regionOffset += n
			t.started = true
		}

		if t.sound.RegionExhausted(t.curRegion, t.regionOffset) {
			e.switchToNextRegion(t)
			if t.toBeRemoved {
				return
			}
			if n == 0 {
				emptyHops++
				if emptyHops > t.sound.NumRegions() {
					log.Printf("imuse: %s loops through empty regions, stalling track %d", t.soundName, t.id)
					return
				}
			}
		} else if n == 0 {
			// Decoder underrun: produce the rest next tick
			return
		}

		size -= n
	}
}
