// ABOUTME: Volume and pan fade envelopes
// ABOUTME: Linear integer ramps advanced once per tick
package imuse

// fadeStep returns the per-tick increment that covers diff in at most delay
// ticks. The magnitude is rounded up so truncation never leaves a residue.
func fadeStep(diff, delay int) int {
	if delay <= 0 {
		return diff
	}
	mag := diff
	if mag < 0 {
		mag = -mag
	}
	step := (mag + delay - 1) / delay
	if diff < 0 {
		return -step
	}
	return step
}

// setVolumeFade starts a volume ramp toward dest (fixed point)
func (t *Track) setVolumeFade(dest, delay int) {
	if delay < 0 {
		delay = 0
	}
	t.volFadeDest = dest
	t.volFadeDelay = delay
	t.volFadeStep = fadeStep(dest-t.vol, delay)
	t.volFadeUsed = t.volFadeStep != 0

	// Fading an already silent track to silence ends it
	if !t.volFadeUsed && dest == 0 {
		t.toBeRemoved = true
	}
}

// setPanFade starts a pan ramp toward dest (fixed point)
func (t *Track) setPanFade(dest, delay int) {
	if delay < 0 {
		delay = 0
	}
	t.panFadeDest = dest
	t.panFadeDelay = delay
	t.panFadeStep = fadeStep(dest-t.pan, delay)
	t.panFadeUsed = t.panFadeStep != 0
}

// advanceFades moves both envelopes one tick forward
func (t *Track) advanceFades() {
	if t.volFadeUsed {
		switch {
		case t.volFadeStep < 0:
			if t.vol > t.volFadeDest {
				t.vol += t.volFadeStep
				if t.vol <= t.volFadeDest {
					t.vol = t.volFadeDest
					t.volFadeUsed = false
				}
				if t.vol == 0 {
					t.toBeRemoved = true
				}
			} else {
				t.volFadeUsed = false
			}
		case t.volFadeStep > 0:
			if t.vol < t.volFadeDest {
				t.vol += t.volFadeStep
				if t.vol >= t.volFadeDest {
					t.vol = t.volFadeDest
					t.volFadeUsed = false
				}
			} else {
				t.volFadeUsed = false
			}
		default:
			t.volFadeUsed = false
		}
		if t.volFadeDelay > 0 {
			t.volFadeDelay--
		}
	}

	if t.panFadeUsed {
		switch {
		case t.panFadeStep < 0:
			if t.pan > t.panFadeDest {
				t.pan += t.panFadeStep
				if t.pan <= t.panFadeDest {
					t.pan = t.panFadeDest
					t.panFadeUsed = false
				}
			} else {
				t.panFadeUsed = false
			}
		case t.panFadeStep > 0:
			if t.pan < t.panFadeDest {
				t.pan += t.panFadeStep
				if t.pan >= t.panFadeDest {
					t.pan = t.panFadeDest
					t.panFadeUsed = false
				}
			} else {
				t.panFadeUsed = false
			}
		default:
			t.panFadeUsed = false
		}
		if t.panFadeDelay > 0 {
			t.panFadeDelay--
		}
	}
}

// SetFadeVolume ramps a track's volume to dest (0-127) over ticks callback
// ticks. A zero tick count resolves the fade on the next tick.
func (e *Engine) SetFadeVolume(id, dest, ticks int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.track(id)
	if err != nil {
		return err
	}
	t.setVolumeFade(clampLevel(dest)*levelScale, ticks)
	return nil
}

// SetFadePan ramps a track's pan to dest (0-127, 64 is center) over ticks
// callback ticks
func (e *Engine) SetFadePan(id, dest, ticks int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.track(id)
	if err != nil {
		return err
	}
	t.setPanFade(clampLevel(dest)*levelScale, ticks)
	return nil
}
