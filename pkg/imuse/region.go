// ABOUTME: Region and jump resolution for playing tracks
// ABOUTME: Picks the next region, honors hooks and spawns crossfade clones
package imuse

import "log"

// fadeTicks converts a jump's fade length to callback ticks. Fades last
// FadeMs of wall time at any callback rate.
func (e *Engine) fadeTicks(fadeMs int) int {
	return e.config.CallbackFPS * fadeMs / 1000
}

// switchToNextRegion moves the track past its current region. It is called
// when the region is exhausted or the track has not been positioned yet.
func (e *Engine) switchToNextRegion(t *Track) {
	// Fade clones never branch, they play out and end
	if t.id >= e.config.MaxTracks {
		t.toBeRemoved = true
		return
	}

	snd := t.sound
	numRegions := snd.NumRegions()

	t.curRegion++
	if t.curRegion >= numRegions {
		t.curRegion = numRegions - 1
		t.toBeRemoved = true
		return
	}

	jump, ok := snd.FindJump(t.curRegion, t.curHookID)
	if !ok {
		jump, ok = snd.FindJump(t.curRegion, 0)
	}
	if ok && (jump.Dest < 0 || jump.Dest >= numRegions) {
		log.Printf("imuse: ignoring jump in %s from region %d to invalid region %d", t.soundName, t.curRegion, jump.Dest)
		ok = false
	}

	if ok {
		fadeDelay := e.fadeTicks(jump.FadeMs)
		if jump.HookID != 0 {
			if t.curHookID == jump.HookID {
				if fadeDelay != 0 {
					if clone := e.cloneToFadeOutTrack(t, fadeDelay); clone != nil {
						clone.dataOffset = snd.RegionOffset(clone.curRegion)
						clone.regionOffset = 0
						clone.curHookID = 0
					}
				}
				if e.config.Debug {
					log.Printf("[DEBUG] imuse: %s hook %d taken, region %d -> %d", t.soundName, jump.HookID, t.curRegion, jump.Dest)
				}
				t.curRegion = jump.Dest
				t.curHookID = 0
			}
		} else {
			if fadeDelay != 0 {
				if clone := e.cloneToFadeOutTrack(t, fadeDelay); clone != nil {
					clone.dataOffset = snd.RegionOffset(clone.curRegion)
					clone.regionOffset = 0
				}
			}
			t.curRegion = jump.Dest
			if t.curHookID == HookEnd {
				t.curHookID = 0
			}
		}
	}

	t.dataOffset = snd.RegionOffset(t.curRegion)
	t.regionOffset = 0
}
