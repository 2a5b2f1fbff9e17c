// ABOUTME: Track state for the music engine
// ABOUTME: Holds per-slot playback cursors, fades and the fade-out clone logic
package imuse

import (
	"fmt"
	"log"
)

const (
	// Fixed-point scale for vol and pan
	levelScale = 1000

	// MaxLevel is the highest volume or pan a caller can request
	MaxLevel = 127

	// CenterPan is the pan value that maps to a centered balance
	CenterPan = 64

	// MaxSoundNameLen is the longest sound name that fits a save slot
	MaxSoundNameLen = soundNameSize - 1
)

// Volume groups. Group volumes scale every track in the group.
const (
	GroupNone  = 0
	GroupVoice = 1
	GroupSFX   = 2
	GroupMusic = 3
)

// HookEnd is the reserved hook that is cleared once an unconditional jump is taken
const HookEnd = 0x80

// Track is one slot of the engine's track pool
type Track struct {
	id        int
	used      bool
	soundName string
	sound     Sound

	vol          int
	volFadeUsed  bool
	volFadeDest  int
	volFadeDelay int
	volFadeStep  int

	pan          int
	panFadeUsed  bool
	panFadeDest  int
	panFadeDelay int
	panFadeStep  int

	curRegion    int
	curHookID    int
	regionOffset int
	dataOffset   int

	priority   int
	volGroupID int
	iteration  int
	mixerFlags MixerFlags

	toBeRemoved   bool
	readyToRemove bool
	started       bool

	stream   AppendStream
	channel  ChannelID
	mixerVol int
	mixerPan int

	// A restored track's fresh stream is empty, so its first feed uses
	// the starvation state saved with the track instead
	resumed       bool
	resumeStarved bool
}

// TrackInfo is a copy of a track's persistent fields
type TrackInfo struct {
	ID        int
	Used      bool
	SoundName string

	Volume       int
	VolFadeUsed  bool
	VolFadeDest  int
	VolFadeDelay int
	VolFadeStep  int

	Pan          int
	PanFadeUsed  bool
	PanFadeDest  int
	PanFadeDelay int
	PanFadeStep  int

	CurRegion    int
	CurHookID    int
	RegionOffset int
	DataOffset   int

	Priority   int
	VolGroupID int
	Iteration  int
	MixerFlags MixerFlags

	ToBeRemoved   bool
	ReadyToRemove bool
	Started       bool

	MixerVol int
	MixerPan int
}

// IsFadeClone reports whether the slot belongs to the fade clone range
func (i TrackInfo) IsFadeClone(maxTracks int) bool {
	return i.ID >= maxTracks
}

// VolumeLevel returns the current volume on the 0-127 caller scale
func (i TrackInfo) VolumeLevel() int { return i.Volume / levelScale }

// PanLevel returns the current pan on the 0-127 caller scale
func (i TrackInfo) PanLevel() int { return i.Pan / levelScale }

// PosIn60HzTicks returns the playback position in 1/60 s units
func (i TrackInfo) PosIn60HzTicks() int {
	if i.Iteration < 12 {
		return 0
	}
	return (5 * (i.DataOffset + i.RegionOffset)) / (i.Iteration / 12)
}

func (t *Track) info() TrackInfo {
	return TrackInfo{
		ID:            t.id,
		Used:          t.used,
		SoundName:     t.soundName,
		Volume:        t.vol,
		VolFadeUsed:   t.volFadeUsed,
		VolFadeDest:   t.volFadeDest,
		VolFadeDelay:  t.volFadeDelay,
		VolFadeStep:   t.volFadeStep,
		Pan:           t.pan,
		PanFadeUsed:   t.panFadeUsed,
		PanFadeDest:   t.panFadeDest,
		PanFadeDelay:  t.panFadeDelay,
		PanFadeStep:   t.panFadeStep,
		CurRegion:     t.curRegion,
		CurHookID:     t.curHookID,
		RegionOffset:  t.regionOffset,
		DataOffset:    t.dataOffset,
		Priority:      t.priority,
		VolGroupID:    t.volGroupID,
		Iteration:     t.iteration,
		MixerFlags:    t.mixerFlags,
		ToBeRemoved:   t.toBeRemoved,
		ReadyToRemove: t.readyToRemove,
		Started:       t.started,
		MixerVol:      t.mixerVol,
		MixerPan:      t.mixerPan,
	}
}

// live reports whether the track still produces audio
func (t *Track) live() bool {
	return t.used && !t.toBeRemoved && !t.readyToRemove
}

// reset returns the slot to the free state
// starved reports whether the next feed takes the catch-up chunk
func (t *Track) starved() bool {
	if t.resumed {
		return t.resumeStarved
	}
	return t.stream == nil || t.stream.EndOfData()
}

// feedState returns what a save records about the next feed: whether the
// track has been fed yet and, if so, whether its stream is starved
func (t *Track) feedState() (fed, starved bool) {
	if t.resumed {
		return true, t.resumeStarved
	}
	if t.stream == nil {
		return false, false
	}
	return true, t.stream.EndOfData()
}

func (t *Track) reset() {
	*t = Track{id: t.id, curRegion: -1}
}

// clampLevel limits a caller level to 0..MaxLevel
func clampLevel(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxLevel {
		return MaxLevel
	}
	return v
}

// freeFadeSlot picks the slot paired with the source track, then any free
// slot in the fade clone range
func (e *Engine) freeFadeSlot(source *Track) *Track {
	paired := source.id + e.config.MaxTracks
	if paired < len(e.tracks) && !e.tracks[paired].used {
		return e.tracks[paired]
	}
	for _, t := range e.tracks[e.config.MaxTracks:] {
		if !t.used {
			return t
		}
	}
	return nil
}

// cloneToFadeOutTrack copies source into a fade clone slot and starts a fade
// to silence over fadeDelay ticks. The clone gets its own mixer stream; the
// sound handle is shared. Returns nil when no slot is free.
func (e *Engine) cloneToFadeOutTrack(source *Track, fadeDelay int) *Track {
	if source.toBeRemoved {
		log.Printf("imuse: refusing to clone track %d (%s): already being removed", source.id, source.soundName)
		return nil
	}

	clone := e.freeFadeSlot(source)
	if clone == nil {
		log.Printf("imuse: dropping crossfade for %s: %v", source.soundName, ErrCapacityExhausted)
		return nil
	}

	id := clone.id
	*clone = *source
	clone.id = id
	clone.stream = nil
	clone.channel = 0
	clone.resumed = false
	clone.readyToRemove = false

	clone.setVolumeFade(0, fadeDelay)
	e.attachStream(clone)

	if e.config.Debug {
		log.Printf("[DEBUG] imuse: cloned track %d to fade track %d (%s, %d ticks)",
			source.id, clone.id, clone.soundName, fadeDelay)
	}

	return clone
}

// attachStream creates an append stream for the track and binds it to the mixer
func (e *Engine) attachStream(t *Track) {
	t.stream = e.mixer.NewAppendStream(t.sound.Freq(), t.mixerFlags, t.iteration)
	t.channel = e.mixer.Play(t.stream, t.mixerVol, t.mixerPan, e.paused)
}

// releaseTrack detaches the track from the mixer and frees its slot
func (e *Engine) releaseTrack(t *Track) {
	if t.stream != nil {
		e.mixer.Stop(t.channel)
	}
	if e.config.Debug {
		log.Printf("[DEBUG] imuse: released track %d (%s)", t.id, t.soundName)
	}
	t.reset()
}

// track returns the slot for id if it is in use
func (e *Engine) track(id int) (*Track, error) {
	if id < 0 || id >= len(e.tracks) || !e.tracks[id].used {
		return nil, fmt.Errorf("track %d: %w", id, ErrNoSuchTrack)
	}
	return e.tracks[id], nil
}
