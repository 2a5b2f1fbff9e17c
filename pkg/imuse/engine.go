// ABOUTME: Music engine track pool and public control surface
// ABOUTME: Allocates tracks, applies requests and drives the tick loop
package imuse

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	// DefaultCallbackFPS is the tick rate of the engine callback
	DefaultCallbackFPS = 20

	// DefaultMaxTracks is the number of primary track slots
	DefaultMaxTracks = 16

	// DefaultMaxFadeTracks is the number of fade clone slots
	DefaultMaxFadeTracks = 16

	// NumAttributes is the size of the persisted music attribute table
	NumAttributes = 185
)

// Config holds engine configuration
type Config struct {
	CallbackFPS   int // Ticks per second
	MaxTracks     int // Primary slots, used by StartSound
	MaxFadeTracks int // Fade clone slots, used by crossfades
	Debug         bool
}

// Engine is the music engine. All exported methods are safe for
// concurrent use; they serialize on one mutex shared with Tick.
type Engine struct {
	config Config
	sounds SoundManager
	mixer  Mixer

	mu     sync.Mutex
	tracks []*Track
	paused bool

	volVoice int
	volSfx   int
	volMusic int

	curMusicState int
	curMusicSeq   int
	attributes    [NumAttributes]int32
}

// New creates an engine with every slot free
func New(config Config, sounds SoundManager, mixer Mixer) *Engine {
	if config.CallbackFPS <= 0 {
		config.CallbackFPS = DefaultCallbackFPS
	}
	if config.MaxTracks <= 0 {
		config.MaxTracks = DefaultMaxTracks
	}
	if config.MaxFadeTracks <= 0 {
		config.MaxFadeTracks = DefaultMaxFadeTracks
	}

	e := &Engine{
		config:   config,
		sounds:   sounds,
		mixer:    mixer,
		tracks:   make([]*Track, config.MaxTracks+config.MaxFadeTracks),
		volVoice: MaxLevel,
		volSfx:   MaxLevel,
		volMusic: MaxLevel,
	}
	for i := range e.tracks {
		e.tracks[i] = &Track{id: i, curRegion: -1}
	}

	log.Printf("imuse: engine created (%d tracks, %d fade tracks, %d ticks/s)",
		config.MaxTracks, config.MaxFadeTracks, config.CallbackFPS)

	return e
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.config
}

// Run calls Tick at the configured rate until ctx is cancelled
func (e *Engine) Run(ctx context.Context) {
	interval := time.Second / time.Duration(e.config.CallbackFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("imuse: tick loop started (%v interval)", interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("imuse: tick loop stopped")
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Close stops every sound and releases all mixer channels
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopAllSounds()
	log.Printf("imuse: engine closed")
	return nil
}

// StartSound allocates a primary track for the named sound. volume and pan
// are 0-127. The track is positioned on its first tick.
func (e *Engine) StartSound(name string, group, hookID, volume, pan, priority int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if name == "" || len(name) > MaxSoundNameLen {
		return -1, fmt.Errorf("invalid sound name %q", name)
	}
	if group != GroupNone && !isVolumeGroup(group) {
		return -1, fmt.Errorf("start %s: unknown volume group %d", name, group)
	}

	var slot *Track
	for _, t := range e.tracks[:e.config.MaxTracks] {
		if !t.used {
			slot = t
			break
		}
	}
	if slot == nil {
		log.Printf("imuse: cannot start %s: %v", name, ErrCapacityExhausted)
		return -1, fmt.Errorf("start %s: %w", name, ErrCapacityExhausted)
	}

	snd, err := e.sounds.Open(name, group)
	if err != nil {
		log.Printf("imuse: cannot open %s: %v", name, err)
		return -1, fmt.Errorf("start %s: %w: %w", name, ErrResourceNotFound, err)
	}

	id := slot.id
	*slot = Track{
		id:         id,
		used:       true,
		soundName:  name,
		sound:      snd,
		vol:        clampLevel(volume) * levelScale,
		pan:        clampLevel(pan) * levelScale,
		priority:   clampLevel(priority),
		volGroupID: group,
		curRegion:  -1,
		curHookID:  hookID,
		iteration:  snd.Freq() * snd.Channels() * (snd.Bits() / 8),
		mixerFlags: FlagsFor(snd.Channels(), snd.Bits()),
	}
	e.updateMixerLevels(slot)

	log.Printf("imuse: started %s on track %d (group %d, hook %d, vol %d, pan %d)",
		name, id, group, hookID, volume, pan)

	return id, nil
}

// StopTrack marks a track for removal. It drains for one more tick.
func (e *Engine) StopTrack(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.track(id)
	if err != nil {
		return err
	}
	t.toBeRemoved = true
	return nil
}

// StopSound marks every track playing the named sound for removal,
// fade clones included. Returns the number of tracks affected.
func (e *Engine) StopSound(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, t := range e.tracks {
		if t.used && !t.toBeRemoved && t.soundName == name {
			t.toBeRemoved = true
			n++
		}
	}
	return n
}

// StopAllSounds frees every slot immediately
func (e *Engine) StopAllSounds() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopAllSounds()
}

func (e *Engine) stopAllSounds() {
	for _, t := range e.tracks {
		if t.used {
			e.releaseTrack(t)
		}
	}
}

// FlushTracks frees slots that a previous tick marked ready to remove
func (e *Engine) FlushTracks() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.tracks {
		if t.used && t.readyToRemove {
			e.releaseTrack(t)
		}
	}
}

// FadeOutMusic fades every live music track to silence over ticks. Each
// track is handed to a fade clone; if none is free the track fades itself.
func (e *Engine) FadeOutMusic(ticks int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.tracks[:e.config.MaxTracks] {
		if !t.live() || t.volGroupID != GroupMusic {
			continue
		}
		if t.curRegion != -1 && e.cloneToFadeOutTrack(t, ticks) != nil {
			t.toBeRemoved = true
			continue
		}
		t.setVolumeFade(0, ticks)
	}
}

// SetPause suspends or resumes the tick callback and every mixer channel
func (e *Engine) SetPause(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused == paused {
		return
	}
	e.paused = paused
	for _, t := range e.tracks {
		if t.used && t.stream != nil {
			e.mixer.Pause(t.channel, paused)
		}
	}
	log.Printf("imuse: paused=%v", paused)
}

// Paused reports whether the engine is paused
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// SetVolume sets a track's volume (0-127) immediately, cancelling its fade
func (e *Engine) SetVolume(id, volume int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.track(id)
	if err != nil {
		return err
	}
	t.vol = clampLevel(volume) * levelScale
	t.volFadeUsed = false
	return nil
}

// SetPan sets a track's pan (0-127) immediately, cancelling its fade
func (e *Engine) SetPan(id, pan int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.track(id)
	if err != nil {
		return err
	}
	t.pan = clampLevel(pan) * levelScale
	t.panFadeUsed = false
	return nil
}

// SetPriority changes a track's priority (0-127)
func (e *Engine) SetPriority(id, priority int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.track(id)
	if err != nil {
		return err
	}
	t.priority = clampLevel(priority)
	return nil
}

// SetHookID sets the hook a track offers at its next region boundary
func (e *Engine) SetHookID(id, hookID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.track(id)
	if err != nil {
		return err
	}
	t.curHookID = hookID
	return nil
}

// SetGroupVolume sets the volume (0-127) of a volume group
func (e *Engine) SetGroupVolume(group, volume int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	volume = clampLevel(volume)
	switch group {
	case GroupVoice:
		e.volVoice = volume
	case GroupSFX:
		e.volSfx = volume
	case GroupMusic:
		e.volMusic = volume
	default:
		return fmt.Errorf("unknown volume group %d", group)
	}
	return nil
}

// GroupVolume returns the volume of a volume group, or MaxLevel for
// tracks outside any group
func (e *Engine) GroupVolume(group int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groupVolume(group)
}

func isVolumeGroup(group int) bool {
	return group == GroupVoice || group == GroupSFX || group == GroupMusic
}

func (e *Engine) groupVolume(group int) int {
	switch group {
	case GroupVoice:
		return e.volVoice
	case GroupSFX:
		return e.volSfx
	case GroupMusic:
		return e.volMusic
	}
	return MaxLevel
}

// Track returns a copy of slot id. The bool is false for free or
// out-of-range slots.
func (e *Engine) Track(id int) (TrackInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id < 0 || id >= len(e.tracks) {
		return TrackInfo{}, false
	}
	t := e.tracks[id]
	return t.info(), t.used
}

// Tracks returns copies of every used slot in index order
func (e *Engine) Tracks() []TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	var infos []TrackInfo
	for _, t := range e.tracks {
		if t.used {
			infos = append(infos, t.info())
		}
	}
	return infos
}

// IsVoicePlaying reports whether any live track belongs to the voice group
func (e *Engine) IsVoicePlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.tracks {
		if t.live() && t.volGroupID == GroupVoice {
			return true
		}
	}
	return false
}

// CountPlayedTracks returns how many live tracks play the named sound
func (e *Engine) CountPlayedTracks(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, t := range e.tracks {
		if t.live() && t.soundName == name {
			n++
		}
	}
	return n
}

// CurMusicSoundName returns the sound of the first live primary music track
func (e *Engine) CurMusicSoundName() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.tracks[:e.config.MaxTracks] {
		if t.live() && t.volGroupID == GroupMusic {
			return t.soundName
		}
	}
	return ""
}

// PosIn60HzTicks returns a track's playback position in 1/60 s units
func (e *Engine) PosIn60HzTicks(id int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.track(id)
	if err != nil {
		return 0, err
	}
	return t.info().PosIn60HzTicks(), nil
}

// SetMusicState records the current music state number
func (e *Engine) SetMusicState(state int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.curMusicState = state
}

// MusicState returns the current music state number
func (e *Engine) MusicState() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.curMusicState
}

// SetMusicSequence records the current music sequence number
func (e *Engine) SetMusicSequence(seq int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.curMusicSeq = seq
}

// MusicSequence returns the current music sequence number
func (e *Engine) MusicSequence() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.curMusicSeq
}

// SetAttribute stores a value in the music attribute table
func (e *Engine) SetAttribute(index int, value int32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= NumAttributes {
		return fmt.Errorf("attribute index %d out of range", index)
	}
	e.attributes[index] = value
	return nil
}

// Attribute reads a value from the music attribute table
func (e *Engine) Attribute(index int) (int32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= NumAttributes {
		return 0, fmt.Errorf("attribute index %d out of range", index)
	}
	return e.attributes[index], nil
}

// Reset clears the music state, sequence and attribute table
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.curMusicState = 0
	e.curMusicSeq = 0
	e.attributes = [NumAttributes]int32{}
}
