// ABOUTME: Engine state save and restore
// ABOUTME: Serializes group volumes, music state and every track slot
package imuse

import (
	"bytes"
	"fmt"
	"log"

	"github.com/Resonate-Protocol/imuse-go/pkg/savegame"
)

const (
	stateSectionTag = "IMUS"
	stateVersion    = 3
	soundNameSize   = 32
)

// savedState is a decoded IMUS section, staged before it replaces live state
type savedState struct {
	volVoice, volSfx, volMusic int
	musicState, musicSeq       int
	attributes                 [NumAttributes]int32
	tracks                     []Track
}

// Snapshot returns the engine state as a complete save stream
func (e *Engine) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	w := savegame.NewWriter(&buf)
	if err := e.SaveState(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Restore replaces the engine state with a stream produced by Snapshot
func (e *Engine) Restore(data []byte) error {
	r, err := savegame.NewReader(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSaveState, err)
	}
	return e.RestoreState(r)
}

// SaveState writes the IMUS section to w
func (e *Engine) SaveState(w *savegame.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	log.Printf("imuse: saving state")

	w.BeginSection(stateSectionTag, stateVersion)
	w.WriteInt(e.volVoice)
	w.WriteInt(e.volSfx)
	w.WriteInt(e.volMusic)
	w.WriteInt(e.curMusicState)
	w.WriteInt(e.curMusicSeq)
	for _, v := range e.attributes {
		w.WriteInt32(v)
	}
	for _, t := range e.tracks {
		writeTrack(w, t)
	}
	if err := w.EndSection(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	log.Printf("imuse: state saved")
	return nil
}

func writeTrack(w *savegame.Writer, t *Track) {
	w.WriteInt(t.pan)
	w.WriteInt(t.panFadeDest)
	w.WriteInt(t.panFadeDelay)
	w.WriteInt(t.panFadeStep)
	w.WriteBool(t.panFadeUsed)
	w.WriteInt(t.vol)
	w.WriteInt(t.volFadeDest)
	w.WriteInt(t.volFadeDelay)
	w.WriteInt(t.volFadeStep)
	w.WriteBool(t.volFadeUsed)
	w.WriteString(t.soundName, soundNameSize)
	w.WriteBool(t.used)
	w.WriteBool(t.toBeRemoved)
	w.WriteBool(t.readyToRemove)
	w.WriteBool(t.started)
	w.WriteInt(t.priority)
	w.WriteInt(t.regionOffset)
	w.WriteInt(t.dataOffset)
	w.WriteInt(t.curRegion)
	w.WriteInt(t.curHookID)
	w.WriteInt(t.volGroupID)
	w.WriteInt(t.iteration)
	w.WriteInt32(int32(t.mixerFlags))
	w.WriteInt(t.mixerVol)
	w.WriteInt(t.mixerPan)
	fed, starved := t.feedState()
	w.WriteBool(fed)
	w.WriteBool(starved)
}

func readTrack(s *savegame.Section, t *Track) {
	t.pan = s.ReadInt()
	t.panFadeDest = s.ReadInt()
	t.panFadeDelay = s.ReadInt()
	t.panFadeStep = s.ReadInt()
	t.panFadeUsed = s.ReadBool()
	t.vol = s.ReadInt()
	t.volFadeDest = s.ReadInt()
	t.volFadeDelay = s.ReadInt()
	t.volFadeStep = s.ReadInt()
	t.volFadeUsed = s.ReadBool()
	t.soundName = s.ReadString(soundNameSize)
	t.used = s.ReadBool()
	t.toBeRemoved = s.ReadBool()
	t.readyToRemove = s.ReadBool()
	t.started = s.ReadBool()
	t.priority = s.ReadInt()
	t.regionOffset = s.ReadInt()
	t.dataOffset = s.ReadInt()
	t.curRegion = s.ReadInt()
	t.curHookID = s.ReadInt()
	t.volGroupID = s.ReadInt()
	t.iteration = s.ReadInt()
	t.mixerFlags = MixerFlags(s.ReadInt32())
	t.mixerVol = s.ReadInt()
	t.mixerPan = s.ReadInt()
	t.resumed = s.ReadBool() && t.used
	t.resumeStarved = s.ReadBool()
}

// decodeState reads an IMUS section without touching the engine
func decodeState(s *savegame.Section, slots int) (*savedState, error) {
	if s.Version != stateVersion {
		return nil, fmt.Errorf("%w: state version %d, want %d", ErrCorruptSaveState, s.Version, stateVersion)
	}

	st := &savedState{tracks: make([]Track, slots)}
	st.volVoice = s.ReadInt()
	st.volSfx = s.ReadInt()
	st.volMusic = s.ReadInt()
	st.musicState = s.ReadInt()
	st.musicSeq = s.ReadInt()
	for i := range st.attributes {
		st.attributes[i] = s.ReadInt32()
	}
	for i := range st.tracks {
		st.tracks[i].id = i
		readTrack(s, &st.tracks[i])
	}

	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSaveState, err)
	}
	if s.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in state section", ErrCorruptSaveState, s.Remaining())
	}

	for _, v := range []int{st.volVoice, st.volSfx, st.volMusic} {
		if v < 0 || v > MaxLevel {
			return nil, fmt.Errorf("%w: group volume %d out of range", ErrCorruptSaveState, v)
		}
	}
	for i := range st.tracks {
		t := &st.tracks[i]
		if t.used && t.soundName == "" {
			return nil, fmt.Errorf("%w: track %d is used but has no sound", ErrCorruptSaveState, i)
		}
		if t.curRegion < -1 {
			return nil, fmt.Errorf("%w: track %d has region %d", ErrCorruptSaveState, i, t.curRegion)
		}
	}

	return st, nil
}

// RestoreState replaces the engine state with the IMUS section from r.
// The section is decoded and every live sound reopened before anything is
// replaced, so a failed restore leaves the engine untouched.
func (e *Engine) RestoreState(r *savegame.Reader) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	log.Printf("imuse: restoring state")

	section, err := r.Section(stateSectionTag)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSaveState, err)
	}
	st, err := decodeState(section, len(e.tracks))
	if err != nil {
		return err
	}

	for i := range st.tracks {
		t := &st.tracks[i]
		if !t.used {
			continue
		}
		t.readyToRemove = false
		if t.toBeRemoved {
			// A dying track is not resurrected
			*t = Track{id: i, curRegion: -1}
			continue
		}
		snd, err := e.sounds.Open(t.soundName, t.volGroupID)
		if err != nil {
			log.Printf("imuse: restore cannot reopen %s: %v", t.soundName, err)
			return fmt.Errorf("restore track %d: %w: %w", i, ErrResourceNotFound, err)
		}
		if snd == nil {
			return fmt.Errorf("restore track %d: %w", i, ErrResourceNotFound)
		}
		if t.curRegion >= snd.NumRegions() {
			return fmt.Errorf("%w: track %d region %d past end of %s", ErrCorruptSaveState, i, t.curRegion, t.soundName)
		}
		t.sound = snd
	}

	e.stopAllSounds()

	e.volVoice = st.volVoice
	e.volSfx = st.volSfx
	e.volMusic = st.volMusic
	e.curMusicState = st.musicState
	e.curMusicSeq = st.musicSeq
	e.attributes = st.attributes

	restored := 0
	for i := range st.tracks {
		t := e.tracks[i]
		*t = st.tracks[i]
		t.stream = nil
		t.channel = 0
		if !t.used {
			continue
		}
		e.attachStream(t)
		restored++
	}

	log.Printf("imuse: state restored (%d live tracks)", restored)
	return nil
}
