// ABOUTME: Tests for the engine's track pool and control surface
// ABOUTME: Covers allocation, capacity, groups, queries and music state
package imuse

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNewAppliesDefaults(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, nil)
	cfg := e.Config()

	if cfg.CallbackFPS != DefaultCallbackFPS || cfg.MaxTracks != DefaultMaxTracks || cfg.MaxFadeTracks != DefaultMaxFadeTracks {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if len(e.tracks) != DefaultMaxTracks+DefaultMaxFadeTracks {
		t.Errorf("expected %d slots, got %d", DefaultMaxTracks+DefaultMaxFadeTracks, len(e.tracks))
	}
	for _, g := range []int{GroupVoice, GroupSFX, GroupMusic} {
		if v := e.GroupVolume(g); v != MaxLevel {
			t.Errorf("group %d volume %d, want %d", g, v, MaxLevel)
		}
	}
}

func TestStartSoundInitializesTrack(t *testing.T) {
	s := &fakeSound{freq: 22050, channels: 2, regions: []int{4000}}
	e, _ := newTestEngine(t, Config{}, map[string]*fakeSound{"stereo": s})

	id, err := e.StartSound("stereo", GroupVoice, 5, 200, -3, 90)
	if err != nil {
		t.Fatalf("StartSound: %v", err)
	}

	info, used := e.Track(id)
	if !used {
		t.Fatal("expected slot in use")
	}
	if info.Volume != 127000 || info.Pan != 0 {
		t.Errorf("expected clamped levels 127000/0, got %d/%d", info.Volume, info.Pan)
	}
	if info.CurRegion != -1 || info.CurHookID != 5 || info.Priority != 90 {
		t.Errorf("unexpected cursor: region %d hook %d priority %d", info.CurRegion, info.CurHookID, info.Priority)
	}
	if info.Iteration != 22050*2*2 {
		t.Errorf("expected iteration %d, got %d", 22050*2*2, info.Iteration)
	}
	if !info.MixerFlags.Has(FlagStereo) || !info.MixerFlags.Has(Flag16Bits) {
		t.Errorf("expected stereo 16-bit flags, got %v", info.MixerFlags)
	}
	if info.IsFadeClone(e.Config().MaxTracks) {
		t.Error("primary track reported as fade clone")
	}
}

func TestStartSoundErrors(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, map[string]*fakeSound{"s": monoSound(100)})

	if _, err := e.StartSound("missing", GroupSFX, 0, 127, CenterPan, 64); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound, got %v", err)
	}
	if _, err := e.StartSound("", GroupSFX, 0, 127, CenterPan, 64); err == nil {
		t.Error("expected error for empty name")
	}
	long := strings.Repeat("x", MaxSoundNameLen+1)
	if _, err := e.StartSound(long, GroupSFX, 0, 127, CenterPan, 64); err == nil {
		t.Error("expected error for name longer than a save slot")
	}
	for _, group := range []int{-1, GroupMusic + 1, 0x80} {
		if _, err := e.StartSound("s", group, 0, 127, CenterPan, 64); err == nil {
			t.Errorf("expected error for volume group %d", group)
		}
	}
	if len(e.Tracks()) != 0 {
		t.Error("failed starts must not allocate")
	}
}

func TestStartSoundCapacityExhausted(t *testing.T) {
	sounds := map[string]*fakeSound{"a": monoSound(1000), "b": monoSound(1000), "c": monoSound(1000)}
	e, _ := newTestEngine(t, Config{MaxTracks: 2, MaxFadeTracks: 2}, sounds)

	mustStart(t, e, "a", GroupSFX)
	mustStart(t, e, "b", GroupSFX)
	e.Tick()

	before := e.Tracks()
	_, err := e.StartSound("c", GroupSFX, 0, 127, CenterPan, 64)
	if !errors.Is(err, ErrCapacityExhausted) {
		t.Fatalf("expected ErrCapacityExhausted, got %v", err)
	}
	if after := e.Tracks(); !reflect.DeepEqual(before, after) {
		t.Errorf("tracks changed on failed start:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestStartSoundReusesFreedSlot(t *testing.T) {
	e, _ := newTestEngine(t, Config{MaxTracks: 1, MaxFadeTracks: 1}, map[string]*fakeSound{"s": monoSound(1000)})
	id := mustStart(t, e, "s", GroupSFX)

	e.StopAllSounds()

	again := mustStart(t, e, "s", GroupSFX)
	if again != id {
		t.Errorf("expected slot %d reused, got %d", id, again)
	}
}

func TestTrackControlsRejectUnknownTrack(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, nil)

	checks := map[string]error{
		"StopTrack":   e.StopTrack(0),
		"SetVolume":   e.SetVolume(0, 10),
		"SetPan":      e.SetPan(0, 10),
		"SetPriority": e.SetPriority(0, 10),
		"SetHookID":   e.SetHookID(0, 1),
		"SetFadePan":  e.SetFadePan(-1, 10, 5),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNoSuchTrack) {
			t.Errorf("%s: expected ErrNoSuchTrack, got %v", name, err)
		}
	}
	if _, err := e.PosIn60HzTicks(999); !errors.Is(err, ErrNoSuchTrack) {
		t.Errorf("PosIn60HzTicks: expected ErrNoSuchTrack, got %v", err)
	}
}

func TestSetVolumeAndPanCancelFades(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, map[string]*fakeSound{"s": monoSound(1000)})
	id := mustStart(t, e, "s", GroupSFX)

	_ = e.SetFadeVolume(id, 0, 50)
	_ = e.SetFadePan(id, 0, 50)
	if err := e.SetVolume(id, 80); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if err := e.SetPan(id, 300); err != nil {
		t.Fatalf("SetPan: %v", err)
	}

	info, _ := e.Track(id)
	if info.Volume != 80000 || info.VolFadeUsed {
		t.Errorf("volume %d fade %v", info.Volume, info.VolFadeUsed)
	}
	if info.Pan != 127000 || info.PanFadeUsed {
		t.Errorf("pan %d fade %v", info.Pan, info.PanFadeUsed)
	}
}

func TestSetGroupVolume(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, nil)

	if err := e.SetGroupVolume(GroupMusic, 500); err != nil {
		t.Fatalf("SetGroupVolume: %v", err)
	}
	if v := e.GroupVolume(GroupMusic); v != MaxLevel {
		t.Errorf("expected clamp to %d, got %d", MaxLevel, v)
	}
	if err := e.SetGroupVolume(GroupNone, 10); err == nil {
		t.Error("expected error for group 0")
	}
	if err := e.SetGroupVolume(9, 10); err == nil {
		t.Error("expected error for unknown group")
	}
	if v := e.GroupVolume(GroupNone); v != MaxLevel {
		t.Errorf("ungrouped volume %d, want %d", v, MaxLevel)
	}
}

func TestStopSoundMarksEveryInstance(t *testing.T) {
	sounds := map[string]*fakeSound{"a": monoSound(1000), "b": monoSound(1000)}
	e, _ := newTestEngine(t, Config{}, sounds)
	a1 := mustStart(t, e, "a", GroupSFX)
	a2 := mustStart(t, e, "a", GroupSFX)
	b := mustStart(t, e, "b", GroupSFX)

	if n := e.CountPlayedTracks("a"); n != 2 {
		t.Fatalf("expected 2 instances of a, got %d", n)
	}
	if n := e.StopSound("a"); n != 2 {
		t.Errorf("expected 2 tracks stopped, got %d", n)
	}

	for _, id := range []int{a1, a2} {
		if info, _ := e.Track(id); !info.ToBeRemoved {
			t.Errorf("track %d not marked", id)
		}
	}
	if info, _ := e.Track(b); info.ToBeRemoved {
		t.Error("unrelated track marked")
	}
	if n := e.CountPlayedTracks("a"); n != 0 {
		t.Errorf("expected no live instances, got %d", n)
	}
}

func TestMusicQueries(t *testing.T) {
	sounds := map[string]*fakeSound{"theme": monoSound(1000), "line": monoSound(1000)}
	e, _ := newTestEngine(t, Config{}, sounds)

	if e.IsVoicePlaying() || e.CurMusicSoundName() != "" {
		t.Fatal("empty engine reports activity")
	}

	mustStart(t, e, "theme", GroupMusic)
	voice := mustStart(t, e, "line", GroupVoice)

	if !e.IsVoicePlaying() {
		t.Error("expected voice playing")
	}
	if got := e.CurMusicSoundName(); got != "theme" {
		t.Errorf("expected theme, got %q", got)
	}

	_ = e.StopTrack(voice)
	if e.IsVoicePlaying() {
		t.Error("stopping voice track should end voice playback")
	}
}

func TestPosIn60HzTicks(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, map[string]*fakeSound{"s": monoSound(1000)})
	id := mustStart(t, e, "s", GroupSFX)

	e.Tick()
	e.Tick()

	// 200 bytes of a 2000 byte/s sound is 1/10 s
	pos, err := e.PosIn60HzTicks(id)
	if err != nil {
		t.Fatalf("PosIn60HzTicks: %v", err)
	}
	if pos != 6 {
		t.Errorf("expected 6, got %d", pos)
	}
}

func TestFadeOutMusicHandsOffToClones(t *testing.T) {
	sounds := map[string]*fakeSound{"theme": monoSound(5000), "fx": monoSound(5000)}
	e, _ := newTestEngine(t, Config{}, sounds)
	music := mustStart(t, e, "theme", GroupMusic)
	fx := mustStart(t, e, "fx", GroupSFX)
	e.Tick()

	e.FadeOutMusic(10)

	info, _ := e.Track(music)
	if !info.ToBeRemoved {
		t.Error("expected music track handed off")
	}
	clone, used := e.Track(music + e.Config().MaxTracks)
	if !used || !clone.VolFadeUsed || clone.VolFadeDelay != 10 || clone.SoundName != "theme" {
		t.Errorf("unexpected clone: used=%v %+v", used, clone)
	}
	if !clone.IsFadeClone(e.Config().MaxTracks) {
		t.Error("clone not in fade range")
	}
	if info, _ := e.Track(fx); info.ToBeRemoved || info.VolFadeUsed {
		t.Error("sfx track affected by music fade")
	}
}

func TestFadeOutMusicBeforeFirstTickFadesInPlace(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, map[string]*fakeSound{"theme": monoSound(5000)})
	id := mustStart(t, e, "theme", GroupMusic)

	e.FadeOutMusic(4)

	info, _ := e.Track(id)
	if info.ToBeRemoved || !info.VolFadeUsed || info.VolFadeDest != 0 {
		t.Errorf("expected in-place fade, got %+v", info)
	}
	if len(e.Tracks()) != 1 {
		t.Error("unexpected clone for unpositioned track")
	}
}

func TestMusicStateAndAttributes(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, nil)

	e.SetMusicState(1200)
	e.SetMusicSequence(2010)
	if err := e.SetAttribute(184, -7); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	if err := e.SetAttribute(NumAttributes, 1); err == nil {
		t.Error("expected range error")
	}
	if _, err := e.Attribute(-1); err == nil {
		t.Error("expected range error")
	}

	if e.MusicState() != 1200 || e.MusicSequence() != 2010 {
		t.Errorf("got state %d seq %d", e.MusicState(), e.MusicSequence())
	}
	if v, _ := e.Attribute(184); v != -7 {
		t.Errorf("attribute 184 = %d", v)
	}

	e.Reset()
	if e.MusicState() != 0 || e.MusicSequence() != 0 {
		t.Error("reset left music state")
	}
	if v, _ := e.Attribute(184); v != 0 {
		t.Error("reset left attributes")
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	e, _ := newTestEngine(t, Config{CallbackFPS: 200}, map[string]*fakeSound{"s": monoSound(100000)})
	id := mustStart(t, e, "s", GroupSFX)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		info, _ := e.Track(id)
		if info.Started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("track never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
