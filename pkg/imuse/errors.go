// ABOUTME: Sentinel errors returned by the music engine
// ABOUTME: Callers match them with errors.Is
package imuse

import "errors"

var (
	// ErrCapacityExhausted means no free primary or fade slot was available
	ErrCapacityExhausted = errors.New("imuse: no free track slot")

	// ErrResourceNotFound means the sound manager could not open a sound
	ErrResourceNotFound = errors.New("imuse: sound not found")

	// ErrCorruptSaveState means a save stream had the wrong tag, version or layout
	ErrCorruptSaveState = errors.New("imuse: corrupt save state")

	// ErrNoSuchTrack means the track id is out of range or the slot is free
	ErrNoSuchTrack = errors.New("imuse: no such track")
)
