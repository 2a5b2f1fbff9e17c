// ABOUTME: Interactive music engine package documentation
// ABOUTME: Describes the track pool, tick callback and save/restore model
// Package imuse implements an interactive music engine: a fixed pool of
// audio tracks advanced by a periodic tick.
//
// Each tick the engine walks every track slot in index order, advances
// volume and pan fades, resolves region jumps inside the track's sound
// and feeds decoded PCM into a mixer stream. Jumps can be gated by a hook
// id, which lets game code steer music at region boundaries. A jump with
// a fade delay spawns a fade clone in a dedicated slot range so the old
// region fades out while the track continues at the jump destination.
//
// The engine consumes two collaborators through interfaces:
//   - SoundManager opens named sounds and exposes their regions and jumps
//   - Mixer accepts append streams and plays them with volume and balance
//
// The complete engine state can be written to and read from a save stream
// (see package savegame). Restoring reopens every live sound and reattaches
// fresh mixer streams.
//
// Example:
//
//	engine := imuse.New(imuse.Config{CallbackFPS: 20}, bank, mixer)
//	defer engine.Close()
//	go engine.Run(ctx)
//
//	id, err := engine.StartSound("intro", imuse.GroupMusic, 0, 127, 64, 100)
//	engine.SetHookID(id, 1)
package imuse
