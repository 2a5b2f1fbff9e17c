// ABOUTME: Collaborator interfaces consumed by the music engine
// ABOUTME: Defines the sound resource and mixer sink contracts
package imuse

// Jump is an edge in a sound's region graph. When playback enters Region
// with a matching hook, it continues at Dest instead.
type Jump struct {
	Region int // region the jump is attached to
	Dest   int // destination region
	HookID int // 0 for an unconditional jump
	FadeMs int // crossfade length in milliseconds, 0 for a hard cut
}

// Sound is an opened sound resource. Handles are shared between a track
// and its fade clones, so implementations must not keep read cursors.
type Sound interface {
	// Freq returns the sample rate in Hz
	Freq() int

	// Channels returns 1 for mono or 2 for stereo
	Channels() int

	// Bits returns the sample width of the decoded PCM
	Bits() int

	// NumRegions returns the number of regions in the sound
	NumRegions() int

	// RegionOffset returns the byte offset of a region within the decoded data
	RegionOffset(region int) int

	// Data returns at most maxBytes of decoded PCM from region, starting
	// offset bytes into the region. A short or empty result is not an error.
	Data(region, offset, maxBytes int) []byte

	// RegionExhausted reports whether offset has reached the end of region
	RegionExhausted(region, offset int) bool

	// FindJump returns the jump attached to region for hookID
	FindJump(region, hookID int) (Jump, bool)
}

// SoundManager opens sounds by name. Group is the volume group the sound is
// requested for and may be used to pick a search location.
type SoundManager interface {
	Open(name string, group int) (Sound, error)
}

// MixerFlags describes the PCM layout of an append stream
type MixerFlags int32

const (
	FlagUnsigned MixerFlags = 1 << iota
	Flag16Bits
	FlagLittleEndian
	FlagStereo
)

// FlagsFor builds mixer flags for decoded little-endian PCM
func FlagsFor(channels, bits int) MixerFlags {
	flags := FlagLittleEndian
	if bits == 16 {
		flags |= Flag16Bits
	} else {
		flags |= FlagUnsigned
	}
	if channels == 2 {
		flags |= FlagStereo
	}
	return flags
}

// Has reports whether every bit in flag is set
func (f MixerFlags) Has(flag MixerFlags) bool {
	return f&flag == flag
}

// Channels returns the channel count encoded in the flags
func (f MixerFlags) Channels() int {
	if f&FlagStereo != 0 {
		return 2
	}
	return 1
}

// BytesPerSample returns the width of one sample of one channel
func (f MixerFlags) BytesPerSample() int {
	if f&Flag16Bits != 0 {
		return 2
	}
	return 1
}

// ChannelID identifies a stream bound to the mixer
type ChannelID int

// AppendStream is a PCM queue that the engine appends to and the mixer drains
type AppendStream interface {
	// Append queues PCM bytes for playback
	Append(data []byte)

	// EndOfData reports whether the queue has run dry
	EndOfData() bool
}

// Mixer is the output sink. All calls must be non-blocking.
type Mixer interface {
	// IsReady reports whether the output device accepts data
	IsReady() bool

	// NewAppendStream creates an empty stream for the given PCM layout
	NewAppendStream(freq int, flags MixerFlags, bufferSize int) AppendStream

	// Play binds a stream to a new channel. vol is 0-127, pan is -127..127.
	Play(s AppendStream, vol, pan int, paused bool) ChannelID

	// Stop detaches a channel and discards its stream
	Stop(ch ChannelID)

	SetVolume(ch ChannelID, vol int)
	SetBalance(ch ChannelID, pan int)
	Pause(ch ChannelID, paused bool)
}
