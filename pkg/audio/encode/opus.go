// ABOUTME: Opus audio encoder
// ABOUTME: Encodes int32 samples to Opus packets and whole assets to Opus packs
package encode

import (
	"fmt"
	"io"
	"log"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int
}

// OpusRates lists the sample rates Opus accepts
var OpusRates = []int{8000, 12000, 16000, 24000, 48000}

// IsOpusRate reports whether Opus can encode at rate
func IsOpusRate(rate int) bool {
	for _, r := range OpusRates {
		if r == rate {
			return true
		}
	}
	return false
}

// NewOpus creates an Opus encoder producing 20ms packets
func NewOpus(format audio.Format) (*OpusEncoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	// 20ms frames
	frameSize := format.SampleRate / 50

	return &OpusEncoder{
		encoder:    encoder,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
		frameSize:  frameSize,
	}, nil
}

// SetBitrate sets the target bitrate in bits per second
func (e *OpusEncoder) SetBitrate(bps int) error {
	if err := e.encoder.SetBitrate(bps); err != nil {
		return fmt.Errorf("set opus bitrate: %w", err)
	}
	return nil
}

// FrameSize returns the samples per channel in one packet
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Encode converts one frame of int32 samples to an Opus packet
func (e *OpusEncoder) Encode(samples []int32) ([]byte, error) {
	pcm := make([]int16, len(samples))
	for i, sample := range samples {
		pcm[i] = audio.SampleToInt16(sample)
	}

	data := make([]byte, audio.MaxPacketSize)
	n, err := e.encoder.Encode(pcm, data)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	return data[:n], nil
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}

// WriteOpusPack encodes a whole asset as an Opus pack. The asset must
// already be at an Opus sample rate; the last frame is zero padded.
func WriteOpusPack(w io.Writer, pcm *audio.PCM, bitrate int) error {
	format := pcm.Format
	if !IsOpusRate(format.SampleRate) {
		return fmt.Errorf("opus cannot encode at %d Hz (supported: %v)", format.SampleRate, OpusRates)
	}

	enc, err := NewOpus(audio.Format{Codec: "opus", SampleRate: format.SampleRate, Channels: format.Channels, BitDepth: 16})
	if err != nil {
		return err
	}
	defer enc.Close()

	if bitrate > 0 {
		if err := enc.SetBitrate(bitrate); err != nil {
			return err
		}
	}

	header := audio.PackHeader{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		FrameSize:  enc.FrameSize(),
		Frames:     pcm.Frames(),
	}
	if err := audio.WritePackHeader(w, header); err != nil {
		return err
	}

	step := enc.FrameSize() * format.Channels
	frame := make([]int32, step)
	packets := 0
	for start := 0; start < len(pcm.Samples); start += step {
		n := copy(frame, pcm.Samples[start:])
		for i := n; i < step; i++ {
			frame[i] = 0
		}
		packet, err := enc.Encode(frame)
		if err != nil {
			return fmt.Errorf("packet %d: %w", packets, err)
		}
		if err := audio.WritePacket(w, packet); err != nil {
			return err
		}
		packets++
	}

	log.Printf("Encoded opus pack: %d Hz, %d channels, %d frames in %d packets",
		header.SampleRate, header.Channels, header.Frames, packets)
	return nil
}
