// ABOUTME: Opus pack container framing
// ABOUTME: Header and length-prefixed packet layout shared by encoder and decoder
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// PackMagic opens every Opus pack file
	PackMagic = "OPK1"

	packHeaderSize = 16

	// MaxPacketSize bounds a single encoded packet
	MaxPacketSize = 4000
)

// PackHeader describes the PCM layout of an Opus pack
type PackHeader struct {
	SampleRate int
	Channels   int
	FrameSize  int // samples per channel in each packet
	Frames     int // total samples per channel before padding
}

// WritePackHeader writes the pack header to w
func WritePackHeader(w io.Writer, h PackHeader) error {
	var b [packHeaderSize]byte
	copy(b[:4], PackMagic)
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.SampleRate))
	binary.LittleEndian.PutUint16(b[8:10], uint16(h.Channels))
	binary.LittleEndian.PutUint16(b[10:12], uint16(h.FrameSize))
	binary.LittleEndian.PutUint32(b[12:16], uint32(h.Frames))
	if _, err := w.Write(b[:]); err != nil {
		return fmt.Errorf("write pack header: %w", err)
	}
	return nil
}

// ReadPackHeader reads and validates the pack header from r
func ReadPackHeader(r io.Reader) (PackHeader, error) {
	var b [packHeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return PackHeader{}, fmt.Errorf("read pack header: %w", err)
	}
	if string(b[:4]) != PackMagic {
		return PackHeader{}, fmt.Errorf("not an opus pack: magic %q", b[:4])
	}
	h := PackHeader{
		SampleRate: int(binary.LittleEndian.Uint32(b[4:8])),
		Channels:   int(binary.LittleEndian.Uint16(b[8:10])),
		FrameSize:  int(binary.LittleEndian.Uint16(b[10:12])),
		Frames:     int(binary.LittleEndian.Uint32(b[12:16])),
	}
	if h.Channels != 1 && h.Channels != 2 {
		return PackHeader{}, fmt.Errorf("opus pack has %d channels", h.Channels)
	}
	if h.FrameSize == 0 {
		return PackHeader{}, fmt.Errorf("opus pack has zero frame size")
	}
	return h, nil
}

// WritePacket writes one length-prefixed packet
func WritePacket(w io.Writer, packet []byte) error {
	if len(packet) > MaxPacketSize {
		return fmt.Errorf("packet of %d bytes exceeds %d", len(packet), MaxPacketSize)
	}
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(len(packet)))
	if _, err := w.Write(n[:]); err != nil {
		return fmt.Errorf("write packet length: %w", err)
	}
	if _, err := w.Write(packet); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	return nil
}

// ReadPacket reads one length-prefixed packet. It returns io.EOF cleanly at
// the end of the pack.
func ReadPacket(r io.Reader) ([]byte, error) {
	var n [2]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read packet length: %w", err)
	}
	size := int(binary.LittleEndian.Uint16(n[:]))
	if size > MaxPacketSize {
		return nil, fmt.Errorf("packet of %d bytes exceeds %d", size, MaxPacketSize)
	}
	packet := make([]byte, size)
	if _, err := io.ReadFull(r, packet); err != nil {
		return nil, fmt.Errorf("read packet: %w", err)
	}
	return packet, nil
}
