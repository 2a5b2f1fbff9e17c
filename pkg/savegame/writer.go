// ABOUTME: Save stream writer with tagged sections
// ABOUTME: Writes little-endian scalars and fixed-width strings into sections
package savegame

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Magic opens every save stream
	Magic = "RSAV"

	// FormatVersion is the container version written after the magic
	FormatVersion = 1

	headerSize        = 8
	sectionHeaderSize = 12
)

// Writer writes a save stream. Scalar writes are sticky on error: once a
// write fails every later call is a no-op and Err reports the failure.
type Writer struct {
	w   io.Writer
	err error

	inSection bool
	tag       string
	version   uint32
	payload   bytes.Buffer
}

// NewWriter writes the stream header to w and returns a Writer
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}

	var header [headerSize]byte
	copy(header[:4], Magic)
	binary.LittleEndian.PutUint32(header[4:], FormatVersion)
	if _, err := w.Write(header[:]); err != nil {
		sw.err = fmt.Errorf("write header: %w", err)
	}

	return sw
}

// BeginSection starts a section. tag must be exactly four bytes.
func (w *Writer) BeginSection(tag string, version uint32) {
	if w.err != nil {
		return
	}
	if len(tag) != 4 {
		w.err = fmt.Errorf("section tag %q must be 4 bytes", tag)
		return
	}
	if w.inSection {
		w.err = fmt.Errorf("section %s started inside section %s", tag, w.tag)
		return
	}
	w.inSection = true
	w.tag = tag
	w.version = version
	w.payload.Reset()
}

// EndSection flushes the current section to the underlying writer
func (w *Writer) EndSection() error {
	if w.err != nil {
		return w.err
	}
	if !w.inSection {
		w.err = fmt.Errorf("EndSection without BeginSection")
		return w.err
	}

	var header [sectionHeaderSize]byte
	copy(header[:4], w.tag)
	binary.LittleEndian.PutUint32(header[4:8], w.version)
	binary.LittleEndian.PutUint32(header[8:12], uint32(w.payload.Len()))

	if _, err := w.w.Write(header[:]); err != nil {
		w.err = fmt.Errorf("write section %s header: %w", w.tag, err)
		return w.err
	}
	if _, err := w.w.Write(w.payload.Bytes()); err != nil {
		w.err = fmt.Errorf("write section %s: %w", w.tag, err)
		return w.err
	}

	w.inSection = false
	w.payload.Reset()
	return nil
}

// WriteInt32 writes a little-endian 32-bit integer
func (w *Writer) WriteInt32(v int32) {
	if !w.ok() {
		return
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.payload.Write(b[:])
}

// WriteInt writes v as a 32-bit integer
func (w *Writer) WriteInt(v int) {
	w.WriteInt32(int32(v))
}

// WriteBool writes a single byte, 1 for true
func (w *Writer) WriteBool(v bool) {
	if !w.ok() {
		return
	}
	if v {
		w.payload.WriteByte(1)
	} else {
		w.payload.WriteByte(0)
	}
}

// WriteString writes s into a NUL-padded field of size bytes. The string
// must leave room for at least one NUL.
func (w *Writer) WriteString(s string, size int) {
	if !w.ok() {
		return
	}
	if len(s) >= size {
		w.err = fmt.Errorf("string %q does not fit a %d byte field", s, size)
		return
	}
	field := make([]byte, size)
	copy(field, s)
	w.payload.Write(field)
}

// Err returns the first error encountered
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) ok() bool {
	if w.err != nil {
		return false
	}
	if !w.inSection {
		w.err = fmt.Errorf("write outside of a section")
		return false
	}
	return true
}
