// ABOUTME: Save stream reader with tagged sections
// ABOUTME: Locates sections by tag and decodes their scalar fields
package savegame

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// FormatError describes malformed save data and where it was found
type FormatError struct {
	Message string
	Offset  int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("savegame: %s (offset=%d)", e.Message, e.Offset)
}

// Reader reads a save stream held in memory
type Reader struct {
	data    []byte
	version uint32
}

// NewReader validates the stream header
func NewReader(data []byte) (*Reader, error) {
	if len(data) < headerSize {
		return nil, &FormatError{Message: "stream shorter than header", Offset: 0}
	}
	if !bytes.Equal(data[:4], []byte(Magic)) {
		return nil, &FormatError{Message: fmt.Sprintf("bad magic %q", data[:4]), Offset: 0}
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, &FormatError{Message: fmt.Sprintf("unsupported format version %d", version), Offset: 4}
	}
	return &Reader{data: data, version: version}, nil
}

// Section finds the first section with the given tag
func (r *Reader) Section(tag string) (*Section, error) {
	offset := headerSize
	for offset < len(r.data) {
		if len(r.data)-offset < sectionHeaderSize {
			return nil, &FormatError{Message: "truncated section header", Offset: offset}
		}
		header := r.data[offset : offset+sectionHeaderSize]
		size := int(binary.LittleEndian.Uint32(header[8:12]))
		start := offset + sectionHeaderSize
		if size < 0 || size > len(r.data)-start {
			return nil, &FormatError{Message: fmt.Sprintf("section %q overruns stream", header[:4]), Offset: offset}
		}
		if string(header[:4]) == tag {
			return &Section{
				Tag:     tag,
				Version: binary.LittleEndian.Uint32(header[4:8]),
				data:    r.data[start : start+size],
				base:    start,
			}, nil
		}
		offset = start + size
	}
	return nil, &FormatError{Message: fmt.Sprintf("section %q not found", tag), Offset: offset}
}

// Section decodes the payload of one section. Reads are sticky on error:
// after the first failure they return zero values and Err reports it.
type Section struct {
	Tag     string
	Version uint32

	data   []byte
	offset int
	base   int
	err    error
}

// ReadInt32 reads a little-endian 32-bit integer
func (s *Section) ReadInt32() int32 {
	b := s.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// ReadInt reads a 32-bit integer as int
func (s *Section) ReadInt() int {
	return int(s.ReadInt32())
}

// ReadBool reads a single byte that must be 0 or 1
func (s *Section) ReadBool() bool {
	b := s.take(1)
	if b == nil {
		return false
	}
	switch b[0] {
	case 0:
		return false
	case 1:
		return true
	}
	s.fail(fmt.Sprintf("invalid bool byte %d", b[0]), s.offset-1)
	return false
}

// ReadString reads a NUL-padded field of size bytes
func (s *Section) ReadString(size int) string {
	b := s.take(size)
	if b == nil {
		return ""
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	s.fail("string field is not NUL terminated", s.offset-size)
	return ""
}

// Remaining returns the number of unread payload bytes
func (s *Section) Remaining() int {
	return len(s.data) - s.offset
}

// Err returns the first decoding error
func (s *Section) Err() error {
	return s.err
}

func (s *Section) take(n int) []byte {
	if s.err != nil {
		return nil
	}
	if len(s.data)-s.offset < n {
		s.fail(fmt.Sprintf("section %s truncated: need %d bytes, have %d", s.Tag, n, len(s.data)-s.offset), s.offset)
		return nil
	}
	b := s.data[s.offset : s.offset+n]
	s.offset += n
	return b
}

func (s *Section) fail(msg string, offset int) {
	if s.err == nil {
		s.err = &FormatError{Message: msg, Offset: s.base + offset}
	}
}
