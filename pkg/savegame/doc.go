// ABOUTME: Save stream container package documentation
// ABOUTME: Describes the header and section framing of save files
// Package savegame reads and writes sectioned binary save streams.
//
// A stream starts with the 4-byte magic "RSAV" and a little-endian uint32
// container version. Sections follow back to back, each framed as a 4-byte
// tag, a uint32 schema version and a uint32 payload length. Payload fields
// are little-endian int32 values, single-byte bools and NUL-padded
// fixed-width strings; their order is defined by the section's owner.
package savegame
