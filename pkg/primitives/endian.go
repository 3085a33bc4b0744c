package primitives

import "encoding/binary"

// ReadU16LE reads a little-endian uint16 used by XMF, RIFF, MUS, and RCP.
func ReadU16LE(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// ReadU32LE reads a little-endian uint32.
func ReadU32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// ReadU16BE reads a big-endian uint16, used by SMF chunk/header fields.
func ReadU16BE(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// ReadU32BE reads a big-endian uint32, used by SMF chunk sizes.
func ReadU32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// PutU16BE appends the big-endian encoding of v to buf.
func PutU16BE(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

// PutU32BE appends the big-endian encoding of v to buf.
func PutU32BE(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// TakeU16LE consumes 2 bytes from c as a little-endian uint16.
func TakeU16LE(c *Cursor) (uint16, bool) {
	b, ok := c.Take(2)
	if !ok {
		return 0, false
	}
	return ReadU16LE(b), true
}

// TakeU32LE consumes 4 bytes from c as a little-endian uint32.
func TakeU32LE(c *Cursor) (uint32, bool) {
	b, ok := c.Take(4)
	if !ok {
		return 0, false
	}
	return ReadU32LE(b), true
}

// TakeU16BE consumes 2 bytes from c as a big-endian uint16.
func TakeU16BE(c *Cursor) (uint16, bool) {
	b, ok := c.Take(2)
	if !ok {
		return 0, false
	}
	return ReadU16BE(b), true
}

// TakeU32BE consumes 4 bytes from c as a big-endian uint32.
func TakeU32BE(c *Cursor) (uint32, bool) {
	b, ok := c.Take(4)
	if !ok {
		return 0, false
	}
	return ReadU32BE(b), true
}
