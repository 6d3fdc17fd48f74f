// Package varint decodes the unsigned little-endian base-128 integers used
// throughout the LevelDB on-disk format: block handles, entry prefix
// lengths, and the Snappy frame length.
package varint

import "io"

// Read decodes one varint from r, reading at most maxBytes bytes. It stops
// as soon as it consumes a byte whose high bit is clear, or after maxBytes
// bytes, whichever comes first — reaching the maxBytes limit is not an
// error, it just truncates the value the same way the source format does.
//
// Read returns io.EOF only when zero bytes could be read for the first byte
// of the varint. If some bytes were consumed before r runs dry, the error is
// whatever r.ReadByte returned and the accumulated partial value is
// returned alongside it; callers in the log-reader path rely on this to
// implement the format's partial-varint tolerance.
func Read(r io.ByteReader, maxBytes int) (uint64, error) {
	var v uint64
	for i := 0; i < maxBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i == 0 {
				return 0, err
			}
			return v, err
		}
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b < 0x80 {
			return v, nil
		}
	}
	return v, nil
}
