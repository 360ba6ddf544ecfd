package pipeline

import (
	"crypto/rand"
	"time"
)

// crockford is the Crockford base32 alphabet used for ULID encoding.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewJobID returns a 26-character ULID: 48 bits of millisecond
// timestamp followed by 80 bits of randomness, Crockford base32
// encoded. IDs sort lexicographically by creation time.
func NewJobID() string {
	var b [16]byte

	ms := uint64(time.Now().UnixMilli())
	b[0] = byte(ms >> 40)
	b[1] = byte(ms >> 32)
	b[2] = byte(ms >> 24)
	b[3] = byte(ms >> 16)
	b[4] = byte(ms >> 8)
	b[5] = byte(ms)

	if _, err := rand.Read(b[6:]); err != nil {
		// crypto/rand only fails when the OS entropy source is
		// broken; fall back to the timestamp bytes repeated.
		copy(b[6:], b[:6])
		copy(b[12:], b[:4])
	}

	var out [26]byte
	// 128 bits -> 26 base32 chars (130 bits, top 2 padded with zero).
	var acc uint64
	bits := 0
	pos := 25
	for i := 15; i >= 0; i-- {
		acc |= uint64(b[i]) << bits
		bits += 8
		for bits >= 5 && pos >= 0 {
			out[pos] = crockford[acc&0x1f]
			acc >>= 5
			bits -= 5
			pos--
		}
	}
	for pos >= 0 {
		out[pos] = crockford[acc&0x1f]
		acc >>= 5
		pos--
	}
	return string(out[:])
}
