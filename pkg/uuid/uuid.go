// Package uuid provides UUID v7 generation.
// UUID v7 is sortable by timestamp, which keeps append-only tables
// (audit log) in insertion order under a primary-key index.
package uuid

import (
	"crypto/rand"
	"fmt"
	"time"
)

// UUID represents a UUID v7 identifier.
type UUID [16]byte

// NewV7 generates a new UUID v7 per RFC 9562:
// 48 bits of Unix milliseconds, then version/variant bits over random data.
func NewV7() UUID {
	var u UUID

	now := time.Now().UnixMilli()
	u[0] = byte(now >> 40)
	u[1] = byte(now >> 32)
	u[2] = byte(now >> 24)
	u[3] = byte(now >> 16)
	u[4] = byte(now >> 8)
	u[5] = byte(now)

	// Remaining 10 bytes are random; crypto/rand never fails on
	// supported platforms, and a zeroed tail is still a valid UUID.
	_, _ = rand.Read(u[6:])

	// Version 0111 in the high nibble of byte 6.
	u[6] = 0x70 | (u[6] & 0x0f)
	// RFC 4122 variant 10xxxxxx in byte 7.
	u[7] = 0x80 | (u[7] & 0x3f)

	return u
}

// String returns the UUID in standard form: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func (u UUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		u[0:4],
		u[4:6],
		u[6:8],
		u[8:10],
		u[10:16],
	)
}
