// Package protocol implements the operator command frame exchanged between the
// topside console and the vehicle.
//
// Wire layout (one byte each):
//
//	0 surge magnitude   3 yaw magnitude     6 aux (valves, LED)
//	1 sway magnitude    4 heave magnitude   7 XOR checksum of bytes 0..6
//	2 pitch magnitude   5 sign bits         8 terminator (255)
//
// Only bytes 0..5 are needed to build a command. Magnitudes are in [0, 254] and
// the aux byte keeps its top bit clear, so a 255 in bytes 0..6 can only be a
// terminator. The checksum may be 255; the terminator that follows it then
// arrives as an empty frame.
package protocol

import "errors"

// Byte offsets inside a frame.
const (
	OffsetSurge    = 0
	OffsetSway     = 1
	OffsetPitch    = 2
	OffsetYaw      = 3
	OffsetHeave    = 4
	OffsetSign     = 5
	OffsetAux      = 6
	OffsetChecksum = 7
)

// Sign bits inside the sign byte. A set bit negates that axis.
const (
	SignSurge byte = 1 << 0
	SignSway  byte = 1 << 1
	SignPitch byte = 1 << 2
	SignYaw   byte = 1 << 3
	SignHeave byte = 1 << 4
)

// Aux bits as toggled by the console.
const (
	AuxValve1 byte = 1 << 0
	AuxValve2 byte = 1 << 1
	AuxLED    byte = 1 << 2
)

const (
	// PayloadLength is the number of bytes a command is decoded from.
	PayloadLength = 6
	// ChecksummedLength is the number of bytes needed to verify the checksum.
	ChecksummedLength = 8
	// FrameLength is the full wire frame including the terminator.
	FrameLength = 9
	// Terminator ends every frame on the wire.
	Terminator byte = 255
	// MaxMagnitude is the largest magnitude byte a sender may emit.
	MaxMagnitude byte = 254
)

var (
	// ErrIncompleteFrame means fewer bytes than required arrived before the deadline.
	ErrIncompleteFrame = errors.New("incomplete frame")
	// ErrChecksumMismatch means byte 7 does not match the XOR of bytes 0..6.
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
)

// Checksum returns the XOR of the first seven frame bytes.
func Checksum(b []byte) byte {
	var sum byte
	for i := 0; i < OffsetChecksum && i < len(b); i++ {
		sum ^= b[i]
	}
	return sum
}

// Trim cuts raw at the first terminator. Bytes after it belong to no frame.
func Trim(raw []byte) []byte {
	for i, b := range raw {
		if b == Terminator {
			return raw[:i]
		}
	}
	return raw
}

// Aux returns the aux byte of a frame, or 0 if the frame does not carry one.
func Aux(frame []byte) byte {
	if len(frame) <= OffsetAux {
		return 0
	}
	return frame[OffsetAux]
}
