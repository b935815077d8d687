// Package protocol implements the wire encoding for the desk's GATT
// characteristics: the position reading and the motor command opcodes.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Height is a desk height in tenth-millimetres.
type Height int32

// Physical envelope of the desk. The position characteristic reports an
// offset from MinHeight.
const (
	MinHeight Height = 6200
	MaxHeight Height = 12700
)

// PositionSize is the length of a position characteristic value.
// Only the first two bytes carry the height; the rest is reserved.
const PositionSize = 4

// ErrShortBuffer is returned when a position value is too short to hold a height.
var ErrShortBuffer = errors.New("protocol: position value shorter than 2 bytes")

// InRange reports whether h lies within [MinHeight, MaxHeight].
func (h Height) InRange() bool {
	return h >= MinHeight && h <= MaxHeight
}

// Centimeters converts h for display.
func (h Height) Centimeters() float64 {
	return float64(h) / 100
}

func (h Height) String() string {
	return fmt.Sprintf("%.1fcm", h.Centimeters())
}

// FromCentimeters converts a user-facing centimetre value to a Height,
// rounding to the nearest tenth-millimetre.
func FromCentimeters(cm float64) Height {
	return Height(math.Round(cm * 100))
}

// DecodeHeight decodes a position characteristic value.
//
//	bytes 0-1: little-endian uint16 offset from MinHeight
//	bytes 2-3: reserved
func DecodeHeight(b []byte) (Height, error) {
	if len(b) < 2 {
		return 0, ErrShortBuffer
	}
	raw := binary.LittleEndian.Uint16(b[:2])
	return MinHeight + Height(raw), nil
}

// EncodeHeight is the inverse of DecodeHeight. The reserved bytes are zero.
func EncodeHeight(h Height) ([]byte, error) {
	if !h.InRange() {
		return nil, fmt.Errorf("protocol: height %d outside [%d, %d]", h, MinHeight, MaxHeight)
	}
	buf := make([]byte, PositionSize)
	binary.LittleEndian.PutUint16(buf, uint16(h-MinHeight))
	return buf, nil
}
