package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShortPacket is returned when a packet is smaller than its kind requires
	ErrShortPacket = errors.New("protocol: packet too short")

	// ErrUnknownKind is returned for an unrecognised tag byte
	ErrUnknownKind = errors.New("protocol: unknown event kind")

	// ErrTrailingBytes is returned when a packet is longer than its kind allows
	ErrTrailingBytes = errors.New("protocol: unexpected trailing bytes")

	// ErrBadCoordinate is returned for NaN or infinite coordinates
	ErrBadCoordinate = errors.New("protocol: non-finite coordinate")
)

// Encoded sizes including the tag byte.
//
// Wire format per kind (big-endian):
//
//	Move          (0x01): tag + x(float64) + y(float64)   = 17 bytes
//	MoveRelative  (0x02): tag + dx(float64) + dy(float64) = 17 bytes
//	Click/Release (0x03-0x08): tag                        =  1 byte
//	ScrollUp/Down (0x09-0x0A): tag                        =  1 byte
//	Scroll        (0x0B): tag + dx(int32) + dy(int32)     =  9 bytes
const (
	SizeTagOnly = 1
	SizeMove    = 1 + 16
	SizeScroll  = 1 + 8

	// MaxEncodedSize is the largest packet Encode produces
	MaxEncodedSize = SizeMove
)

// EncodedSize returns the number of bytes Encode produces for kind k, or 0
// for unknown kinds.
func EncodedSize(k Kind) int {
	switch {
	case k == KindMove || k == KindMoveRelative:
		return SizeMove
	case k == KindScroll:
		return SizeScroll
	case k.Valid():
		return SizeTagOnly
	}
	return 0
}

// Encode serializes an event to wire format.
func Encode(ev MouseEvent) ([]byte, error) {
	size := EncodedSize(ev.Kind)
	if size == 0 {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownKind, uint8(ev.Kind))
	}

	buf := make([]byte, size)
	buf[0] = uint8(ev.Kind)
	payload := buf[1:]

	switch ev.Kind {
	case KindMove:
		putFloat(payload[0:8], ev.X)
		putFloat(payload[8:16], ev.Y)
	case KindMoveRelative:
		putFloat(payload[0:8], ev.DX)
		putFloat(payload[8:16], ev.DY)
	case KindScroll:
		binary.BigEndian.PutUint32(payload[0:4], uint32(ev.ScrollX))
		binary.BigEndian.PutUint32(payload[4:8], uint32(ev.ScrollY))
	}

	return buf, nil
}

// Decode deserializes wire bytes into an event. Anything that is not exactly
// one well-formed event is rejected.
func Decode(data []byte) (MouseEvent, error) {
	if len(data) < SizeTagOnly {
		return MouseEvent{}, ErrShortPacket
	}

	kind := Kind(data[0])
	size := EncodedSize(kind)
	if size == 0 {
		return MouseEvent{}, fmt.Errorf("%w: 0x%02X", ErrUnknownKind, data[0])
	}
	if len(data) < size {
		return MouseEvent{}, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPacket, kind, size, len(data))
	}
	if len(data) > size {
		return MouseEvent{}, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrTrailingBytes, kind, size, len(data))
	}

	ev := MouseEvent{Kind: kind}
	payload := data[1:]

	switch kind {
	case KindMove:
		ev.X = getFloat(payload[0:8])
		ev.Y = getFloat(payload[8:16])
		if !finite(ev.X) || !finite(ev.Y) {
			return MouseEvent{}, ErrBadCoordinate
		}
	case KindMoveRelative:
		ev.DX = getFloat(payload[0:8])
		ev.DY = getFloat(payload[8:16])
		if !finite(ev.DX) || !finite(ev.DY) {
			return MouseEvent{}, ErrBadCoordinate
		}
	case KindScroll:
		ev.ScrollX = int32(binary.BigEndian.Uint32(payload[0:4]))
		ev.ScrollY = int32(binary.BigEndian.Uint32(payload[4:8]))
	}

	return ev, nil
}

func putFloat(b []byte, v float64) {
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
}

func getFloat(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
