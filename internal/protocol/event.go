// Package protocol defines the pointer events exchanged between the two
// machines and their binary wire form.
package protocol

import "fmt"

// Kind is the discriminant of a MouseEvent. Its numeric value is the tag
// byte on the wire, so existing values must never be renumbered.
type Kind uint8

const (
	KindNone          Kind = 0x00 // zero value; never sent
	KindMove          Kind = 0x01
	KindMoveRelative  Kind = 0x02
	KindLeftClick     Kind = 0x03
	KindLeftRelease   Kind = 0x04
	KindRightClick    Kind = 0x05
	KindRightRelease  Kind = 0x06
	KindMiddleClick   Kind = 0x07
	KindMiddleRelease Kind = 0x08
	KindScrollUp      Kind = 0x09
	KindScrollDown    Kind = 0x0A
	KindScroll        Kind = 0x0B
)

var kindNames = map[Kind]string{
	KindMove:          "Move",
	KindMoveRelative:  "MoveRelative",
	KindLeftClick:     "LeftClick",
	KindLeftRelease:   "LeftRelease",
	KindRightClick:    "RightClick",
	KindRightRelease:  "RightRelease",
	KindMiddleClick:   "MiddleClick",
	KindMiddleRelease: "MiddleRelease",
	KindScrollUp:      "ScrollUp",
	KindScrollDown:    "ScrollDown",
	KindScroll:        "Scroll",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(0x%02X)", uint8(k))
}

// Valid reports whether k is a known, sendable kind
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// IsButton is true for the press and release kinds
func (k Kind) IsButton() bool {
	return k >= KindLeftClick && k <= KindMiddleRelease
}

// IsScroll is true for the three scroll kinds
func (k Kind) IsScroll() bool {
	return k == KindScrollUp || k == KindScrollDown || k == KindScroll
}

// MouseEvent is one pointer event. Only the fields belonging to Kind are
// meaningful:
//
//	Move          X, Y      absolute position in the receiver's pixels
//	MoveRelative  DX, DY    relative motion
//	Scroll        ScrollX, ScrollY
//
// The button and fixed scroll kinds carry no payload.
type MouseEvent struct {
	Kind    Kind
	X       float64
	Y       float64
	DX      float64
	DY      float64
	ScrollX int32
	ScrollY int32
}

// Move returns an absolute move event
func Move(x, y float64) MouseEvent {
	return MouseEvent{Kind: KindMove, X: x, Y: y}
}

// MoveBy returns a relative move event
func MoveBy(dx, dy float64) MouseEvent {
	return MouseEvent{Kind: KindMoveRelative, DX: dx, DY: dy}
}

// Scroll returns a free-form scroll event
func Scroll(dx, dy int32) MouseEvent {
	return MouseEvent{Kind: KindScroll, ScrollX: dx, ScrollY: dy}
}

// Button returns a payload-less event (click, release or scroll tick).
func Button(kind Kind) MouseEvent {
	return MouseEvent{Kind: kind}
}

func (e MouseEvent) String() string {
	switch e.Kind {
	case KindMove:
		return fmt.Sprintf("Move{x: %.1f, y: %.1f}", e.X, e.Y)
	case KindMoveRelative:
		return fmt.Sprintf("MoveRelative{dx: %.1f, dy: %.1f}", e.DX, e.DY)
	case KindScroll:
		return fmt.Sprintf("Scroll{dx: %d, dy: %d}", e.ScrollX, e.ScrollY)
	default:
		return e.Kind.String()
	}
}
