// Package geometry describes the two-screen layout and maps between each
// machine's pixel space and the shared virtual desktop.
package geometry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDirection is returned when a direction name cannot be parsed
var ErrUnknownDirection = errors.New("unknown direction")

// Direction names a side of a screen. It is used both for where a screen sits
// in the layout and for which edge hands control over.
type Direction uint8

const (
	Left Direction = iota + 1
	Right
	Top
	Bottom
)

// ParseDirection accepts "Left", "left", "LEFT" and so on.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "top":
		return Top, nil
	case "bottom":
		return Bottom, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Top:
		return "Top"
	case Bottom:
		return "Bottom"
	default:
		return "Unknown"
	}
}

// Valid reports whether d is one of the four named directions
func (d Direction) Valid() bool {
	return d >= Left && d <= Bottom
}

// Horizontal is true for Left and Right, whose axis is x.
func (d Direction) Horizontal() bool {
	return d == Left || d == Right
}

// Opposite returns the facing direction (Left <-> Right, Top <-> Bottom).
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Top:
		return Bottom
	case Bottom:
		return Top
	default:
		return d
	}
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirection, d)
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so config files can use
// plain direction names.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Screen is a display size in pixels
type Screen struct {
	Width  uint32 `json:"width" yaml:"width" toml:"width"`
	Height uint32 `json:"height" yaml:"height" toml:"height"`
}

// extent returns the screen size along the x axis when horizontal, else y.
func (s Screen) extent(horizontal bool) float64 {
	if horizontal {
		return float64(s.Width)
	}
	return float64(s.Height)
}

// Center returns the middle pixel of the screen
func (s Screen) Center() LocalPoint {
	return LocalPoint{X: float64(s.Width) / 2, Y: float64(s.Height) / 2}
}

// LocalPoint is a position in one machine's own pixel space.
type LocalPoint struct {
	X float64
	Y float64
}

// VirtualPoint is a position in the shared desktop spanning both screens.
type VirtualPoint struct {
	X float64
	Y float64
}

// DefaultEdgeThreshold is how close to the transfer edge, in pixels, the
// pointer must come before control moves to the other machine.
const DefaultEdgeThreshold = 5.0

// Layout is the static arrangement of the two screens. It is read-only once
// built and safe to share between goroutines.
type Layout struct {
	Local  Screen
	Remote Screen

	// Position is where this machine's screen sits relative to the peer;
	// RemotePosition is where the peer sits.
	Position       Direction
	RemotePosition Direction

	// EdgeToRemote is the edge of the local screen that hands control to the
	// remote; EdgeToLocal is the edge of the remote screen that hands it back.
	EdgeToRemote Direction
	EdgeToLocal  Direction

	// Threshold is the edge proximity in pixels (DefaultEdgeThreshold if zero).
	Threshold float64
}

// NewLayout builds a layout whose edges follow from the adjacency.
func NewLayout(local, remote Screen, position Direction) Layout {
	return Layout{
		Local:          local,
		Remote:         remote,
		Position:       position,
		RemotePosition: position.Opposite(),
		EdgeToRemote:   position.Opposite(),
		EdgeToLocal:    position,
		Threshold:      DefaultEdgeThreshold,
	}
}

// Horizontal reports whether the screens sit side by side.
func (l Layout) Horizontal() bool {
	return l.Position.Horizontal()
}

// LocalFirst reports whether this machine occupies the low end of the
// virtual axis (Left of the pair, or Top).
func (l Layout) LocalFirst() bool {
	return l.Position == Left || l.Position == Top
}

func (l Layout) threshold() float64 {
	if l.Threshold <= 0 {
		return DefaultEdgeThreshold
	}
	return l.Threshold
}
