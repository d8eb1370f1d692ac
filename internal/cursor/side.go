package cursor

import (
	"errors"
	"fmt"
	"strings"
)

// Side names the machine whose physical pointer drives the virtual cursor.
type Side uint8

const (
	Local Side = iota
	Remote
)

func (s Side) String() string {
	switch s {
	case Local:
		return "Local"
	case Remote:
		return "Remote"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// MoveMode selects how forwarded motion is encoded for a session.
type MoveMode uint8

const (
	// Absolute forwards Move events in the remote's pixel space.
	Absolute MoveMode = iota
	// Relative forwards MoveRelative events carrying the raw delta.
	Relative
)

// ErrUnknownMoveMode is returned when parsing an unrecognised move mode
var ErrUnknownMoveMode = errors.New("unknown move mode")

// ParseMoveMode accepts "absolute" or "relative", case-insensitively. An
// empty string means Absolute.
func ParseMoveMode(s string) (MoveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "absolute":
		return Absolute, nil
	case "relative":
		return Relative, nil
	}
	return Absolute, fmt.Errorf("%w: %q", ErrUnknownMoveMode, s)
}

func (m MoveMode) String() string {
	if m == Relative {
		return "relative"
	}
	return "absolute"
}

func (m MoveMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MoveMode) UnmarshalText(text []byte) error {
	v, err := ParseMoveMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
