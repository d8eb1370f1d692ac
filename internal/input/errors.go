package input

import "errors"

var (
	// ErrUnsupportedPlatform is returned when a capture or injection backend
	// does not exist for the running OS
	ErrUnsupportedPlatform = errors.New("input: unsupported platform")

	// ErrPermissionDenied is returned when the process lacks the rights to read
	// or synthesize input
	ErrPermissionDenied = errors.New("input: permission denied")

	// ErrUnsupportedEvent is returned when an injector is handed an event kind it
	// cannot synthesize
	ErrUnsupportedEvent = errors.New("input: unsupported event")
)
