package activity

import "errors"

var (
	// ErrInvalidInput indicates invalid input for activity operations.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrInvalidEvent indicates an event was assembled without its required fields.
	ErrInvalidEvent = errors.New("invalid activity event")
	// ErrUnsupportedEvent indicates an event that belongs to another app or kind.
	ErrUnsupportedEvent = errors.New("unsupported activity event")
)
