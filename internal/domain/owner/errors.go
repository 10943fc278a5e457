package owner

import "errors"

var (
	// ErrNotFound indicates the resource could not be located in the owner's root.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidPath indicates a structurally invalid path.
	ErrInvalidPath = errors.New("invalid path")
)
