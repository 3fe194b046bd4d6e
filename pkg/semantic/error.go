package semantic

import "errors"

var (
	// ErrEmptyUser is returned when an operation is given an empty user id.
	ErrEmptyUser = errors.New("user id is required")

	// ErrEmptyText is returned when Store is given empty text.
	ErrEmptyText = errors.New("memory text is required")
)
