package catalog

import "errors"

var (
	// ErrFetchStatus is returned when an HTTP catalog source answers with a non-2xx status.
	ErrFetchStatus = errors.New("catalog fetch returned non-success status")

	// ErrEmptySource is returned when no catalog location is configured.
	ErrEmptySource = errors.New("catalog source is not configured")
)
