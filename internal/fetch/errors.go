package fetch

import "errors"

var (
	// ErrHelperFailed is returned when the download helper cannot be
	// started or exits with a non-zero status.
	ErrHelperFailed = errors.New("download helper failed")

	// ErrCancelled is returned when a fetch is abandoned because the
	// pipeline was stopped.
	ErrCancelled = errors.New("fetch cancelled")
)
