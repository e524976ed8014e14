package upload

import "errors"

var (
	// ErrNotFound is returned when a request_id has no row.
	ErrNotFound = errors.New("upload: request not found")

	// ErrDestinationNotFound is returned when a destination key isn't
	// present on the request's Destinations map.
	ErrDestinationNotFound = errors.New("upload: destination not found")

	// ErrNotFailed is returned by Resubmit when the destination's current
	// status isn't StatusFailed — the sole allowed resubmit precondition.
	ErrNotFailed = errors.New("upload: destination is not in a failed state")

	// ErrEmptyDestinations is returned when Intake would otherwise create
	// a parent with zero children.
	ErrEmptyDestinations = errors.New("upload: no valid destinations")
)
