package account

import "errors"

var (
	// ErrNotFound is returned by Get/UpdateTokens/Delete when the
	// (user_id, account_id) composite key has no row.
	ErrNotFound = errors.New("account: not found")

	// ErrInvalidPlatform is returned when a platform tag falls outside
	// the closed six-platform set.
	ErrInvalidPlatform = errors.New("account: unsupported platform")
)
