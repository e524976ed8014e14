package scheduled

import "errors"

var (
	// ErrNotFound is returned when a (user_id, scheduled_post_id) has no row.
	ErrNotFound = errors.New("scheduled: post not found")

	// ErrNotDue is returned if a caller tries to promote a row whose
	// scheduled_time has not yet passed.
	ErrNotDue = errors.New("scheduled: post is not yet due")
)
