package scheduled

import (
	"context"
	"time"
)

// Repository is the ScheduledPost store contract backing the Scheduler
// (spec §4.7).
type Repository interface {
	Create(ctx context.Context, p *Post) error
	Get(ctx context.Context, userID, scheduledPostID string) (*Post, error)

	// DueBefore returns scheduled rows with status=scheduled and
	// scheduled_time <= now.
	DueBefore(ctx context.Context, now time.Time) ([]*Post, error)

	// TryPromote performs the conditional single-shot transition
	// scheduled -> processing. ok is false (no error) when another
	// concurrent tick already won the race — spec §8 property 5.
	TryPromote(ctx context.Context, userID, scheduledPostID string) (ok bool, err error)

	MarkPosted(ctx context.Context, userID, scheduledPostID, requestID string, postedAt time.Time) error
	MarkFailed(ctx context.Context, userID, scheduledPostID, errMsg string) error
}
