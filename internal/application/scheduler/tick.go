// Package scheduler implements the Scheduler's periodic tick (spec §4.7,
// component C7): find due ScheduledPosts, promote each with a race-free
// conditional write, and hand the winner off to Fan-out Intake.
package scheduler

import (
	"context"
	"time"

	"github.com/techappsUT/social-publisher/internal/application/intake"
	"github.com/techappsUT/social-publisher/internal/domain/scheduled"
	"github.com/techappsUT/social-publisher/internal/infrastructure/cache"
	"github.com/techappsUT/social-publisher/internal/logging"
)

// tickLockTTL bounds one tick's dedup lock — shorter than the cron
// interval so a slow or crashed tick never permanently blocks the next one.
const tickLockTTL = 50 * time.Second

const tickLockKey = "scheduler:tick"

// Scheduler promotes due ScheduledPosts into the Fan-out Intake.
type Scheduler struct {
	posts  scheduled.Repository
	intake *intake.Intake
	locks  *cache.Service
	log    logging.Logger
	now    func() time.Time
}

// New builds a Scheduler. locks deduplicates overlapping tick firings
// across scheduler replicas (spec's domain stack names redis as the tick
// dedup mechanism); a tick that loses the lock race returns immediately.
func New(posts scheduled.Repository, in *intake.Intake, locks *cache.Service, log logging.Logger) *Scheduler {
	return &Scheduler{posts: posts, intake: in, locks: locks, log: log, now: time.Now}
}

// Tick is invoked once per scheduler cron firing (spec §4.7's ~1-minute
// cadence). It finds every row due by now, and for each one still
// scheduled, promotes then submits it. Rows another concurrent tick
// already won are skipped silently — spec §8 property 5.
func (s *Scheduler) Tick(ctx context.Context) error {
	acquired, err := s.locks.Lock(ctx, tickLockKey, tickLockTTL)
	if err != nil {
		s.log.Error("scheduler: tick lock failed", "error", err.Error())
		return err
	}
	if !acquired {
		// another scheduler replica is already mid-tick.
		return nil
	}
	defer s.locks.Unlock(ctx, tickLockKey)

	now := s.now().UTC()

	due, err := s.posts.DueBefore(ctx, now)
	if err != nil {
		s.log.Error("scheduler: list due posts failed", "error", err.Error())
		return err
	}

	for _, post := range due {
		s.processOne(ctx, post)
	}
	return nil
}

func (s *Scheduler) processOne(ctx context.Context, post *scheduled.Post) {
	ok, err := s.posts.TryPromote(ctx, post.UserID, post.ScheduledPostID)
	if err != nil {
		s.log.Error("scheduler: promote failed", "scheduled_post_id", post.ScheduledPostID, "error", err.Error())
		return
	}
	if !ok {
		// another tick (or another scheduler replica) already promoted this row.
		return
	}

	result, err := s.intake.Submit(ctx, post.UserID, post.VideoURL, post.Caption, post.Destinations, post.PlatformSettings)
	if err != nil {
		s.log.Error("scheduler: submit failed", "scheduled_post_id", post.ScheduledPostID, "error", err.Error())
		if markErr := s.posts.MarkFailed(ctx, post.UserID, post.ScheduledPostID, err.Error()); markErr != nil {
			s.log.Error("scheduler: mark failed failed", "scheduled_post_id", post.ScheduledPostID, "error", markErr.Error())
		}
		return
	}

	if err := s.posts.MarkPosted(ctx, post.UserID, post.ScheduledPostID, result.RequestID, s.now().UTC()); err != nil {
		s.log.Error("scheduler: mark posted failed", "scheduled_post_id", post.ScheduledPostID, "error", err.Error())
	}
}
