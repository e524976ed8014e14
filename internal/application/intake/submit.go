// Package intake implements the Fan-out Intake (spec §4.5, component C5):
// validate destinations, create the parent row with all children queued,
// then enqueue one job per destination — all or nothing.
package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/domain/upload"
	"github.com/techappsUT/social-publisher/internal/infrastructure/queue"
	"github.com/techappsUT/social-publisher/internal/logging"
)

// Intake submits fan-out upload requests.
type Intake struct {
	accounts account.Repository
	requests upload.Repository
	queue    *queue.Queue
	log      logging.Logger
	now      func() time.Time
}

func New(accounts account.Repository, requests upload.Repository, q *queue.Queue, log logging.Logger) *Intake {
	return &Intake{accounts: accounts, requests: requests, queue: q, log: log, now: time.Now}
}

// Result is what Submit returns (spec §4.5's response shape).
type Result struct {
	RequestID    string
	Status       upload.Status
	Destinations []string
	CreatedAt    time.Time
}

// Submit validates and accepts a fan-out publish request.
func (i *Intake) Submit(ctx context.Context, userID, videoURL, caption string, destinations []string, platformSettings map[string]any) (*Result, error) {
	if videoURL == "" {
		return nil, apperr.Input("video_url is required", nil)
	}
	if len(destinations) == 0 {
		return nil, apperr.Input("at least one destination is required", nil)
	}

	valid, err := i.resolveDestinations(ctx, userID, destinations)
	if err != nil {
		return nil, err
	}
	if len(valid) == 0 {
		return nil, apperr.Input("no valid destinations: none resolve to a connected account", nil)
	}

	now := i.now().UTC()
	requestID := uuid.NewString()

	children := make(map[string]*upload.DestinationRecord, len(valid))
	for _, dest := range valid {
		children[dest] = &upload.DestinationRecord{
			Status:    upload.StatusQueued,
			CreatedAt: now,
			UpdatedAt: now,
			Logs:      []upload.LogEntry{},
		}
	}

	req := &upload.Request{
		RequestID:    requestID,
		UserID:       userID,
		VideoURL:     videoURL,
		Caption:      caption,
		Status:       upload.StatusQueued,
		Destinations: children,
		CreatedAt:    now,
		UpdatedAt:    now,
		TTL:          now.Add(90 * 24 * time.Hour),
	}

	if err := i.requests.CreateParent(ctx, req); err != nil {
		return nil, apperr.Internal("create parent upload request", err)
	}

	if err := i.enqueueAll(ctx, requestID, userID, videoURL, caption, valid, platformSettings); err != nil {
		if delErr := i.requests.DeleteParent(ctx, requestID); delErr != nil {
			i.log.Error("intake: rollback delete failed after enqueue failure", "request_id", requestID, "error", delErr.Error())
		}
		return nil, apperr.Internal("enqueue fan-out jobs", err)
	}

	return &Result{
		RequestID:    requestID,
		Status:       upload.StatusQueued,
		Destinations: valid,
		CreatedAt:    now,
	}, nil
}

// resolveDestinations parses each "<platform>:<entity_id>" destination
// and drops any that don't correspond to an existing Account for userID
// (spec §4.5 precondition).
func (i *Intake) resolveDestinations(ctx context.Context, userID string, destinations []string) ([]string, error) {
	valid := make([]string, 0, len(destinations))
	for _, dest := range destinations {
		parts := strings.SplitN(dest, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			i.log.Warn("intake: dropping malformed destination", "destination", dest)
			continue
		}
		if !account.Platform(parts[0]).Valid() {
			i.log.Warn("intake: dropping destination with unsupported platform", "destination", dest)
			continue
		}

		if _, err := i.accounts.Get(ctx, userID, dest); err != nil {
			i.log.Warn("intake: dropping destination with no connected account", "destination", dest)
			continue
		}
		valid = append(valid, dest)
	}
	return valid, nil
}

// enqueueAll enqueues one job per destination. If any single enqueue
// fails, it does not attempt to un-enqueue the jobs already sent —
// Submit's caller compensates by deleting the parent row, and the
// already-enqueued jobs will process against a parent that no longer
// exists: the Worker's first write returns upload.ErrNotFound, which it
// treats as a no-op (the parent is gone).
func (i *Intake) enqueueAll(ctx context.Context, requestID, userID, videoURL, caption string, destinations []string, platformSettings map[string]any) error {
	for _, dest := range destinations {
		msg := queue.Message{
			RequestID:        requestID,
			UserID:           userID,
			Destination:      dest,
			VideoURL:         videoURL,
			Caption:          caption,
			PlatformSettings: platformSettings,
		}
		if _, err := i.queue.Enqueue(ctx, msg); err != nil {
			return fmt.Errorf("enqueue %s: %w", dest, err)
		}
	}
	return nil
}
