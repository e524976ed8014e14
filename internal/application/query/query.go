// Package query implements the read-side operations over the Request
// Store (spec §4.4, component C8): listing summaries, fetching a single
// request's detail, reading one destination's logs, and resubmitting a
// failed destination.
package query

import (
	"context"
	"time"

	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/domain/upload"
	"github.com/techappsUT/social-publisher/internal/infrastructure/queue"
)

// Query answers read (and resubmit) requests scoped to a user.
type Query struct {
	requests upload.Repository
	queue    *queue.Queue
	now      func() time.Time
}

func New(requests upload.Repository, q *queue.Queue) *Query {
	return &Query{requests: requests, queue: q, now: time.Now}
}

// Summary is the shape List returns: parent-level status only, no logs.
type Summary struct {
	RequestID    string
	Status       upload.Status
	VideoURL     string
	Caption      string
	Destinations map[string]upload.Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// List returns a page of the caller's own upload requests, newest first.
func (q *Query) List(ctx context.Context, userID string, limit int, cursor string) ([]Summary, string, error) {
	page, err := q.requests.ListByUser(ctx, userID, limit, cursor)
	if err != nil {
		return nil, "", apperr.Internal("list upload requests", err)
	}

	summaries := make([]Summary, 0, len(page.Requests))
	for _, req := range page.Requests {
		statuses := make(map[string]upload.Status, len(req.Destinations))
		for dest, rec := range req.Destinations {
			statuses[dest] = rec.Status
		}
		summaries = append(summaries, Summary{
			RequestID:    req.RequestID,
			Status:       req.Status,
			VideoURL:     req.VideoURL,
			Caption:      req.Caption,
			Destinations: statuses,
			CreatedAt:    req.CreatedAt,
			UpdatedAt:    req.UpdatedAt,
		})
	}
	return summaries, page.Cursor, nil
}

// Detail returns the full request tree, including each destination's log
// buffer, authorized by ownership.
func (q *Query) Detail(ctx context.Context, userID, requestID string) (*upload.Request, error) {
	req, err := q.fetchOwned(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Logs returns the log buffer for one destination of a request, or for
// every destination if destination is nil.
func (q *Query) Logs(ctx context.Context, userID, requestID string, destination *string) (map[string][]upload.LogEntry, error) {
	req, err := q.fetchOwned(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}

	if destination != nil {
		rec, ok := req.Destinations[*destination]
		if !ok {
			return nil, apperr.NotFound("destination not found", upload.ErrDestinationNotFound)
		}
		return map[string][]upload.LogEntry{*destination: rec.Logs}, nil
	}

	logs := make(map[string][]upload.LogEntry, len(req.Destinations))
	for dest, rec := range req.Destinations {
		logs[dest] = rec.Logs
	}
	return logs, nil
}

// Resubmit resets one failed destination back to queued and re-enqueues a
// fresh job for it — the Request Store reset and the queue push are two
// independent steps, the same way Intake's original fan-out is.
func (q *Query) Resubmit(ctx context.Context, userID, requestID, destination string) error {
	req, err := q.fetchOwned(ctx, userID, requestID)
	if err != nil {
		return err
	}

	entry := upload.LogEntry{
		Timestamp: q.now().UTC(),
		Level:     upload.LogInfo,
		Message:   "Task resubmitted by user",
	}
	resetErr := q.requests.Resubmit(ctx, requestID, destination, entry)
	switch resetErr {
	case nil:
	case upload.ErrDestinationNotFound:
		return apperr.NotFound("destination not found", resetErr)
	case upload.ErrNotFailed:
		return apperr.Input("destination is not in a failed state", resetErr)
	case upload.ErrNotFound:
		return apperr.NotFound("request not found", resetErr)
	default:
		return apperr.Internal("resubmit destination", resetErr)
	}

	msg := queue.Message{
		RequestID:   requestID,
		UserID:      userID,
		Destination: destination,
		VideoURL:    req.VideoURL,
		Caption:     req.Caption,
	}
	if _, err := q.queue.Enqueue(ctx, msg); err != nil {
		return apperr.Internal("enqueue resubmitted destination", err)
	}
	return nil
}

func (q *Query) fetchOwned(ctx context.Context, userID, requestID string) (*upload.Request, error) {
	req, err := q.requests.Get(ctx, requestID)
	if err != nil {
		if err == upload.ErrNotFound {
			return nil, apperr.NotFound("request not found", err)
		}
		return nil, apperr.Internal("get upload request", err)
	}
	if req.UserID != userID {
		return nil, apperr.Forbidden("request does not belong to caller")
	}
	return req, nil
}
