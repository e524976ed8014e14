package upload

import "context"

// DestinationUpdate is a partial, single-child mutation — it must never
// touch sibling destinations (spec §4.4, §8 property 9).
type DestinationUpdate struct {
	Status Status
	Logs   []LogEntry
	Error  string
	Result Result
}

// Page is one page of a cursor-paginated List call.
type Page struct {
	Requests []*Request
	Cursor   string // opaque; empty when there are no more pages
}

// Repository is the Request Store contract (spec §4.4, component C4).
type Repository interface {
	CreateParent(ctx context.Context, req *Request) error

	// DeleteParent removes a parent row outright. Used only as Intake's
	// compensating action when enqueueing one destination's job fails
	// partway through fan-out (spec §4.5: the whole submit must roll back).
	DeleteParent(ctx context.Context, requestID string) error
	UpdateDestination(ctx context.Context, requestID, destination string, update DestinationUpdate) error
	RecomputeParent(ctx context.Context, requestID string) (Status, error)
	Get(ctx context.Context, requestID string) (*Request, error)
	ListByUser(ctx context.Context, userID string, limit int, cursor string) (Page, error)

	// Resubmit resets a terminal-failed destination back to queued,
	// clearing its error and appending entry. It fails unless the
	// destination's current status is StatusFailed.
	Resubmit(ctx context.Context, requestID, destination string, entry LogEntry) error
}
