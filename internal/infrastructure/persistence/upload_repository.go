package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/techappsUT/social-publisher/internal/domain/upload"
)

// UploadRepository implements upload.Repository (spec §4.4, C4) over
// gorm/postgres. Destinations live as a JSON column; UpdateDestination
// mutates a single key of it inside a row-scoped SELECT ... FOR UPDATE
// transaction so sibling children are never disturbed (spec §8 property 9).
type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) CreateParent(ctx context.Context, req *upload.Request) error {
	row, err := toUploadRow(req)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *UploadRepository) DeleteParent(ctx context.Context, requestID string) error {
	return r.db.WithContext(ctx).Where("request_id = ?", requestID).Delete(&uploadRequestRow{}).Error
}

// UpdateDestination atomically mutates one destination's slot. The read
// and write happen inside a single FOR UPDATE transaction so two workers
// updating different destinations of the same request never clobber one
// another's writes.
func (r *UploadRepository) UpdateDestination(ctx context.Context, requestID, destination string, update upload.DestinationUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row uploadRequestRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return upload.ErrNotFound
			}
			return err
		}

		destinations := map[string]*upload.DestinationRecord{}
		if row.DestinationsJSON != "" {
			if err := json.Unmarshal([]byte(row.DestinationsJSON), &destinations); err != nil {
				return err
			}
		}

		child, ok := destinations[destination]
		if !ok {
			return upload.ErrDestinationNotFound
		}

		now := time.Now().UTC()
		child.Status = update.Status
		child.Logs = append(child.Logs, update.Logs...)
		child.Error = update.Error
		if update.Result != nil {
			child.Result = update.Result
		}
		child.UpdatedAt = now

		raw, err := json.Marshal(destinations)
		if err != nil {
			return err
		}

		return tx.Model(&uploadRequestRow{}).
			Where("request_id = ?", requestID).
			Updates(map[string]any{
				"destinations": string(raw),
				"updated_at":   now,
			}).Error
	})
}

// RecomputeParent re-derives and writes the parent status from its
// current children — spec §4.6's pure, idempotent recompute. Safe to call
// concurrently with no additional locking since DeriveStatus is a pure
// function of whatever snapshot this transaction reads.
func (r *UploadRepository) RecomputeParent(ctx context.Context, requestID string) (upload.Status, error) {
	var status upload.Status
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row uploadRequestRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return upload.ErrNotFound
			}
			return err
		}

		destinations := map[string]*upload.DestinationRecord{}
		if row.DestinationsJSON != "" {
			if err := json.Unmarshal([]byte(row.DestinationsJSON), &destinations); err != nil {
				return err
			}
		}

		status = upload.DeriveStatus(destinations)
		return tx.Model(&uploadRequestRow{}).
			Where("request_id = ?", requestID).
			Updates(map[string]any{
				"status":     string(status),
				"updated_at": time.Now().UTC(),
			}).Error
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *UploadRepository) Get(ctx context.Context, requestID string) (*upload.Request, error) {
	var row uploadRequestRow
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, upload.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// ListByUser pages through a user's requests newest-first using
// created_at as an opaque RFC3339Nano cursor (spec §4.4's secondary
// index on (user_id, created_at desc)).
func (r *UploadRepository) ListByUser(ctx context.Context, userID string, limit int, cursor string) (upload.Page, error) {
	if limit <= 0 {
		limit = 20
	}

	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if cursor != "" {
		before, err := time.Parse(time.RFC3339Nano, cursor)
		if err == nil {
			q = q.Where("created_at < ?", before)
		}
	}

	var rows []uploadRequestRow
	if err := q.Order("created_at desc").Limit(limit + 1).Find(&rows).Error; err != nil {
		return upload.Page{}, err
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	requests := make([]*upload.Request, 0, len(rows))
	for i := range rows {
		req, err := rows[i].toDomain()
		if err != nil {
			return upload.Page{}, err
		}
		requests = append(requests, req)
	}

	nextCursor := ""
	if hasMore && len(rows) > 0 {
		nextCursor = rows[len(rows)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return upload.Page{Requests: requests, Cursor: nextCursor}, nil
}

// Resubmit resets a terminal-failed destination back to queued, clearing
// its error and appending entry — the one exception to the monotonic
// queued -> processing -> terminal status order (spec §4.4).
func (r *UploadRepository) Resubmit(ctx context.Context, requestID, destination string, entry upload.LogEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row uploadRequestRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return upload.ErrNotFound
			}
			return err
		}

		destinations := map[string]*upload.DestinationRecord{}
		if row.DestinationsJSON != "" {
			if err := json.Unmarshal([]byte(row.DestinationsJSON), &destinations); err != nil {
				return err
			}
		}

		child, ok := destinations[destination]
		if !ok {
			return upload.ErrDestinationNotFound
		}
		if child.Status != upload.StatusFailed {
			return upload.ErrNotFailed
		}

		child.Status = upload.StatusQueued
		child.Error = ""
		child.Logs = append(child.Logs, entry)
		child.UpdatedAt = time.Now().UTC()

		raw, err := json.Marshal(destinations)
		if err != nil {
			return err
		}

		return tx.Model(&uploadRequestRow{}).
			Where("request_id = ?", requestID).
			Updates(map[string]any{
				"destinations": string(raw),
				"status":       string(upload.DeriveStatus(destinations)),
				"updated_at":   time.Now().UTC(),
			}).Error
	})
}
