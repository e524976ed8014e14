package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/techappsUT/social-publisher/internal/domain/scheduled"
)

// ScheduledRepository implements scheduled.Repository (spec §4.7, C7)
// over gorm/postgres.
type ScheduledRepository struct {
	db *gorm.DB
}

func NewScheduledRepository(db *gorm.DB) *ScheduledRepository {
	return &ScheduledRepository{db: db}
}

func (r *ScheduledRepository) Create(ctx context.Context, p *scheduled.Post) error {
	row, err := toScheduledRow(p)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *ScheduledRepository) Get(ctx context.Context, userID, scheduledPostID string) (*scheduled.Post, error) {
	var row scheduledPostRow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND scheduled_post_id = ?", userID, scheduledPostID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scheduled.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *ScheduledRepository) DueBefore(ctx context.Context, now time.Time) ([]*scheduled.Post, error) {
	var rows []scheduledPostRow
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_time <= ?", string(scheduled.StatusScheduled), now).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	posts := make([]*scheduled.Post, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// TryPromote performs the conditional single-shot scheduled->processing
// transition (spec §4.7, §8 property 5). The UPDATE's WHERE clause
// includes status='scheduled', so only the tick that wins the race
// affects a row; a concurrent loser sees RowsAffected==0 and returns
// ok=false with no error.
func (r *ScheduledRepository) TryPromote(ctx context.Context, userID, scheduledPostID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&scheduledPostRow{}).
		Where("user_id = ? AND scheduled_post_id = ? AND status = ?", userID, scheduledPostID, string(scheduled.StatusScheduled)).
		Updates(map[string]any{
			"status":     string(scheduled.StatusProcessing),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ScheduledRepository) MarkPosted(ctx context.Context, userID, scheduledPostID, requestID string, postedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&scheduledPostRow{}).
		Where("user_id = ? AND scheduled_post_id = ?", userID, scheduledPostID).
		Updates(map[string]any{
			"status":     string(scheduled.StatusPosted),
			"request_id": requestID,
			"posted_at":  postedAt,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return scheduled.ErrNotFound
	}
	return nil
}

func (r *ScheduledRepository) MarkFailed(ctx context.Context, userID, scheduledPostID, errMsg string) error {
	result := r.db.WithContext(ctx).Model(&scheduledPostRow{}).
		Where("user_id = ? AND scheduled_post_id = ?", userID, scheduledPostID).
		Updates(map[string]any{
			"status":     string(scheduled.StatusFailed),
			"error":      errMsg,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return scheduled.ErrNotFound
	}
	return nil
}
