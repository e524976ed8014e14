// Package persistence is the gorm-backed implementation of the Account
// Registry (C1), Request Store (C4), and ScheduledPost store (C7)
// repository contracts.
//
// The teacher's own persistence layer (social_repository.go) depended on
// a sqlc-generated internal/db package that was never actually checked
// in — sqlc's `generate` step cannot be run in this environment, so this
// layer is built on gorm.io/gorm instead, a dependency the teacher
// already carries in its go.mod for exactly this purpose.
package persistence

import (
	"encoding/json"
	"time"

	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/domain/scheduled"
	"github.com/techappsUT/social-publisher/internal/domain/upload"
)

// socialAccountRow is the gorm model backing TablesConfig.SocialAccounts.
type socialAccountRow struct {
	UserID         string `gorm:"primaryKey;column:user_id"`
	AccountID      string `gorm:"primaryKey;column:account_id"`
	Platform       string `gorm:"column:platform;index"`
	PlatformUserID string `gorm:"column:platform_user_id"`
	AccountType    string `gorm:"column:account_type"`
	AccessToken    string `gorm:"column:access_token"`
	RefreshToken   string `gorm:"column:refresh_token"`
	TokenSecret    string `gorm:"column:token_secret"`
	TokenExpiresAt *time.Time `gorm:"column:token_expires_at"`
	MetadataJSON   string `gorm:"column:metadata"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (socialAccountRow) TableName() string { return "social_accounts" }

func toAccountRow(acc *account.Account) (*socialAccountRow, error) {
	meta, err := json.Marshal(acc.Metadata)
	if err != nil {
		return nil, err
	}
	return &socialAccountRow{
		UserID:         acc.UserID,
		AccountID:      acc.ID(),
		Platform:       string(acc.Platform),
		PlatformUserID: acc.PlatformUserID,
		AccountType:    string(acc.AccountType),
		AccessToken:    acc.AccessToken,
		RefreshToken:   acc.RefreshToken,
		TokenSecret:    acc.TokenSecret,
		TokenExpiresAt: acc.TokenExpiresAt,
		MetadataJSON:   string(meta),
		CreatedAt:      acc.CreatedAt,
		UpdatedAt:      acc.UpdatedAt,
	}, nil
}

func (r *socialAccountRow) toDomain() (*account.Account, error) {
	var meta account.Metadata
	if r.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(r.MetadataJSON), &meta); err != nil {
			return nil, err
		}
	}
	return &account.Account{
		UserID:         r.UserID,
		Platform:       account.Platform(r.Platform),
		PlatformUserID: r.PlatformUserID,
		AccountType:    account.Type(r.AccountType),
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		TokenSecret:    r.TokenSecret,
		TokenExpiresAt: r.TokenExpiresAt,
		Metadata:       meta,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

// uploadRequestRow is the gorm model backing TablesConfig.UploadRequests.
// Destinations is stored as a JSON column; update_destination mutates it
// under a row-scoped transaction so sibling children are never touched.
type uploadRequestRow struct {
	RequestID       string `gorm:"primaryKey;column:request_id"`
	UserID          string `gorm:"column:user_id;index:idx_upload_user_created"`
	VideoURL        string `gorm:"column:video_url"`
	Caption         string `gorm:"column:caption"`
	Status          string `gorm:"column:status"`
	DestinationsJSON string `gorm:"column:destinations"`
	CreatedAt       time.Time `gorm:"column:created_at;index:idx_upload_user_created"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
	TTL             time.Time `gorm:"column:ttl"`
}

func (uploadRequestRow) TableName() string { return "upload_requests" }

func toUploadRow(req *upload.Request) (*uploadRequestRow, error) {
	destJSON, err := json.Marshal(req.Destinations)
	if err != nil {
		return nil, err
	}
	return &uploadRequestRow{
		RequestID:        req.RequestID,
		UserID:           req.UserID,
		VideoURL:         req.VideoURL,
		Caption:          req.Caption,
		Status:           string(req.Status),
		DestinationsJSON: string(destJSON),
		CreatedAt:        req.CreatedAt,
		UpdatedAt:        req.UpdatedAt,
		TTL:              req.TTL,
	}, nil
}

func (r *uploadRequestRow) toDomain() (*upload.Request, error) {
	destinations := map[string]*upload.DestinationRecord{}
	if r.DestinationsJSON != "" {
		if err := json.Unmarshal([]byte(r.DestinationsJSON), &destinations); err != nil {
			return nil, err
		}
	}
	return &upload.Request{
		RequestID:    r.RequestID,
		UserID:       r.UserID,
		VideoURL:     r.VideoURL,
		Caption:      r.Caption,
		Status:       upload.Status(r.Status),
		Destinations: destinations,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		TTL:          r.TTL,
	}, nil
}

// scheduledPostRow is the gorm model backing TablesConfig.ScheduledPosts.
type scheduledPostRow struct {
	UserID               string `gorm:"primaryKey;column:user_id"`
	ScheduledPostID      string `gorm:"primaryKey;column:scheduled_post_id"`
	VideoURL             string `gorm:"column:video_url"`
	Caption              string `gorm:"column:caption"`
	DestinationsJSON     string `gorm:"column:destinations"`
	PlatformSettingsJSON string `gorm:"column:platform_settings"`
	ScheduledTime        time.Time `gorm:"column:scheduled_time;index:idx_scheduled_due"`
	Status               string `gorm:"column:status;index:idx_scheduled_due"`
	RequestID            string `gorm:"column:request_id"`
	Error                string `gorm:"column:error"`
	PostedAt             *time.Time `gorm:"column:posted_at"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
	TTL                  time.Time `gorm:"column:ttl"`
}

func (scheduledPostRow) TableName() string { return "scheduled_posts" }

func toScheduledRow(p *scheduled.Post) (*scheduledPostRow, error) {
	destJSON, err := json.Marshal(p.Destinations)
	if err != nil {
		return nil, err
	}
	settingsJSON, err := json.Marshal(p.PlatformSettings)
	if err != nil {
		return nil, err
	}
	return &scheduledPostRow{
		UserID:               p.UserID,
		ScheduledPostID:      p.ScheduledPostID,
		VideoURL:             p.VideoURL,
		Caption:              p.Caption,
		DestinationsJSON:     string(destJSON),
		PlatformSettingsJSON: string(settingsJSON),
		ScheduledTime:        p.ScheduledTime,
		Status:               string(p.Status),
		RequestID:            p.RequestID,
		Error:                p.Error,
		PostedAt:             p.PostedAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		TTL:                  p.TTL,
	}, nil
}

func (r *scheduledPostRow) toDomain() (*scheduled.Post, error) {
	var destinations []string
	if r.DestinationsJSON != "" {
		if err := json.Unmarshal([]byte(r.DestinationsJSON), &destinations); err != nil {
			return nil, err
		}
	}
	var settings map[string]any
	if r.PlatformSettingsJSON != "" {
		if err := json.Unmarshal([]byte(r.PlatformSettingsJSON), &settings); err != nil {
			return nil, err
		}
	}
	return &scheduled.Post{
		UserID:           r.UserID,
		ScheduledPostID:  r.ScheduledPostID,
		VideoURL:         r.VideoURL,
		Caption:          r.Caption,
		Destinations:     destinations,
		PlatformSettings: settings,
		ScheduledTime:    r.ScheduledTime,
		Status:           scheduled.Status(r.Status),
		RequestID:        r.RequestID,
		Error:            r.Error,
		PostedAt:         r.PostedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		TTL:              r.TTL,
	}, nil
}
