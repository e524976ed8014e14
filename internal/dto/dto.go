// Package dto defines the request and response bodies for the seven
// routes spec §6 names under the /api/social prefix, plus the resubmit
// route. These are the only
// types that cross the HTTP boundary — handlers translate to and from
// the domain types in internal/domain/*.
package dto

import "time"

// UploadURLRequest is POST /upload-url's body.
type UploadURLRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

// UploadURLResponse is POST /upload-url's body.
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	S3Key     string `json:"s3_key"`
	Bucket    string `json:"bucket"`
}

// PostRequest is POST /post's body — a destination is "<platform>:<entity_id>".
type PostRequest struct {
	S3Key            string         `json:"s3_key" validate:"required"`
	Caption          string         `json:"caption"`
	AccountIDs       []string       `json:"account_ids" validate:"required,min=1"`
	PlatformSettings map[string]any `json:"platform_settings,omitempty"`
	ScheduledTime    *time.Time     `json:"scheduled_time,omitempty"`
}

// PostResponse is POST /post's body.
type PostResponse struct {
	RequestID    string    `json:"request_id"`
	Status       string    `json:"status"`
	Destinations []string  `json:"destinations"`
	VideoURL     string    `json:"video_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// UploadSummary is one entry of GET /uploads' requests array.
type UploadSummary struct {
	RequestID    string            `json:"request_id"`
	Status       string            `json:"status"`
	VideoURL     string            `json:"video_url"`
	Caption      string            `json:"caption"`
	Destinations map[string]string `json:"destinations"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// UploadListResponse is GET /uploads' body.
type UploadListResponse struct {
	Requests       []UploadSummary `json:"requests"`
	LastKey        string          `json:"last_evaluated_key,omitempty"`
}

// DestinationDetail is one entry of GET /uploads/{id}'s destinations map.
type DestinationDetail struct {
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Logs      []LogLine         `json:"logs"`
	Error     string            `json:"error,omitempty"`
	Result    map[string]string `json:"result,omitempty"`
}

// LogLine is one append-only destination log entry.
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// UploadDetailResponse is GET /uploads/{id}'s body.
type UploadDetailResponse struct {
	RequestID    string                       `json:"request_id"`
	UserID       string                       `json:"user_id"`
	Status       string                       `json:"status"`
	VideoURL     string                       `json:"video_url"`
	Caption      string                       `json:"caption"`
	Destinations map[string]DestinationDetail `json:"destinations"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

// LogsResponse is GET /uploads/{id}/logs' body, keyed by destination.
type LogsResponse struct {
	Logs map[string][]LogLine `json:"logs"`
}

// AccountResponse is one entry of GET /accounts' body — never carries
// credential fields.
type AccountResponse struct {
	AccountID      string    `json:"account_id"`
	Platform       string    `json:"platform"`
	PlatformUserID string    `json:"platform_user_id"`
	AccountType    string    `json:"account_type"`
	Username       string    `json:"username,omitempty"`
	PageName       string    `json:"page_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccountListResponse is GET /accounts' body.
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// ResubmitRequest is POST /uploads/{id}/resubmit's body.
type ResubmitRequest struct {
	Destination string `json:"destination" validate:"required"`
}
