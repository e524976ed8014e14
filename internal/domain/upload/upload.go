// Package upload models the upload-request tree: one parent Request row
// per publish submission, one DestinationRecord child per platform
// destination, each with its own status and append-only log (spec §3, §4.4,
// §4.6).
package upload

import "time"

// Status is the lifecycle state shared by a parent Request and each of its
// DestinationRecords.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// LogLevel mirrors the levels a structured logger emits.
type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// LogEntry is one append-only line in a DestinationRecord's log buffer.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// Result carries platform-specific terminal identifiers returned by an
// adapter on success (post_id, tweet_id, video_id, permalink, ...).
type Result map[string]string

// DestinationRecord is the per-destination child of a Request.
type DestinationRecord struct {
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Logs      []LogEntry `json:"logs"`
	Error     string     `json:"error,omitempty"`
	Result    Result     `json:"result,omitempty"`
}

// AppendLog appends a log line. The logs slice is never retracted or
// cleared — spec §4.4 invariant and §8 property 2.
func (d *DestinationRecord) AppendLog(level LogLevel, message string, now time.Time) {
	d.Logs = append(d.Logs, LogEntry{Timestamp: now, Level: level, Message: message})
}

// Request is the parent UploadRequest row (spec §3).
type Request struct {
	RequestID    string
	UserID       string
	VideoURL     string
	Caption      string
	Status       Status
	Destinations map[string]*DestinationRecord // key: "<platform>:<entity_id>"
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TTL          time.Time
}

// DeriveStatus is the single authoritative parent-status rule, spec §4.6:
//
//	any child processing  -> processing
//	else any child failed -> failed
//	else all completed    -> completed
//	else                  -> queued
//
// A pure function of the current children; safe to call after every child
// mutation with no locking — idempotent under concurrent recomputation.
func DeriveStatus(children map[string]*DestinationRecord) Status {
	anyProcessing := false
	anyFailed := false
	allCompleted := len(children) > 0

	for _, d := range children {
		switch d.Status {
		case StatusProcessing:
			anyProcessing = true
		case StatusFailed:
			anyFailed = true
			allCompleted = false
		case StatusCompleted:
			// no-op, already assumed completed unless proven otherwise below
		default:
			allCompleted = false
		}
	}

	switch {
	case anyProcessing:
		return StatusProcessing
	case anyFailed:
		return StatusFailed
	case allCompleted:
		return StatusCompleted
	default:
		return StatusQueued
	}
}
