// Package scheduled models a ScheduledPost: a deferred publish request
// that the Scheduler (spec §4.7) promotes into the Fan-out Intake once its
// scheduled_time has passed.
package scheduled

import "time"

// Status is the ScheduledPost lifecycle. A row transitions
// scheduled -> processing exactly once, guarded by a conditional write.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusPosted    Status = "posted"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Post is a ScheduledPost row.
type Post struct {
	UserID           string
	ScheduledPostID  string
	VideoURL         string
	Caption          string
	Destinations     []string
	PlatformSettings map[string]any
	ScheduledTime    time.Time
	Status           Status
	RequestID        string
	Error            string
	PostedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	TTL              time.Time
}
