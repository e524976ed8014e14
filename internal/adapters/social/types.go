// Package social defines the common Platform Adapter contract (spec §4.3):
// publish(account, video_url, caption, platform_settings?, log) -> result.
//
// Adapted from the teacher's adapters/social/types.go OAuth+publish Adapter
// interface, narrowed to this spec's publish-only surface — OAuth
// linkage is an out-of-scope collaborator (spec §1).
package social

import (
	"context"
	"time"
)

// Credentials is the subset of an Account's credential fields an adapter
// needs to authenticate its calls. Populated by the Credential Manager
// after ensure_fresh, never read from storage directly by an adapter.
type Credentials struct {
	AccountID      string // "<platform>:<platform_entity_id>"
	PlatformUserID string
	AccessToken    string
	RefreshToken   string
	TokenSecret    string // OAuth 1.0a secondary secret (Twitter only)
}

// Content is what the Worker asks an adapter to publish.
type Content struct {
	VideoURL         string
	Caption          string
	PlatformSettings map[string]any
}

// Logger is the structured, per-destination logger every adapter step
// writes through (spec §4.3: "every HTTP step emits an entry").
type Logger interface {
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// Result is what a successful Publish returns. Status is normally
// "published"; Instagram's processing-budget exhaustion (spec §4.3.1
// step 5) is the one case where Status is "processing" on an otherwise
// successful, non-error return.
type Result struct {
	Status      string // "published" | "processing"
	PlatformID  string // post_id / tweet_id / video_id / container_id
	URL         string
	PublishedAt time.Time
	Extra       map[string]string
}

// Adapter is the contract every one of the six platform clients
// implements. Publish is synchronous within a single worker invocation;
// all suspension (chunk uploads, processing polls) happens inside this
// call, each bounded as spec §5 describes.
type Adapter interface {
	Publish(ctx context.Context, creds Credentials, content Content, log Logger) (*Result, error)
}
