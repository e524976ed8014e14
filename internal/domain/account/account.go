// Package account models a connected social media account: the
// (user_id, account_id) keyed row the Credential Manager and Platform
// Adapters read to authenticate outbound publishing calls.
package account

import (
	"fmt"
	"time"
)

// Platform is the closed set of publishing destinations this system supports.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformYouTube   Platform = "youtube"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
)

// Valid reports whether p is one of the six supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformTwitter, PlatformYouTube, PlatformLinkedIn, PlatformTikTok:
		return true
	}
	return false
}

// Type is the kind of entity the account represents on its platform.
type Type string

const (
	TypeUser         Type = "user"
	TypePage         Type = "page"
	TypeBusiness     Type = "business"
	TypeOrganization Type = "organization"
)

// Metadata is free-form display information, never a credential.
type Metadata struct {
	Username string
	PageName string
	Extra    map[string]string
}

// Account is a connected social media account belonging to a user.
//
// AccountID is always derivable from (Platform, PlatformUserID); see ID.
type Account struct {
	UserID         string
	Platform       Platform
	PlatformUserID string
	AccountType    Type
	AccessToken    string
	RefreshToken   string
	TokenSecret    string // OAuth 1.0a secondary secret (Twitter only)
	TokenExpiresAt *time.Time
	Metadata       Metadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ID derives the globally unique account_id "<platform>:<platform_entity_id>"
// from the platform and platform-native identifier.
func ID(platform Platform, platformUserID string) string {
	return fmt.Sprintf("%s:%s", platform, platformUserID)
}

// ID returns this account's derived account_id.
func (a *Account) ID() string {
	return ID(a.Platform, a.PlatformUserID)
}

// WithoutSecrets returns a copy of a with credential fields stripped.
// Used by every list-shaped read path — §4.1's list() invariant.
func (a *Account) WithoutSecrets() *Account {
	clone := *a
	clone.AccessToken = ""
	clone.RefreshToken = ""
	clone.TokenSecret = ""
	return &clone
}

// Expired reports whether the access token has a known expiry that has
// already passed. Accounts with a nil TokenExpiresAt never expire
// (facebook/instagram long-lived exchange tokens before rotation, twitter
// OAuth 1.0a tokens).
func (a *Account) Expired(now time.Time) bool {
	return a.TokenExpiresAt != nil && !a.TokenExpiresAt.After(now)
}
