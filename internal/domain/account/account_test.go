package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	assert.Equal(t, "twitter:12345", ID(PlatformTwitter, "12345"))
}

func TestAccount_ID(t *testing.T) {
	acc := &Account{Platform: PlatformYouTube, PlatformUserID: "channel-1"}
	assert.Equal(t, "youtube:channel-1", acc.ID())
}

func TestAccount_WithoutSecrets(t *testing.T) {
	acc := &Account{
		UserID:       "user-1",
		Platform:     PlatformFacebook,
		AccessToken:  "secret-access",
		RefreshToken: "secret-refresh",
		TokenSecret:  "secret-oauth1",
		Metadata:     Metadata{Username: "jane"},
	}

	clone := acc.WithoutSecrets()

	assert.Empty(t, clone.AccessToken)
	assert.Empty(t, clone.RefreshToken)
	assert.Empty(t, clone.TokenSecret)
	assert.Equal(t, "jane", clone.Metadata.Username)

	// original is untouched
	assert.Equal(t, "secret-access", acc.AccessToken)
}

func TestAccount_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		acc  *Account
		want bool
	}{
		{"nil expiry never expires", &Account{TokenExpiresAt: nil}, false},
		{"future expiry is not expired", &Account{TokenExpiresAt: &future}, false},
		{"past expiry is expired", &Account{TokenExpiresAt: &past}, true},
		{"expiry exactly now is expired", &Account{TokenExpiresAt: &now}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.acc.Expired(now))
		})
	}
}

func TestPlatform_Valid(t *testing.T) {
	valid := []Platform{PlatformFacebook, PlatformInstagram, PlatformTwitter, PlatformYouTube, PlatformLinkedIn, PlatformTikTok}
	for _, p := range valid {
		assert.True(t, p.Valid(), "%s should be valid", p)
	}
	assert.False(t, Platform("snapchat").Valid())
	assert.False(t, Platform("").Valid())
}
