// Package credentials implements the Credential Manager (spec §4.2):
// ensure_fresh(account) -> access_token, applying one of six per-platform
// refresh policies and writing any rotated triple back through the
// Account Registry before returning.
package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/infrastructure/cache"
)

// refreshLockTTL bounds how long one worker may hold a given account's
// refresh lock — long enough for a real token exchange, short enough that
// a crashed holder never wedges other workers for more than this.
const refreshLockTTL = 15 * time.Second

// Refreshed is the triple a platform refresher may hand back. Fields left
// empty are not rewritten — youtube, for example, never rotates its
// refresh token.
type Refreshed struct {
	AccessToken  string
	RefreshToken string
	TokenSecret  string
	ExpiresAt    *time.Time
}

// Refresher performs one platform's token refresh call. now is injected
// so freshness-window math is deterministic in tests.
type Refresher interface {
	// Window reports whether acc's current token is still fresh as of now.
	Window(acc *account.Account, now time.Time) bool
	// Refresh exchanges the current token(s) for a new triple. Called
	// only when Window reports the token is not fresh.
	Refresh(ctx context.Context, acc *account.Account) (Refreshed, error)
}

// Manager implements ensure_fresh across all six platforms.
type Manager struct {
	repo       account.Repository
	refreshers map[account.Platform]Refresher
	locks      *cache.Service
	now        func() time.Time
}

// New builds a Manager wired with one Refresher per platform. locks guards
// against a refresh stampede: two workers racing to refresh the same
// account concurrently when a token expires under concurrent destinations.
func New(repo account.Repository, refreshers map[account.Platform]Refresher, locks *cache.Service) *Manager {
	return &Manager{repo: repo, refreshers: refreshers, locks: locks, now: time.Now}
}

// EnsureFresh returns a ready-to-use access token for acc, refreshing and
// persisting a new triple first if the platform's freshness window has
// elapsed. Refresh failures are wrapped as apperr.Credential per spec
// §4.2's failure mode, for the Worker to terminate the destination with.
func (m *Manager) EnsureFresh(ctx context.Context, acc *account.Account) (string, error) {
	refresher, ok := m.refreshers[acc.Platform]
	if !ok {
		return "", apperr.Credential(fmt.Sprintf("no refresher registered for platform %q", acc.Platform), nil)
	}

	now := m.now()
	if refresher.Window(acc, now) {
		return acc.AccessToken, nil
	}

	if acquired, lockErr := m.locks.Lock(ctx, "credential-refresh:"+acc.ID(), refreshLockTTL); lockErr == nil && !acquired {
		// Another worker is refreshing this account right now. Re-read its
		// row rather than racing a second token exchange against the
		// platform — most providers invalidate the prior token on refresh.
		current, getErr := m.repo.Get(ctx, acc.UserID, acc.ID())
		if getErr == nil && refresher.Window(current, now) {
			*acc = *current
			return current.AccessToken, nil
		}
	} else if lockErr == nil {
		defer m.locks.Unlock(ctx, "credential-refresh:"+acc.ID())
	}

	refreshed, err := refresher.Refresh(ctx, acc)
	if err != nil {
		return "", apperr.Credential(fmt.Sprintf("refresh failed for %s", acc.ID()), err)
	}

	accessToken := refreshed.AccessToken
	if accessToken == "" {
		accessToken = acc.AccessToken
	}
	refreshToken := refreshed.RefreshToken
	if refreshToken == "" {
		refreshToken = acc.RefreshToken
	}
	tokenSecret := refreshed.TokenSecret
	if tokenSecret == "" {
		tokenSecret = acc.TokenSecret
	}

	if err := m.repo.UpdateTokens(ctx, acc.UserID, acc.ID(), accessToken, refreshToken, tokenSecret, refreshed.ExpiresAt); err != nil {
		return "", apperr.Internal(fmt.Sprintf("persist refreshed tokens for %s", acc.ID()), err)
	}

	acc.AccessToken = accessToken
	acc.RefreshToken = refreshToken
	acc.TokenSecret = tokenSecret
	acc.TokenExpiresAt = refreshed.ExpiresAt

	return accessToken, nil
}
