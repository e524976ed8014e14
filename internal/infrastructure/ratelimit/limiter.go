// Package ratelimit throttles outbound platform HTTP calls per
// (platform, account) pair, adapted from the teacher's now-removed
// internal/social/ratelimiter.go rate table over golang.org/x/time/rate.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/techappsUT/social-publisher/internal/domain/account"
)

// platformLimit is one platform's outbound call budget, expressed as a
// request count per period and enforced as a steady rate with a burst of
// defaultBurst — the teacher's own per-platform table
// (Twitter 300/15min, Facebook 200/hr, LinkedIn 100/day, default 60/min),
// generalized to the six platforms this spec supports.
type platformLimit struct {
	requests int
	per      time.Duration
}

var defaultLimits = map[account.Platform]platformLimit{
	account.PlatformTwitter:   {requests: 300, per: 15 * time.Minute},
	account.PlatformFacebook:  {requests: 200, per: time.Hour},
	account.PlatformInstagram: {requests: 200, per: time.Hour},
	account.PlatformLinkedIn:  {requests: 100, per: 24 * time.Hour},
	account.PlatformYouTube:   {requests: 6, per: time.Minute},
	account.PlatformTikTok:    {requests: 60, per: time.Minute},
}

const defaultBurst = 1

// Limiter hands out a per-(platform, account_id) *rate.Limiter, lazily
// constructed and cached for the lifetime of the process.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limits   map[account.Platform]platformLimit
}

// New builds a Limiter over the default per-platform budgets.
func New() *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limits:   defaultLimits,
	}
}

// get returns the cached *rate.Limiter for (platform, accountID), building
// it from the platform's budget (or a 60/min default) on first use.
func (l *Limiter) get(platform account.Platform, accountID string) *rate.Limiter {
	key := string(platform) + ":" + accountID

	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[key]; ok {
		return lim
	}

	budget, ok := l.limits[platform]
	if !ok {
		budget = platformLimit{requests: 60, per: time.Minute}
	}
	everyPerRequest := budget.per / time.Duration(budget.requests)
	lim := rate.NewLimiter(rate.Every(everyPerRequest), defaultBurst)
	l.limiters[key] = lim
	return lim
}

// Allow reports whether a call for (platform, accountID) may proceed now,
// consuming a token if so. Used by the Worker immediately before
// dispatching to an adapter.
func (l *Limiter) Allow(platform account.Platform, accountID string) bool {
	return l.get(platform, accountID).Allow()
}
