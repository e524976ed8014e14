// Package breaker wraps each platform adapter's Publish call in a
// per-platform circuit breaker, so a platform having an
// outage fails fast for subsequent destinations instead of queuing up
// behind its own timeout on every worker invocation.
package breaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/techappsUT/social-publisher/internal/domain/account"
)

// Registry holds one gobreaker.CircuitBreaker per platform.
type Registry struct {
	breakers map[account.Platform]*gobreaker.CircuitBreaker
}

// New builds a Registry with one breaker per supported platform, tripping
// after 5 consecutive failures and probing again after 30s half-open.
func New() *Registry {
	platforms := []account.Platform{
		account.PlatformFacebook,
		account.PlatformInstagram,
		account.PlatformTwitter,
		account.PlatformYouTube,
		account.PlatformLinkedIn,
		account.PlatformTikTok,
	}

	r := &Registry{breakers: make(map[account.Platform]*gobreaker.CircuitBreaker, len(platforms))}
	for _, p := range platforms {
		platform := p
		r.breakers[platform] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        string(platform),
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
	return r
}

// Execute runs fn through the breaker for platform. A tripped breaker
// returns gobreaker.ErrOpenState without calling fn at all.
func (r *Registry) Execute(ctx context.Context, platform account.Platform, fn func() (any, error)) (any, error) {
	b, ok := r.breakers[platform]
	if !ok {
		return fn()
	}
	return b.Execute(fn)
}
