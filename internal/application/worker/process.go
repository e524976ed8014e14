// Package worker implements the Worker (spec §4.6, component C6): the
// per-destination publish loop that dequeues one queue.Message, refreshes
// credentials, dispatches to the matching Platform Adapter, and writes the
// terminal status back to the Request Store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/techappsUT/social-publisher/internal/adapters/social"
	"github.com/techappsUT/social-publisher/internal/adapters/social/facebook"
	"github.com/techappsUT/social-publisher/internal/adapters/social/instagram"
	"github.com/techappsUT/social-publisher/internal/adapters/social/linkedin"
	"github.com/techappsUT/social-publisher/internal/adapters/social/tiktok"
	"github.com/techappsUT/social-publisher/internal/adapters/social/twitter"
	"github.com/techappsUT/social-publisher/internal/adapters/social/youtube"
	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/credentials"
	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/domain/upload"
	"github.com/techappsUT/social-publisher/internal/infrastructure/breaker"
	"github.com/techappsUT/social-publisher/internal/infrastructure/queue"
	"github.com/techappsUT/social-publisher/internal/infrastructure/ratelimit"
	"github.com/techappsUT/social-publisher/internal/logging"
)

// Worker processes one queue.Message at a time through to a terminal
// destination status.
type Worker struct {
	accounts    account.Repository
	requests    upload.Repository
	credentials *credentials.Manager
	breakers    *breaker.Registry
	limiter     *ratelimit.Limiter
	queue       *queue.Queue
	log         logging.Logger
	adapters    map[account.Platform]social.Adapter
	now         func() time.Time
}

// New builds a Worker wired with the six platform adapters (spec §4.3).
func New(
	accounts account.Repository,
	requests upload.Repository,
	credMgr *credentials.Manager,
	breakers *breaker.Registry,
	limiter *ratelimit.Limiter,
	q *queue.Queue,
	log logging.Logger,
	twitterConsumerKey, twitterConsumerSecret string,
) *Worker {
	return &Worker{
		accounts:    accounts,
		requests:    requests,
		credentials: credMgr,
		breakers:    breakers,
		limiter:     limiter,
		queue:       q,
		log:         log,
		now:         time.Now,
		adapters: map[account.Platform]social.Adapter{
			account.PlatformFacebook:  facebook.NewClient(),
			account.PlatformInstagram: instagram.NewClient(),
			account.PlatformTwitter:   twitter.NewClient(twitterConsumerKey, twitterConsumerSecret),
			account.PlatformYouTube:   youtube.NewClient(),
			account.PlatformLinkedIn:  linkedin.NewClient(),
			account.PlatformTikTok:    tiktok.NewClient(),
		},
	}
}

// Run dequeues messages in a loop until ctx is cancelled, processing each
// one in turn. Intended as the cmd/worker main loop's body.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			w.log.Error("worker: dequeue failed", "error", err.Error())
			continue
		}
		if msg == nil {
			continue
		}

		w.Process(ctx, msg)
	}
}

// Process runs one destination's publish attempt to completion, per spec
// §4.6's seven-step sequence, and always acks the message on a clean
// return — success or a recorded adapter failure both ack.
func (w *Worker) Process(ctx context.Context, msg *queue.Message) {
	destLog := logging.NewDestinationLogger(w.log, msg.RequestID, msg.Destination)

	if err := w.run(ctx, msg, destLog); err != nil {
		w.log.Error("worker: destination processing error", "request_id", msg.RequestID, "destination", msg.Destination, "error", err.Error())
	}

	if err := w.queue.Ack(ctx, msg.JobID); err != nil {
		w.log.Error("worker: ack failed", "job_id", msg.JobID, "error", err.Error())
	}
}

func (w *Worker) run(ctx context.Context, msg *queue.Message, destLog *logging.DestinationLogger) error {
	sent := 0
	destLog.Info("processing started")

	if err := w.markProcessing(ctx, msg.RequestID, msg.Destination, destLog, &sent); err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			// parent was rolled back by Intake's compensating delete; nothing to do.
			return nil
		}
		return err
	}

	platform, ok := parsePlatform(msg.Destination)
	if !ok {
		return w.fail(ctx, msg, destLog, &sent, apperr.Input(fmt.Sprintf("malformed destination %q", msg.Destination), nil))
	}

	acc, err := w.accounts.Get(ctx, msg.UserID, msg.Destination)
	if err != nil {
		return w.fail(ctx, msg, destLog, &sent, apperr.NotFound(fmt.Sprintf("no connected account for %s", msg.Destination), err))
	}

	accessToken, err := w.credentials.EnsureFresh(ctx, acc)
	if err != nil {
		return w.fail(ctx, msg, destLog, &sent, err)
	}

	if !w.limiter.Allow(platform, acc.ID()) {
		return w.fail(ctx, msg, destLog, &sent, apperr.Transient(fmt.Sprintf("rate limit exceeded for %s", acc.ID()), nil))
	}

	adapter, ok := w.adapters[platform]
	if !ok {
		return w.fail(ctx, msg, destLog, &sent, apperr.Internal(fmt.Sprintf("no adapter registered for platform %q", platform), nil))
	}

	creds := social.Credentials{
		AccountID:      acc.ID(),
		PlatformUserID: acc.PlatformUserID,
		AccessToken:    accessToken,
		RefreshToken:   acc.RefreshToken,
		TokenSecret:    acc.TokenSecret,
	}
	content := social.Content{
		VideoURL:         msg.VideoURL,
		Caption:          msg.Caption,
		PlatformSettings: msg.PlatformSettings,
	}

	raw, err := w.breakers.Execute(ctx, platform, func() (any, error) {
		return adapter.Publish(ctx, creds, content, destLog)
	})
	if err != nil {
		return w.fail(ctx, msg, destLog, &sent, apperr.Upload(fmt.Sprintf("publish to %s failed", msg.Destination), err))
	}

	result, _ := raw.(*social.Result)
	destLog.Info("publish succeeded", "status", result.Status, "platform_id", result.PlatformID)

	return w.complete(ctx, msg, destLog, &sent, result)
}

// pendingLogs returns the entries accumulated since the last flush and
// advances sent, so each Request Store write appends only the new lines
// instead of re-appending everything already persisted.
func pendingLogs(destLog *logging.DestinationLogger, sent *int) []upload.LogEntry {
	all := destLog.Entries()
	fresh := all[*sent:]
	*sent = len(all)
	return fresh
}

func (w *Worker) markProcessing(ctx context.Context, requestID, destination string, destLog *logging.DestinationLogger, sent *int) error {
	if err := w.requests.UpdateDestination(ctx, requestID, destination, upload.DestinationUpdate{
		Status: upload.StatusProcessing,
		Logs:   pendingLogs(destLog, sent),
	}); err != nil {
		return err
	}
	_, err := w.requests.RecomputeParent(ctx, requestID)
	return err
}

func (w *Worker) complete(ctx context.Context, msg *queue.Message, destLog *logging.DestinationLogger, sent *int, result *social.Result) error {
	extra := upload.Result{}
	if result != nil {
		if result.PlatformID != "" {
			extra["platform_id"] = result.PlatformID
		}
		if result.URL != "" {
			extra["url"] = result.URL
		}
		for k, v := range result.Extra {
			extra[k] = v
		}
	}

	// Instagram's processing-budget exhaustion is a successful terminal
	// state, not a failure (spec §4.3.1 step 5).
	if result != nil && result.Status == "processing" {
		extra["platform_status"] = "processing"
	}

	if err := w.requests.UpdateDestination(ctx, msg.RequestID, msg.Destination, upload.DestinationUpdate{
		Status: upload.StatusCompleted,
		Logs:   pendingLogs(destLog, sent),
		Result: extra,
	}); err != nil {
		return err
	}
	_, err := w.requests.RecomputeParent(ctx, msg.RequestID)
	return err
}

func (w *Worker) fail(ctx context.Context, msg *queue.Message, destLog *logging.DestinationLogger, sent *int, cause error) error {
	destLog.Error("publish failed", "error", cause.Error())

	if err := w.requests.UpdateDestination(ctx, msg.RequestID, msg.Destination, upload.DestinationUpdate{
		Status: upload.StatusFailed,
		Logs:   pendingLogs(destLog, sent),
		Error:  cause.Error(),
	}); err != nil {
		return err
	}
	if _, err := w.requests.RecomputeParent(ctx, msg.RequestID); err != nil {
		return err
	}
	return nil
}

func parsePlatform(destination string) (account.Platform, bool) {
	for i := 0; i < len(destination); i++ {
		if destination[i] == ':' {
			p := account.Platform(destination[:i])
			return p, p.Valid()
		}
	}
	return "", false
}
