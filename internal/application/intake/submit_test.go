package intake

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/domain/upload"
	"github.com/techappsUT/social-publisher/internal/infrastructure/queue"
	"github.com/techappsUT/social-publisher/internal/logging"
)

// fakeAccounts is an in-memory account.Repository backing Intake's
// destination-resolution precondition.
type fakeAccounts struct {
	byID map[string]*account.Account // keyed by account_id
}

func newFakeAccounts(accs ...*account.Account) *fakeAccounts {
	f := &fakeAccounts{byID: map[string]*account.Account{}}
	for _, a := range accs {
		f.byID[a.ID()] = a
	}
	return f
}

func (f *fakeAccounts) Create(ctx context.Context, acc *account.Account) (*account.Account, error) {
	f.byID[acc.ID()] = acc
	return acc, nil
}

func (f *fakeAccounts) Get(ctx context.Context, userID, accountID string) (*account.Account, error) {
	acc, ok := f.byID[accountID]
	if !ok || acc.UserID != userID {
		return nil, account.ErrNotFound
	}
	return acc, nil
}

func (f *fakeAccounts) List(ctx context.Context, userID string, platform *account.Platform) ([]*account.Account, error) {
	var out []*account.Account
	for _, a := range f.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) UpdateTokens(ctx context.Context, userID, accountID, accessToken, refreshToken, tokenSecret string, expiresAt *time.Time) error {
	return nil
}

func (f *fakeAccounts) Delete(ctx context.Context, userID, accountID string) error {
	delete(f.byID, accountID)
	return nil
}

// fakeRequests is an in-memory upload.Repository.
type fakeRequests struct {
	byID       map[string]*upload.Request
	deletedIDs []string
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{byID: map[string]*upload.Request{}}
}

func (f *fakeRequests) CreateParent(ctx context.Context, req *upload.Request) error {
	f.byID[req.RequestID] = req
	return nil
}

func (f *fakeRequests) DeleteParent(ctx context.Context, requestID string) error {
	f.deletedIDs = append(f.deletedIDs, requestID)
	delete(f.byID, requestID)
	return nil
}

func (f *fakeRequests) UpdateDestination(ctx context.Context, requestID, destination string, update upload.DestinationUpdate) error {
	return nil
}

func (f *fakeRequests) RecomputeParent(ctx context.Context, requestID string) (upload.Status, error) {
	return upload.StatusQueued, nil
}

func (f *fakeRequests) Get(ctx context.Context, requestID string) (*upload.Request, error) {
	req, ok := f.byID[requestID]
	if !ok {
		return nil, upload.ErrNotFound
	}
	return req, nil
}

func (f *fakeRequests) ListByUser(ctx context.Context, userID string, limit int, cursor string) (upload.Page, error) {
	return upload.Page{}, nil
}

func (f *fakeRequests) Resubmit(ctx context.Context, requestID, destination string, entry upload.LogEntry) error {
	return nil
}

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return queue.New(client, "posting")
}

func TestSubmit_HappyPath(t *testing.T) {
	user := "user-1"
	acc := &account.Account{UserID: user, Platform: account.PlatformTwitter, PlatformUserID: "abc"}
	accounts := newFakeAccounts(acc)
	requests := newFakeRequests()
	q := newTestQueue(t)
	in := New(accounts, requests, q, logging.New(true))

	result, err := in.Submit(context.Background(), user, "https://example.com/video.mp4", "check this out", []string{"twitter:abc"}, nil)

	require.NoError(t, err)
	assert.Equal(t, upload.StatusQueued, result.Status)
	assert.Equal(t, []string{"twitter:abc"}, result.Destinations)

	stored, ok := requests.byID[result.RequestID]
	require.True(t, ok)
	assert.Len(t, stored.Destinations, 1)
	assert.Empty(t, requests.deletedIDs)

	pending, err := q.PendingLength(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestSubmit_RejectsEmptyVideoURL(t *testing.T) {
	in := New(newFakeAccounts(), newFakeRequests(), newTestQueue(t), logging.New(true))
	_, err := in.Submit(context.Background(), "user-1", "", "caption", []string{"twitter:abc"}, nil)
	assert.Error(t, err)
}

func TestSubmit_RejectsEmptyDestinations(t *testing.T) {
	in := New(newFakeAccounts(), newFakeRequests(), newTestQueue(t), logging.New(true))
	_, err := in.Submit(context.Background(), "user-1", "https://example.com/video.mp4", "caption", nil, nil)
	assert.Error(t, err)
}

func TestSubmit_DropsDestinationWithNoConnectedAccount(t *testing.T) {
	user := "user-1"
	acc := &account.Account{UserID: user, Platform: account.PlatformTwitter, PlatformUserID: "abc"}
	accounts := newFakeAccounts(acc)
	requests := newFakeRequests()
	in := New(accounts, requests, newTestQueue(t), logging.New(true))

	result, err := in.Submit(context.Background(), user, "https://example.com/video.mp4", "caption",
		[]string{"twitter:abc", "youtube:does-not-exist"}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"twitter:abc"}, result.Destinations)
}

func TestSubmit_AllDestinationsInvalidIsRejected(t *testing.T) {
	in := New(newFakeAccounts(), newFakeRequests(), newTestQueue(t), logging.New(true))
	_, err := in.Submit(context.Background(), "user-1", "https://example.com/video.mp4", "caption",
		[]string{"youtube:does-not-exist"}, nil)
	assert.Error(t, err)
}

// TestSubmit_RollsBackParentOnEnqueueFailure exercises the compensating-delete
// rollback when enqueueing fails during fan-out (spec §4.5).
func TestSubmit_RollsBackParentOnEnqueueFailure(t *testing.T) {
	user := "user-1"
	accounts := newFakeAccounts(
		&account.Account{UserID: user, Platform: account.PlatformTwitter, PlatformUserID: "a"},
		&account.Account{UserID: user, Platform: account.PlatformYouTube, PlatformUserID: "b"},
	)
	requests := newFakeRequests()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	q := queue.New(client, "posting")

	// Close the redis connection the queue depends on after Submit starts
	// would be racy to simulate precisely; instead, simulate a hard failure
	// by shutting miniredis down before calling Submit so every Enqueue call
	// fails deterministically.
	mr.Close()

	in := New(accounts, requests, q, logging.New(true))
	_, err := in.Submit(context.Background(), user, "https://example.com/video.mp4", "caption",
		[]string{"twitter:a", "youtube:b"}, nil)

	require.Error(t, err)
	assert.Len(t, requests.deletedIDs, 1, "Intake must compensate by deleting the parent row it just created")
	assert.Empty(t, requests.byID)
}
