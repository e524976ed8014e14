package query

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/domain/upload"
	"github.com/techappsUT/social-publisher/internal/infrastructure/queue"
)

type fakeRequests struct {
	byID            map[string]*upload.Request
	resubmitCalls   []string
	resubmitErr     error
}

func newFakeRequests(reqs ...*upload.Request) *fakeRequests {
	f := &fakeRequests{byID: map[string]*upload.Request{}}
	for _, r := range reqs {
		f.byID[r.RequestID] = r
	}
	return f
}

func (f *fakeRequests) CreateParent(ctx context.Context, req *upload.Request) error { return nil }
func (f *fakeRequests) DeleteParent(ctx context.Context, requestID string) error    { return nil }
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
	var out []*upload.Request
	for _, r := range f.byID {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return upload.Page{Requests: out}, nil
}

func (f *fakeRequests) Resubmit(ctx context.Context, requestID, destination string, entry upload.LogEntry) error {
	f.resubmitCalls = append(f.resubmitCalls, requestID+":"+destination)
	return f.resubmitErr
}

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return queue.New(client, "posting")
}

func sampleRequest(userID, requestID string, destStatus upload.Status) *upload.Request {
	return &upload.Request{
		RequestID: requestID,
		UserID:    userID,
		VideoURL:  "https://example.com/video.mp4",
		Caption:   "hello",
		Status:    destStatus,
		Destinations: map[string]*upload.DestinationRecord{
			"twitter:abc": {
				Status: destStatus,
				Logs:   []upload.LogEntry{{Timestamp: time.Now(), Level: upload.LogInfo, Message: "queued"}},
			},
		},
	}
}

func TestDetail_ForbidsOtherUsersRequest(t *testing.T) {
	req := sampleRequest("owner", "req-1", upload.StatusQueued)
	q := New(newFakeRequests(req), newTestQueue(t))

	_, err := q.Detail(context.Background(), "someone-else", "req-1")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindForbidden, appErr.Kind)
}

func TestDetail_NotFound(t *testing.T) {
	q := New(newFakeRequests(), newTestQueue(t))
	_, err := q.Detail(context.Background(), "owner", "does-not-exist")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
}

func TestLogs_FiltersToOneDestination(t *testing.T) {
	req := sampleRequest("owner", "req-1", upload.StatusFailed)
	q := New(newFakeRequests(req), newTestQueue(t))

	dest := "twitter:abc"
	logs, err := q.Logs(context.Background(), "owner", "req-1", &dest)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Contains(t, logs, dest)
}

func TestLogs_UnknownDestination(t *testing.T) {
	req := sampleRequest("owner", "req-1", upload.StatusFailed)
	q := New(newFakeRequests(req), newTestQueue(t))

	dest := "youtube:nope"
	_, err := q.Logs(context.Background(), "owner", "req-1", &dest)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
}

func TestResubmit_ReEnqueuesAfterStoreReset(t *testing.T) {
	req := sampleRequest("owner", "req-1", upload.StatusFailed)
	requests := newFakeRequests(req)
	testQueue := newTestQueue(t)
	q := New(requests, testQueue)

	err := q.Resubmit(context.Background(), "owner", "req-1", "twitter:abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1:twitter:abc"}, requests.resubmitCalls)

	pending, err := testQueue.PendingLength(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending, "a successful reset must push a fresh job")
}

func TestResubmit_StoreRejectionNeverEnqueues(t *testing.T) {
	req := sampleRequest("owner", "req-1", upload.StatusFailed)
	requests := newFakeRequests(req)
	requests.resubmitErr = upload.ErrNotFailed
	testQueue := newTestQueue(t)
	q := New(requests, testQueue)

	err := q.Resubmit(context.Background(), "owner", "req-1", "twitter:abc")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInput, appErr.Kind)

	pending, err := testQueue.PendingLength(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending, "a rejected reset must not enqueue a job")
}
