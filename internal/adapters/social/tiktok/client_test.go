package tiktok

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	social "github.com/techappsUT/social-publisher/internal/adapters/social"
)

type noopLogger struct{}

func (noopLogger) Info(msg string, fields ...any)  {}
func (noopLogger) Warn(msg string, fields ...any)  {}
func (noopLogger) Error(msg string, fields ...any) {}

func TestNewClient_BlobClientCarriesNoAbsoluteTimeout(t *testing.T) {
	c := NewClient()
	// http.Client.Timeout caps the whole exchange regardless of the
	// request's own context — it must be zero so putOnce/download's
	// per-attempt context.WithTimeout is the only deadline in effect.
	assert.Zero(t, c.blobClient.Timeout)
	assert.Equal(t, httpTimeout, c.httpClient.Timeout)
}

// withShortLadder overrides the package's putTimeouts ladder for the
// duration of a test so the retry logic can be exercised without
// waiting on real 3m/6m/9m deadlines, then restores it.
func withShortLadder(t *testing.T, ladder []time.Duration) {
	t.Helper()
	original := putTimeouts
	putTimeouts = ladder
	t.Cleanup(func() { putTimeouts = original })
}

func TestPutWithRetry_RetriesAcrossLadderOnTimeout(t *testing.T) {
	withShortLadder(t, []time.Duration{30 * time.Millisecond, 30 * time.Millisecond, 200 * time.Millisecond})

	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			// Outlast the first two (short) rungs of the ladder so those
			// attempts time out, but finish comfortably inside the third.
			time.Sleep(80 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient()
	err := c.putWithRetry(context.Background(), social.Credentials{AccessToken: "tok"}, server.URL, []byte("video-bytes"), noopLogger{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "must retry through the ladder until an attempt outlasts the server's delay")
}

func TestPutWithRetry_ExhaustsAllAttemptsOnRepeatedTimeout(t *testing.T) {
	withShortLadder(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond})

	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient()
	err := c.putWithRetry(context.Background(), social.Credentials{AccessToken: "tok"}, server.URL, []byte("video-bytes"), noopLogger{})
	require.Error(t, err)
	assert.Equal(t, int32(maxPutAttempts), atomic.LoadInt32(&attempts))
}

func TestPutWithRetry_TerminalStatusIsNeverRetried(t *testing.T) {
	withShortLadder(t, []time.Duration{time.Second, time.Second, time.Second})

	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient()
	err := c.putWithRetry(context.Background(), social.Credentials{AccessToken: "tok"}, server.URL, []byte("video-bytes"), noopLogger{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "a 4xx/5xx response is terminal and must not be retried")
}

func TestTruncateTitle_NeverSplitsAMultiByteRune(t *testing.T) {
	title := ""
	for i := 0; i < maxTitleChars+10; i++ {
		title += "é" // two-byte UTF-8 rune
	}

	got := truncateTitle(title)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxTitleChars, utf8.RuneCountInString(got))
}

func TestTruncateTitle_ShortTitleUnchanged(t *testing.T) {
	assert.Equal(t, "short caption", truncateTitle("short caption"))
}
