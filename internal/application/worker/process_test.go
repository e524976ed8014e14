package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/domain/upload"
	"github.com/techappsUT/social-publisher/internal/logging"
)

func TestParsePlatform(t *testing.T) {
	cases := []struct {
		destination string
		want        account.Platform
		ok          bool
	}{
		{"twitter:abc123", account.PlatformTwitter, true},
		{"youtube:channel-1", account.PlatformYouTube, true},
		{"snapchat:abc", "", false},
		{"malformed-no-colon", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.destination, func(t *testing.T) {
			got, ok := parsePlatform(tc.destination)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestPendingLogs_OnlyReturnsEntriesSinceLastFlush(t *testing.T) {
	log := logging.New(true)
	destLog := logging.NewDestinationLogger(log, "req-1", "twitter:abc")

	destLog.Info("processing started")
	destLog.Info("uploading chunk 1")

	sent := 0
	first := pendingLogs(destLog, &sent)
	assert := assert.New(t)
	assert.Len(first, 2)
	assert.Equal(2, sent)

	// nothing new since the first flush
	second := pendingLogs(destLog, &sent)
	assert.Empty(second)

	destLog.Error("publish failed")
	third := pendingLogs(destLog, &sent)
	assert.Len(third, 1)
	assert.Equal(upload.LogError, third[0].Level)
	assert.Equal(3, sent)
}

func TestPendingLogs_EmptyLoggerReturnsNothing(t *testing.T) {
	destLog := logging.NewDestinationLogger(logging.New(true), "req-1", "twitter:abc")
	sent := 0
	assert.Empty(t, pendingLogs(destLog, &sent))
	assert.Equal(t, 0, sent)
}
