package upload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name     string
		children map[string]*DestinationRecord
		want     Status
	}{
		{
			name:     "no children queued",
			children: map[string]*DestinationRecord{},
			want:     StatusQueued,
		},
		{
			name: "all queued",
			children: map[string]*DestinationRecord{
				"twitter:1": {Status: StatusQueued},
				"youtube:1": {Status: StatusQueued},
			},
			want: StatusQueued,
		},
		{
			name: "any processing wins over completed and failed",
			children: map[string]*DestinationRecord{
				"twitter:1":  {Status: StatusCompleted},
				"youtube:1":  {Status: StatusFailed},
				"linkedin:1": {Status: StatusProcessing},
			},
			want: StatusProcessing,
		},
		{
			name: "any failed wins over completed once nothing is processing",
			children: map[string]*DestinationRecord{
				"twitter:1": {Status: StatusCompleted},
				"youtube:1": {Status: StatusFailed},
			},
			want: StatusFailed,
		},
		{
			name: "all completed",
			children: map[string]*DestinationRecord{
				"twitter:1": {Status: StatusCompleted},
				"youtube:1": {Status: StatusCompleted},
			},
			want: StatusCompleted,
		},
		{
			name: "mix of queued and completed stays queued",
			children: map[string]*DestinationRecord{
				"twitter:1": {Status: StatusCompleted},
				"youtube:1": {Status: StatusQueued},
			},
			want: StatusQueued,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.children))
		})
	}
}

func TestDestinationRecord_AppendLog_NeverRetracts(t *testing.T) {
	rec := &DestinationRecord{}
	now := time.Now().UTC()

	rec.AppendLog(LogInfo, "starting upload", now)
	rec.AppendLog(LogWarn, "retrying chunk", now.Add(time.Second))
	rec.AppendLog(LogError, "finalize failed", now.Add(2*time.Second))

	require := assert.New(t)
	require.Len(rec.Logs, 3)
	require.Equal(LogInfo, rec.Logs[0].Level)
	require.Equal("starting upload", rec.Logs[0].Message)
	require.Equal(LogError, rec.Logs[2].Level)

	// appending never mutates or drops earlier entries
	rec.AppendLog(LogInfo, "resubmitted by user", now.Add(3*time.Second))
	require.Len(rec.Logs, 4)
	require.Equal("starting upload", rec.Logs[0].Message)
}
