package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID(uuid.NewString(), "account_id"))
	assert.Error(t, ValidateUUID("", "account_id"))
	assert.Error(t, ValidateUUID("not-a-uuid", "account_id"))
}

func TestValidateStringLength(t *testing.T) {
	assert.NoError(t, ValidateStringLength("hello", "caption", 1, 10))
	assert.Error(t, ValidateStringLength("", "caption", 1, 10))
	assert.Error(t, ValidateStringLength(strings.Repeat("a", 11), "caption", 1, 10))
	assert.NoError(t, ValidateStringLength("", "caption", 0, 10), "zero min disables the lower bound")
}

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("value", "field"))
	assert.Error(t, ValidateRequired("", "field"))
	assert.Error(t, ValidateRequired("   ", "field"))
}

func TestValidateFutureDate(t *testing.T) {
	assert.NoError(t, ValidateFutureDate(time.Now().Add(time.Hour), "scheduled_time"))
	assert.Error(t, ValidateFutureDate(time.Now().Add(-time.Hour), "scheduled_time"))
}

func TestValidateEnum(t *testing.T) {
	allowed := []string{"queued", "processing", "completed", "failed"}
	assert.NoError(t, ValidateEnum("processing", "status", allowed))
	assert.Error(t, ValidateEnum("cancelled", "status", allowed))
}

func TestValidatePostContent(t *testing.T) {
	cases := []struct {
		platform string
		limit    int
	}{
		{"twitter", 280},
		{"linkedin", 3000},
		{"facebook", 63206},
		{"instagram", 2200},
		{"youtube", 5000},
		{"tiktok", 2200},
	}

	for _, tc := range cases {
		t.Run(tc.platform, func(t *testing.T) {
			assert.NoError(t, ValidatePostContent(strings.Repeat("a", tc.limit), tc.platform))
			assert.Error(t, ValidatePostContent(strings.Repeat("a", tc.limit+1), tc.platform))
		})
	}
}

func TestValidatePostContent_UnknownPlatformFallsBackToDefault(t *testing.T) {
	assert.NoError(t, ValidatePostContent(strings.Repeat("a", 2200), "unknown"))
	assert.Error(t, ValidatePostContent(strings.Repeat("a", 2201), "unknown"))
}

func TestValidateAll_CollectsEveryFailure(t *testing.T) {
	err := ValidateAll(
		func() error { return ValidateRequired("", "video_url") },
		func() error { return ValidateUUID("not-a-uuid", "account_id") },
		func() error { return nil },
	)

	require := assert.New(t)
	require.Error(err)
	ves, ok := err.(ValidationErrors)
	require.True(ok)
	require.Len(ves, 2)
	require.Equal("video_url", ves[0].Field)
	require.Equal("account_id", ves[1].Field)
}

func TestValidateAll_NoErrorsReturnsNil(t *testing.T) {
	err := ValidateAll(
		func() error { return ValidateRequired("value", "field") },
	)
	assert.NoError(t, err)
}
