package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAs_ExtractsTypedError(t *testing.T) {
	wrapped := errors.New("disk full")
	err := Internal("write failed", wrapped)

	got, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, wrapped)
}

func TestAs_PlainErrorIsNotExtracted(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"input", Input("bad destination", nil), http.StatusBadRequest},
		{"auth", Auth("missing bearer token", nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("not your request"), http.StatusForbidden},
		{"not_found", NotFound("no such request", nil), http.StatusNotFound},
		{"credential", Credential("refresh failed", nil), http.StatusInternalServerError},
		{"upload", Upload("finalize failed", nil), http.StatusInternalServerError},
		{"transient", Transient("timeout", nil), http.StatusInternalServerError},
		{"race", Race("lost promotion race"), http.StatusInternalServerError},
		{"internal", Internal("unexpected", nil), http.StatusInternalServerError},
		{"plain error falls back to internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Status(tc.err))
		})
	}
}

func TestError_MessageIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upload("publish failed", cause)
	assert.Contains(t, err.Error(), "publish failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestError_MessageWithoutCause(t *testing.T) {
	err := Forbidden("not your request")
	assert.Equal(t, "not your request", err.Error())
}
