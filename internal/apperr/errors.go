// Package apperr is the error taxonomy shared by every layer (spec §7).
// Each kind wraps a diagnostic string and maps to a stable HTTP status so
// handlers never hand-translate errors — they call Status(err) and emit
// the {detail: string} JSON shape spec §6 requires.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the taxonomy tag.
type Kind string

const (
	KindInput       Kind = "input"
	KindAuth        Kind = "auth"
	KindForbidden   Kind = "forbidden"
	KindNotFound    Kind = "not_found"
	KindCredential  Kind = "credential"
	KindUpload      Kind = "upload"
	KindTransient   Kind = "transient"
	KindRace        Kind = "race"
	KindInternal    Kind = "internal"
)

// Error is a typed application error carrying a diagnostic message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func new_(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Input wraps a bad destination format, empty destination list, or
// invalid pagination cursor. Recovered at the API boundary as HTTP 400.
func Input(msg string, cause error) *Error { return new_(KindInput, msg, cause) }

// Auth wraps a missing/invalid/expired bearer token. HTTP 401.
func Auth(msg string, cause error) *Error { return new_(KindAuth, msg, cause) }

// Forbidden wraps cross-user access. HTTP 403.
func Forbidden(msg string) *Error { return new_(KindForbidden, msg, nil) }

// NotFound wraps an unknown request, destination, or account. HTTP 404.
func NotFound(msg string, cause error) *Error { return new_(KindNotFound, msg, cause) }

// Credential wraps a failed token refresh or a missing refresh token for
// an expired credential. Terminates the destination with `failed`, not
// retried; the user is prompted to reconnect the account.
func Credential(msg string, cause error) *Error { return new_(KindCredential, msg, cause) }

// Upload wraps an adapter-specific failure (init, chunk, finalize,
// publish). Terminates the destination with `failed`; resubmit is the
// recovery path.
func Upload(msg string, cause error) *Error { return new_(KindUpload, msg, cause) }

// Transient wraps a network timeout during a chunk or poll. Callers retry
// locally; exhaustion should be rewrapped as Upload.
func Transient(msg string, cause error) *Error { return new_(KindTransient, msg, cause) }

// Race wraps a conditional write that lost (scheduler double-promotion).
// Always handled by silently skipping, never surfaced to a user.
func Race(msg string) *Error { return new_(KindRace, msg, nil) }

// Internal wraps anything unexpected.
func Internal(msg string, cause error) *Error { return new_(KindInternal, msg, cause) }

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Status maps an error to the HTTP status code spec §6 specifies.
func Status(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindInput:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
