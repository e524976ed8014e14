// Package response is the single canonical JSON response writer every
// handler goes through. Consolidated from three divergent copies the
// teacher carried (pkg/response, internal/handlers/response.go, and
// internal/middleware/validation.go's Respond* set) — spec §6 names one
// error shape, {"detail": string}, so there is no reason for three.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/techappsUT/social-publisher/internal/apperr"
)

// detail is spec §6's exact error envelope.
type detail struct {
	Detail string `json:"detail"`
}

// JSON writes data as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error maps err to its apperr status and writes {"detail": message}.
// Internal-kind (and non-apperr) errors never leak their cause string —
// they emit a fixed message so failures never echo internals back to a
// caller.
func Error(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	msg := "internal server error"
	if e, ok := apperr.As(err); ok && status != http.StatusInternalServerError {
		msg = e.Message
	}
	JSON(w, status, detail{Detail: msg})
}

// BadRequest writes a 400 with an explicit message, for request-body
// decode/validation failures that never reach an apperr.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, detail{Detail: msg})
}
