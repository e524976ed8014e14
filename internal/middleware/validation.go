package middleware

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/techappsUT/social-publisher/pkg/response"
)

var validate = validator.New()

// ValidateRequest rejects a non-JSON body on any mutating verb before it
// reaches a handler's decoder.
func ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.Header.Get("Content-Type") != "application/json" {
				response.BadRequest(w, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateStruct validates v against its `validate` struct tags. Call
// from a handler after decoding a request body.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}

// FormatValidationErrors renders a validator.ValidationErrors as a
// single human-readable sentence for the {"detail": ...} envelope.
func FormatValidationErrors(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msg := ""
	for i, e := range validationErrors {
		if i > 0 {
			msg += "; "
		}
		switch e.Tag() {
		case "required":
			msg += e.Field() + " is required"
		case "min":
			msg += e.Field() + " must have at least " + e.Param() + " item(s)"
		case "max":
			msg += e.Field() + " must have at most " + e.Param() + " item(s)"
		default:
			msg += e.Field() + " failed " + e.Tag()
		}
	}
	return msg
}
