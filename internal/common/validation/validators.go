// Package validation holds small reusable field validators, independent
// of the go-playground/validator struct tags internal/middleware uses for
// request-body shape checks. No HTTP handler in this tree calls them.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidateUUID checks if string is valid UUID
func ValidateUUID(id string, fieldName string) error {
	if id == "" {
		return &ValidationError{Field: fieldName, Message: fmt.Sprintf("%s is required", fieldName)}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Field: fieldName, Message: fmt.Sprintf("invalid %s format", fieldName)}
	}
	return nil
}

// ValidateStringLength checks string length constraints
func ValidateStringLength(value string, fieldName string, min, max int) error {
	length := utf8.RuneCountInString(value)

	if min > 0 && length < min {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be at least %d characters", fieldName, min),
		}
	}

	if max > 0 && length > max {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must not exceed %d characters", fieldName, max),
		}
	}

	return nil
}

// ValidateRequired checks if value is not empty
func ValidateRequired(value string, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: fieldName, Message: fmt.Sprintf("%s is required", fieldName)}
	}
	return nil
}

// ValidateFutureDate checks if date is in the future
func ValidateFutureDate(date time.Time, fieldName string) error {
	if date.Before(time.Now().UTC()) {
		return &ValidationError{Field: fieldName, Message: fmt.Sprintf("%s must be in the future", fieldName)}
	}
	return nil
}

// ValidateEnum checks if value is in allowed list
func ValidateEnum(value string, fieldName string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   fieldName,
		Message: fmt.Sprintf("%s must be one of: %s", fieldName, strings.Join(allowed, ", ")),
	}
}

// platformCaptionLimits holds each platform's caption ceiling for
// ValidatePostContent. The POST /post path does not call
// ValidatePostContent, so captions are not length-checked at the API
// boundary.
var platformCaptionLimits = map[string]int{
	"twitter":   280,
	"linkedin":  3000,
	"facebook":  63206,
	"instagram": 2200,
	"youtube":   5000,
	"tiktok":    2200,
}

// ValidatePostContent checks caption length against the named platform's
// own limit.
func ValidatePostContent(content string, platform string) error {
	maxLength, ok := platformCaptionLimits[platform]
	if !ok {
		maxLength = 2200
	}

	length := utf8.RuneCountInString(content)
	if length > maxLength {
		return &ValidationError{
			Field:   "caption",
			Message: fmt.Sprintf("caption exceeds %s limit of %d characters", platform, maxLength),
		}
	}

	return nil
}

// Validator is a function that validates and returns an error
type Validator func() error

// ValidateAll runs multiple validators and collects errors
func ValidateAll(validators ...Validator) error {
	var errors ValidationErrors

	for _, validator := range validators {
		if err := validator(); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				errors = append(errors, *ve)
			} else if ves, ok := err.(ValidationErrors); ok {
				errors = append(errors, ves...)
			} else {
				errors = append(errors, ValidationError{
					Field:   "unknown",
					Message: err.Error(),
				})
			}
		}
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}
