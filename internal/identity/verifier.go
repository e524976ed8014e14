// Package identity is the external identity collaborator's consumer-side
// shim (spec §1): "authenticate(request) -> user_id". The core never
// issues tokens — it only verifies a bearer token produced by an
// out-of-scope identity provider and extracts a stable user id from it.
//
// Adapted from the teacher's internal/auth/token.go, trimmed to
// verification only.
package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/techappsUT/social-publisher/internal/apperr"
)

var (
	ErrMissingHeader = errors.New("identity: missing bearer token")
	ErrInvalidToken  = errors.New("identity: invalid token")
	ErrExpiredToken  = errors.New("identity: token expired")
)

// claims is the minimal claim set the identity provider is expected to
// issue; user_id (the JWT subject) is the only field the core relies on.
type claims struct {
	jwt.RegisteredClaims
}

// Verifier authenticates inbound requests by bearer token.
type Verifier struct {
	secret string
	issuer string
}

// NewVerifier builds a Verifier against the shared signing secret. In
// production this secret belongs to the identity provider; the core only
// ever reads its public verification material.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer}
}

// Authenticate maps an inbound request to a stable user id string, or an
// *apperr.Error with KindAuth on any failure.
func (v *Verifier) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperr.Auth("missing authorization header", ErrMissingHeader)
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.Auth("malformed authorization header", ErrInvalidToken)
	}

	userID, err := v.verify(parts[1], time.Now())
	if err != nil {
		return "", apperr.Auth("invalid bearer token", err)
	}
	return userID, nil
}

func (v *Verifier) verify(tokenString string, now time.Time) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(v.secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}
	if v.issuer != "" && c.Issuer != v.issuer {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
