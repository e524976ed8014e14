package middleware

import (
	"context"
	"net/http"

	"github.com/techappsUT/social-publisher/internal/identity"
	"github.com/techappsUT/social-publisher/pkg/response"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AuthMiddleware authenticates every protected request through the
// external identity collaborator's bearer-token verifier (spec §1,
// §6) and stashes the resulting user id in the request context.
type AuthMiddleware struct {
	verifier *identity.Verifier
}

func NewAuthMiddleware(verifier *identity.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects the request with 401 unless it carries a valid
// bearer token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.verifier.Authenticate(r)
		if err != nil {
			response.Error(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID reads the user id RequireAuth placed in the context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}
