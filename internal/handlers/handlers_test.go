package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techappsUT/social-publisher/internal/blobstore"
	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/dto"
	"github.com/techappsUT/social-publisher/internal/identity"
	"github.com/techappsUT/social-publisher/internal/logging"
	"github.com/techappsUT/social-publisher/internal/middleware"
)

const testJWTSecret = "test-secret-at-least-32-bytes-long!"

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwtlib.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

// fakeBlob is a blobstore.Store with fixed, input-derived outputs.
type fakeBlob struct{}

func (fakeBlob) PresignUpload(userID, filename, contentType string) (blobstore.PresignedUpload, error) {
	return blobstore.PresignedUpload{
		UploadURL: "https://s3.example.com/upload/" + userID + "/" + filename,
		Key:       userID + "/" + filename,
		Bucket:    "video-uploads",
	}, nil
}

func (fakeBlob) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakeAccounts struct {
	byID map[string]*account.Account
}

func newFakeAccounts(accs ...*account.Account) *fakeAccounts {
	f := &fakeAccounts{byID: map[string]*account.Account{}}
	for _, a := range accs {
		f.byID[a.ID()] = a
	}
	return f
}

func (f *fakeAccounts) Create(ctx context.Context, acc *account.Account) (*account.Account, error) {
	return acc, nil
}

func (f *fakeAccounts) Get(ctx context.Context, userID, accountID string) (*account.Account, error) {
	acc, ok := f.byID[accountID]
	if !ok || acc.UserID != userID {
		return nil, account.ErrNotFound
	}
	return acc, nil
}

func (f *fakeAccounts) List(ctx context.Context, userID string, platform *account.Platform) ([]*account.Account, error) {
	var out []*account.Account
	for _, a := range f.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) UpdateTokens(ctx context.Context, userID, accountID, accessToken, refreshToken, tokenSecret string, expiresAt *time.Time) error {
	return nil
}

func (f *fakeAccounts) Delete(ctx context.Context, userID, accountID string) error {
	if _, ok := f.byID[accountID]; !ok {
		return account.ErrNotFound
	}
	delete(f.byID, accountID)
	return nil
}

// newTestRouter wires router.go's RequireAuth middleware in front of the
// handful of routes each test exercises; the rest of router.go's
// middleware stack is not applied.
func newTestRouter(t *testing.T, h *Handlers) http.Handler {
	t.Helper()
	verifier := identity.NewVerifier(testJWTSecret, "")
	auth := middleware.NewAuthMiddleware(verifier)

	r := chi.NewRouter()
	r.Route("/api/social", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/upload-url", h.UploadURL)
		r.Get("/accounts", h.ListAccounts)
		r.Delete("/accounts/{id}", h.DeleteAccount)
	})
	return r
}

func TestUploadURL_ReturnsPresignedURL(t *testing.T) {
	h := New(nil, nil, newFakeAccounts(), fakeBlob{}, logging.New(true))
	router := newTestRouter(t, h)

	body, _ := json.Marshal(dto.UploadURLRequest{Filename: "clip.mp4", ContentType: "video/mp4"})
	req := httptest.NewRequest(http.MethodPost, "/api/social/upload-url", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp dto.UploadURLResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "user-1/clip.mp4", resp.S3Key)
	assert.Equal(t, "video-uploads", resp.Bucket)
}

func TestUploadURL_RejectsMissingBearerToken(t *testing.T) {
	h := New(nil, nil, newFakeAccounts(), fakeBlob{}, logging.New(true))
	router := newTestRouter(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/social/upload-url", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUploadURL_RejectsMissingFields(t *testing.T) {
	h := New(nil, nil, newFakeAccounts(), fakeBlob{}, logging.New(true))
	router := newTestRouter(t, h)

	body, _ := json.Marshal(dto.UploadURLRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/social/upload-url", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListAccounts_StripsSecretsAndScopesToCaller(t *testing.T) {
	accounts := newFakeAccounts(
		&account.Account{UserID: "user-1", Platform: account.PlatformTwitter, PlatformUserID: "abc", AccessToken: "secret"},
		&account.Account{UserID: "someone-else", Platform: account.PlatformYouTube, PlatformUserID: "chan"},
	)
	h := New(nil, nil, accounts, fakeBlob{}, logging.New(true))
	router := newTestRouter(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/social/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp dto.AccountListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "twitter:abc", resp.Accounts[0].AccountID)
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestDeleteAccount_NotFoundTranslatesTo404(t *testing.T) {
	h := New(nil, nil, newFakeAccounts(), fakeBlob{}, logging.New(true))
	router := newTestRouter(t, h)

	req := httptest.NewRequest(http.MethodDelete, "/api/social/accounts/twitter:missing", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteAccount_Success(t *testing.T) {
	accounts := newFakeAccounts(&account.Account{UserID: "user-1", Platform: account.PlatformTwitter, PlatformUserID: "abc"})
	h := New(nil, nil, accounts, fakeBlob{}, logging.New(true))
	router := newTestRouter(t, h)

	req := httptest.NewRequest(http.MethodDelete, "/api/social/accounts/twitter:abc", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	_, err := accounts.Get(context.Background(), "user-1", "twitter:abc")
	assert.ErrorIs(t, err, account.ErrNotFound)
}
