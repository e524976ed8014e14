package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/dto"
	"github.com/techappsUT/social-publisher/internal/middleware"
	"github.com/techappsUT/social-publisher/pkg/response"
)

// ListAccounts handles GET /api/social/accounts: every account connected
// by the caller, credential fields stripped.
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, apperr.Internal("missing user id in request context", nil))
		return
	}

	accounts, err := h.accounts.List(r.Context(), userID, nil)
	if err != nil {
		response.Error(w, apperr.Internal("list accounts", err))
		return
	}

	out := make([]dto.AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		safe := acc.WithoutSecrets()
		out = append(out, dto.AccountResponse{
			AccountID:      safe.ID(),
			Platform:       string(safe.Platform),
			PlatformUserID: safe.PlatformUserID,
			AccountType:    string(safe.AccountType),
			Username:       safe.Metadata.Username,
			PageName:       safe.Metadata.PageName,
			CreatedAt:      safe.CreatedAt,
		})
	}

	response.JSON(w, http.StatusOK, dto.AccountListResponse{Accounts: out})
}

// DeleteAccount handles DELETE /api/social/accounts/{id}: disconnect an
// account. Later submissions that name it drop it as a destination, and
// jobs already queued for it fail that destination with a not-found error.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, apperr.Internal("missing user id in request context", nil))
		return
	}
	accountID := chi.URLParam(r, "id")

	if err := h.accounts.Delete(r.Context(), userID, accountID); err != nil {
		if err == account.ErrNotFound {
			response.Error(w, apperr.NotFound("account not found", err))
			return
		}
		response.Error(w, apperr.Internal("delete account", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
