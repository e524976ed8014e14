package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/dto"
	"github.com/techappsUT/social-publisher/internal/middleware"
	"github.com/techappsUT/social-publisher/pkg/response"
)

// UploadURL handles POST /api/social/upload-url: issue a presigned
// upload URL for the caller to PUT their video to directly (spec §6).
func (h *Handlers) UploadURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, apperr.Internal("missing user id in request context", nil))
		return
	}

	var req dto.UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if err := middleware.ValidateStruct(&req); err != nil {
		response.BadRequest(w, middleware.FormatValidationErrors(err))
		return
	}

	presigned, err := h.blob.PresignUpload(userID, req.Filename, req.ContentType)
	if err != nil {
		response.Error(w, apperr.Internal("presign upload", err))
		return
	}

	response.JSON(w, http.StatusOK, dto.UploadURLResponse{
		UploadURL: presigned.UploadURL,
		S3Key:     presigned.Key,
		Bucket:    presigned.Bucket,
	})
}
