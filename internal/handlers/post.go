package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/dto"
	"github.com/techappsUT/social-publisher/internal/middleware"
	"github.com/techappsUT/social-publisher/pkg/response"
)

// Post handles POST /api/social/post: submit a video for publishing to
// one or more connected accounts (spec §4.5). The request carries the s3
// key from a prior upload-url call; this handler resolves it to a public
// video URL before handing off to Fan-out Intake.
//
// scheduled_time is accepted per the request shape but scheduling itself
// is a separate write path (component C7's ScheduledPost table) — a
// caller wanting a future-dated post should use that instead; this
// endpoint always submits immediately.
func (h *Handlers) Post(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, apperr.Internal("missing user id in request context", nil))
		return
	}

	var req dto.PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if err := middleware.ValidateStruct(&req); err != nil {
		response.BadRequest(w, middleware.FormatValidationErrors(err))
		return
	}

	videoURL := h.blob.PublicURL(req.S3Key)

	result, err := h.intake.Submit(r.Context(), userID, videoURL, req.Caption, req.AccountIDs, req.PlatformSettings)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, dto.PostResponse{
		RequestID:    result.RequestID,
		Status:       string(result.Status),
		Destinations: result.Destinations,
		VideoURL:     videoURL,
		CreatedAt:    result.CreatedAt,
	})
}
