package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/techappsUT/social-publisher/internal/apperr"
	"github.com/techappsUT/social-publisher/internal/domain/upload"
	"github.com/techappsUT/social-publisher/internal/dto"
	"github.com/techappsUT/social-publisher/internal/middleware"
	"github.com/techappsUT/social-publisher/pkg/response"
)

const defaultUploadPageSize = 20

// ListUploads handles GET /api/social/uploads: a page of the caller's own
// upload requests, parent-level status only.
func (h *Handlers) ListUploads(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, apperr.Internal("missing user id in request context", nil))
		return
	}

	limit := defaultUploadPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	cursor := r.URL.Query().Get("cursor")

	summaries, nextCursor, err := h.query.List(r.Context(), userID, limit, cursor)
	if err != nil {
		response.Error(w, err)
		return
	}

	out := make([]dto.UploadSummary, 0, len(summaries))
	for _, s := range summaries {
		destinations := make(map[string]string, len(s.Destinations))
		for dest, status := range s.Destinations {
			destinations[dest] = string(status)
		}
		out = append(out, dto.UploadSummary{
			RequestID:    s.RequestID,
			Status:       string(s.Status),
			VideoURL:     s.VideoURL,
			Caption:      s.Caption,
			Destinations: destinations,
			CreatedAt:    s.CreatedAt,
			UpdatedAt:    s.UpdatedAt,
		})
	}

	response.JSON(w, http.StatusOK, dto.UploadListResponse{Requests: out, LastKey: nextCursor})
}

// GetUpload handles GET /api/social/uploads/{id}: the full request tree,
// including each destination's log buffer.
func (h *Handlers) GetUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, apperr.Internal("missing user id in request context", nil))
		return
	}
	requestID := chi.URLParam(r, "id")

	req, err := h.query.Detail(r.Context(), userID, requestID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, toUploadDetail(req))
}

// GetUploadLogs handles GET /api/social/uploads/{id}/logs: the log buffer
// for every destination, or one destination via ?destination=.
func (h *Handlers) GetUploadLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, apperr.Internal("missing user id in request context", nil))
		return
	}
	requestID := chi.URLParam(r, "id")

	var destination *string
	if d := r.URL.Query().Get("destination"); d != "" {
		destination = &d
	}

	logs, err := h.query.Logs(r.Context(), userID, requestID, destination)
	if err != nil {
		response.Error(w, err)
		return
	}

	out := make(map[string][]dto.LogLine, len(logs))
	for dest, entries := range logs {
		out[dest] = toLogLines(entries)
	}

	response.JSON(w, http.StatusOK, dto.LogsResponse{Logs: out})
}

// ResubmitUpload handles POST /api/social/uploads/{id}/resubmit: reset a
// failed destination back to queued and re-enqueue it (spec §4.8's
// resubmit operation).
func (h *Handlers) ResubmitUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, apperr.Internal("missing user id in request context", nil))
		return
	}
	requestID := chi.URLParam(r, "id")

	var req dto.ResubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if err := middleware.ValidateStruct(&req); err != nil {
		response.BadRequest(w, middleware.FormatValidationErrors(err))
		return
	}

	if err := h.query.Resubmit(r.Context(), userID, requestID, req.Destination); err != nil {
		response.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toUploadDetail(req *upload.Request) dto.UploadDetailResponse {
	destinations := make(map[string]dto.DestinationDetail, len(req.Destinations))
	for dest, rec := range req.Destinations {
		result := make(map[string]string, len(rec.Result))
		for k, v := range rec.Result {
			result[k] = v
		}
		destinations[dest] = dto.DestinationDetail{
			Status:    string(rec.Status),
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
			Logs:      toLogLines(rec.Logs),
			Error:     rec.Error,
			Result:    result,
		}
	}

	return dto.UploadDetailResponse{
		RequestID:    req.RequestID,
		UserID:       req.UserID,
		Status:       string(req.Status),
		VideoURL:     req.VideoURL,
		Caption:      req.Caption,
		Destinations: destinations,
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
}

func toLogLines(entries []upload.LogEntry) []dto.LogLine {
	lines := make([]dto.LogLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, dto.LogLine{Timestamp: e.Timestamp, Level: string(e.Level), Message: e.Message})
	}
	return lines
}
