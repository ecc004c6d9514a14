package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"masjid-display-server/internal/domain"
	"masjid-display-server/internal/service"
	"masjid-display-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type PreviewHandler struct {
	service  *service.PreviewTokenService
	validate *validator.Validate
}

func NewPreviewHandler(service *service.PreviewTokenService) *PreviewHandler {
	return &PreviewHandler{
		service:  service,
		validate: validator.New(),
	}
}

// Issue handles POST /api/v1/displays/{displayId}/preview-token. The body
// is optional; without it the configured default TTL applies.
func (h *PreviewHandler) Issue(w http.ResponseWriter, r *http.Request) {
	displayID := mux.Vars(r)["displayId"]
	if displayID == "" {
		response.BadRequest(w, "Display ID is required")
		return
	}

	var req domain.IssuePreviewTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Issue(displayID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		response.InternalError(w, "Failed to issue preview token")
		return
	}

	response.Created(w, resp)
}

// Redeem handles GET /preview?token=...
func (h *PreviewHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.BadRequest(w, "token is required")
		return
	}

	resp, err := h.service.Redeem(token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPreviewToken) {
			response.Unauthorized(w, "Invalid or expired preview token")
			return
		}
		response.InternalError(w, "Failed to redeem preview token")
		return
	}

	response.Success(w, resp)
}

// Revoke handles DELETE /api/v1/preview-tokens/{id}.
func (h *PreviewHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "Token ID is required")
		return
	}

	if err := h.service.Revoke(id); err != nil {
		if errors.Is(err, service.ErrInvalidPreviewToken) {
			response.NotFound(w, "Preview token not found")
			return
		}
		response.InternalError(w, "Failed to revoke preview token")
		return
	}

	response.Message(w, http.StatusOK, "Preview token revoked")
}
