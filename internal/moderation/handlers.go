package moderation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pasar/internal/common"
)

var validate = validator.New()

// Handler wires the moderation queue to HTTP.
type Handler struct {
	Svc         *Service
	DefaultPage int
}

// Queue serves one page of pending moderation items.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "moderation service not configured", nil)
		return
	}
	criteria := ParseQueueCriteria(r.URL.Query())
	page := common.AtoiDefault(r.URL.Query().Get("page"), max(h.DefaultPage, 1))
	size := common.AtoiDefault(r.URL.Query().Get("limit"), 0)
	result, err := h.Svc.Queue(r.Context(), criteria, page, size)
	if err != nil {
		common.JSONError(w, common.HTTPStatusFor(err), "INTERNAL", "unable to list moderation queue", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": result.Items,
		"meta": map[string]any{
			"page":       result.PageNumber,
			"pageSize":   result.PageSize,
			"totalCount": result.TotalCount,
			"totalPages": result.TotalPages(),
		},
	})
}

type decideRequest struct {
	Decision string `json:"decision" validate:"required"`
	Note     string `json:"note"`
}

// Decide applies a moderator verdict to the target named in the route.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "moderation service not configured", nil)
		return
	}
	kind, ok := ParseTargetKind(chi.URLParam(r, "kind"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown target kind", nil)
		return
	}
	target := Target{Kind: kind, ID: chi.URLParam(r, "id")}

	var payload decideRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "decision is required", nil)
		return
	}
	decision, ok := ParseDecision(payload.Decision)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown decision", nil)
		return
	}

	actorID, _ := common.UserID(r.Context())
	if err := h.Svc.Decide(r.Context(), actorID, target, decision, payload.Note); err != nil {
		switch {
		case errors.Is(err, common.ErrValidation):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, common.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to apply decision", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"target":   target,
		"decision": decision,
	})
}
