package catalog

import (
	"net/http"

	"github.com/noah-isme/backend-pasar/internal/common"
)

// Handler wires catalog services to HTTP.
type Handler struct {
	Svc *Service
}

// List serves the public product listing with filters and pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	params := h.Svc.ParseListParams(r.URL.Query())
	result, err := h.Svc.ListProducts(r.Context(), params)
	if err != nil {
		common.JSONError(w, common.HTTPStatusFor(err), "INTERNAL", "unable to list products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": result.Items,
		"meta": map[string]any{
			"page":  result.Page,
			"limit": result.Limit,
			"total": result.Total,
		},
	})
}
