package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/obs"
)

var validate = validator.New()

// SessionCookie is the cookie carrying the cart session identifier.
const SessionCookie = "pasar_session"

// SessionHeader lets API clients pass the session identifier explicitly.
const SessionHeader = "X-Session-ID"

// SessionMiddleware resolves the cart session from header or cookie, minting
// a fresh identifier when none is present, and stores it on the context.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(SessionHeader))
		if sid == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				sid = strings.TrimSpace(c.Value)
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, sid)
		next.ServeHTTP(w, r.WithContext(common.WithSessionID(r.Context(), sid)))
	})
}

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc *Service
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return "", false
	}
	sid, ok := common.SessionID(r.Context())
	if !ok || sid == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart session required", nil)
		return "", false
	}
	return sid, true
}

// Get returns the cart with live prices and a recomputed summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Get(r.Context(), sid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

type addItemRequest struct {
	ProductID  string            `json:"productId" validate:"required"`
	Attributes map[string]string `json:"attributes"`
	Qty        int               `json:"qty" validate:"gte=0"`
}

// AddItem adds or increments a cart line, clamping to available stock.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	result, err := h.Svc.AddItem(r.Context(), sid, payload.ProductID, payload.Attributes, payload.Qty)
	if err != nil {
		obs.Count(obs.CartMutationTotal, "add", "error")
		h.writeError(w, err)
		return
	}
	obs.Count(obs.CartMutationTotal, "add", mutationResult(result.Adjusted))
	common.JSONData(w, http.StatusOK, result)
}

type updateQtyRequest struct {
	ProductID  string            `json:"productId" validate:"required"`
	Attributes map[string]string `json:"attributes"`
	Qty        int               `json:"qty" validate:"gte=0"`
}

// UpdateItem sets a line quantity. Quantity zero removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload updateQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	result, err := h.Svc.UpdateQty(r.Context(), sid, payload.ProductID, payload.Attributes, payload.Qty)
	if err != nil {
		obs.Count(obs.CartMutationTotal, "update", "error")
		h.writeError(w, err)
		return
	}
	obs.Count(obs.CartMutationTotal, "update", mutationResult(result.Adjusted))
	common.JSONData(w, http.StatusOK, result)
}

type removeItemRequest struct {
	ProductID  string            `json:"productId" validate:"required"`
	Attributes map[string]string `json:"attributes"`
}

// RemoveItem deletes a line. Absent lines are reported, not errored.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload removeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	result, err := h.Svc.Remove(r.Context(), sid, payload.ProductID, payload.Attributes)
	if err != nil {
		obs.Count(obs.CartMutationTotal, "remove", "error")
		h.writeError(w, err)
		return
	}
	obs.Count(obs.CartMutationTotal, "remove", "ok")
	common.JSONData(w, http.StatusOK, result)
}

// ApplyPromo validates and attaches a promo code to the cart.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Svc.ApplyPromo(r.Context(), sid, payload.Code)
	if err != nil {
		obs.Count(obs.PromoApplyTotal, "error")
		h.writeError(w, err)
		return
	}
	switch {
	case result.AlreadyApplied:
		obs.Count(obs.PromoApplyTotal, "already_applied")
	case result.Success:
		obs.Count(obs.PromoApplyTotal, "applied")
	default:
		obs.Count(obs.PromoApplyTotal, "rejected")
	}
	common.JSONData(w, http.StatusOK, result)
}

// ClearPromo removes the active promo code, if any.
func (h *Handler) ClearPromo(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	summary, err := h.Svc.ClearPromo(r.Context(), sid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	obs.Count(obs.PromoApplyTotal, "cleared")
	common.JSONData(w, http.StatusOK, map[string]any{"summary": summary})
}

// Merge folds the current guest session cart into the authenticated user's
// cart. The user identity arrives via common.TrustedUserMiddleware from the
// gateway-forwarded header; unauthenticated requests are rejected.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	userID, authed := common.UserID(r.Context())
	if !authed || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	view, err := h.Svc.Merge(r.Context(), sid, "user:"+userID)
	if err != nil {
		obs.Count(obs.CartMutationTotal, "merge", "error")
		h.writeError(w, err)
		return
	}
	obs.Count(obs.CartMutationTotal, "merge", "ok")
	common.JSONData(w, http.StatusOK, view)
}

func mutationResult(adjusted bool) string {
	if adjusted {
		return "adjusted"
	}
	return "ok"
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrOutOfStock):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", err.Error(), nil)
	case errors.Is(err, common.ErrTransient):
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "temporarily unavailable", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
