package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/techshop/checkout/internal/checkout/app"
	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// Handler exposes HTTP endpoints for cart, coupon, checkout, and order
// operations. The session key arrives in the X-Session-ID header; session
// mechanics themselves live outside this service.
type Handler struct {
	service *app.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Register binds the handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/cart", h.handleCart)
	mux.HandleFunc("/v1/cart/items", h.handleCartItems)
	mux.HandleFunc("/v1/cart/items/", h.handleCartItemByID)
	mux.HandleFunc("/v1/cart/coupon", h.handleCoupon)
	mux.HandleFunc("/v1/checkout", h.handleCheckout)
	mux.HandleFunc("/v1/orders", h.handleOrders)
	mux.HandleFunc("/v1/orders/", h.handleOrderByID)
}

func sessionKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Session-ID"))
}

func (h *Handler) handleCart(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if key == "" {
		writeError(w, http.StatusBadRequest, "X-Session-ID header required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := h.service.ViewCart(r.Context(), key, r.URL.Query().Get("coupon"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cart": view})
	case http.MethodDelete:
		if err := h.service.ClearCart(r.Context(), key); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	key := sessionKey(r)
	if key == "" {
		writeError(w, http.StatusBadRequest, "X-Session-ID header required")
		return
	}

	var payload struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	cart, err := h.service.AddToCart(r.Context(), key, payload.ProductID, payload.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

func (h *Handler) handleCartItemByID(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if key == "" {
		writeError(w, http.StatusBadRequest, "X-Session-ID header required")
		return
	}

	trimmed := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/cart/items/"), "/")
	productID, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "cart item not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var payload struct {
			Quantity int `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		cart, err := h.service.UpdateCartLine(r.Context(), key, productID, payload.Quantity)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
	case http.MethodDelete:
		cart, err := h.service.RemoveFromCart(r.Context(), key, productID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	key := sessionKey(r)
	if key == "" {
		writeError(w, http.StatusBadRequest, "X-Session-ID header required")
		return
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	view, err := h.service.ApplyCoupon(r.Context(), key, payload.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cart": view})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	key := sessionKey(r)
	if key == "" {
		writeError(w, http.StatusBadRequest, "X-Session-ID header required")
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey == "" {
		writeError(w, http.StatusBadRequest, "Idempotency-Key header required")
		return
	}

	if stored, err := h.service.GetIdempotentResponse(ctx, idemKey); err != nil {
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	} else if stored != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stored.StatusCode)
		_, _ = w.Write(stored.Body)
		return
	}

	var payload app.PlaceOrderInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	order, err := h.service.PlaceOrder(ctx, key, payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := map[string]any{"order": order}
	body, err := json.Marshal(response)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	stored := ports.StoredResponse{
		StatusCode: http.StatusCreated,
		Body:       body,
		OrderCode:  order.Code,
	}
	if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter := ports.ListFilter{}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		if id, err := strconv.Atoi(statusParam); err == nil {
			status := domain.OrderStatus(id)
			filter.Status = &status
		}
	}

	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		if page, err := strconv.Atoi(pageParam); err == nil {
			filter.Page = page
		}
	}

	if pageSizeParam := r.URL.Query().Get("page_size"); pageSizeParam != "" {
		if pageSize, err := strconv.Atoi(pageSizeParam); err == nil {
			filter.PageSize = pageSize
		}
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
	if trimmed == "" {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if strings.HasSuffix(trimmed, "/cancel") {
		id := strings.TrimSuffix(strings.TrimSuffix(trimmed, "/cancel"), "/")
		id = strings.TrimSuffix(id, "/")
		if id == "" {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.cancelOrder(w, r, id)
		return
	}

	if strings.HasSuffix(trimmed, "/status") {
		id := strings.TrimSuffix(strings.TrimSuffix(trimmed, "/status"), "/")
		id = strings.TrimSuffix(id, "/")
		if id == "" {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.advanceStatus(w, r, id)
		return
	}

	id := strings.TrimSuffix(trimmed, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.getOrder(w, r, id)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, id string) {
	result, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, id string) {
	var payload struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	order, err := h.service.CancelOrder(r.Context(), id, payload.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) advanceStatus(w http.ResponseWriter, r *http.Request, id string) {
	var payload struct {
		Status int `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	order, err := h.service.AdvanceOrderStatus(r.Context(), id, domain.OrderStatus(payload.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// writeDomainError maps the typed error taxonomy onto HTTP statuses.
// Business-rule rejections surface with a machine-readable code; anything
// unexpected is a generic 500 so persistence details never leak.
func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	var minErr *domain.BelowMinimumOrderError
	var valErr *domain.ValidationError
	var cancelErr *domain.NotCancellableError

	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "insufficient_stock",
			"details": map[string]any{
				"product_id": stockErr.ProductID,
				"available":  stockErr.Available,
				"requested":  stockErr.Requested,
			},
		})
	case errors.Is(err, domain.ErrCouponNotFound):
		writeErrorCode(w, http.StatusUnprocessableEntity, "coupon_not_found")
	case errors.Is(err, domain.ErrCouponExpired):
		writeErrorCode(w, http.StatusUnprocessableEntity, "coupon_expired")
	case errors.Is(err, domain.ErrCouponExhausted):
		writeErrorCode(w, http.StatusUnprocessableEntity, "coupon_exhausted")
	case errors.As(err, &minErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": "below_minimum_order",
			"details": map[string]any{
				"min_required": minErr.MinRequired,
			},
		})
	case errors.Is(err, domain.ErrEmptyCart):
		writeErrorCode(w, http.StatusUnprocessableEntity, "empty_cart")
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "validation_error",
			"details": map[string]any{
				"field":  valErr.Field,
				"reason": valErr.Reason,
			},
		})
	case errors.As(err, &cancelErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "not_cancellable",
			"details": map[string]any{
				"status": cancelErr.Status.String(),
			},
		})
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, ports.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, ports.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid status transition")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeErrorCode(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}
