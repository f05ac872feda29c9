package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/booking-market/internal/core/domain"
	"github.com/rl1809/booking-market/internal/core/service"
	"github.com/rl1809/booking-market/internal/metrics"
)

const signatureHeader = "Stripe-Signature"

type HTTPHandler struct {
	checkout   *service.CheckoutService
	settlement *service.SettlementService
	carts      *service.CartService
	orders     *service.OrderService
	metrics    *metrics.Metrics
}

func NewHTTPHandler(
	checkout *service.CheckoutService,
	settlement *service.SettlementService,
	carts *service.CartService,
	orders *service.OrderService,
	m *metrics.Metrics,
) *HTTPHandler {
	return &HTTPHandler{
		checkout:   checkout,
		settlement: settlement,
		carts:      carts,
		orders:     orders,
		metrics:    m,
	}
}

func (h *HTTPHandler) Register(r *chi.Mux) {
	r.Get("/health", h.healthCheck)
	r.Post("/api/checkout", h.doCheckout)
	r.Post("/api/webhooks/payment", h.paymentWebhook)
	r.Get("/api/cart", h.getCart)
	r.Put("/api/cart/items", h.addCartItem)
	r.Delete("/api/cart/items/{skuID}", h.removeCartItem)
	r.Get("/api/orders", h.listOrders)
	r.Post("/api/orders/{id}/status", h.transitionOrder)
}

type checkoutRequest struct {
	CustomerID string `json:"customer_id"`
}

type checkoutResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
}

func (h *HTTPHandler) doCheckout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.LatencyMS.WithLabelValues("checkout").Observe(float64(time.Since(start).Milliseconds()))
	}()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer_id is required")
		return
	}

	intent, err := h.checkout.Checkout(r.Context(), req.CustomerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			h.metrics.Checkouts.WithLabelValues("empty_cart").Inc()
			writeError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
		case errors.Is(err, service.ErrLockContention):
			h.metrics.Checkouts.WithLabelValues("contended").Inc()
			writeError(w, http.StatusConflict, "contended", "item is contended, try again")
		case errors.Is(err, service.ErrInsufficientStock):
			h.metrics.Checkouts.WithLabelValues("sold_out").Inc()
			writeError(w, http.StatusGone, "sold_out", "item is sold out")
		case errors.Is(err, service.ErrGatewayUnavailable):
			h.metrics.Checkouts.WithLabelValues("gateway_unavailable").Inc()
			writeError(w, http.StatusBadGateway, "gateway_unavailable", "payment gateway unavailable, try again")
		case errors.Is(err, service.ErrSKUNotFound):
			h.metrics.Checkouts.WithLabelValues("sku_not_found").Inc()
			writeError(w, http.StatusUnprocessableEntity, "sku_not_found", "a cart item no longer exists")
		default:
			h.metrics.Checkouts.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
		}
		return
	}

	h.metrics.Checkouts.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, checkoutResponse{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.AmountCents,
	})
}

func (h *HTTPHandler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.LatencyMS.WithLabelValues("webhook").Observe(float64(time.Since(start).Milliseconds()))
	}()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "cannot read body")
		return
	}

	err = h.settlement.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			h.metrics.Settlements.WithLabelValues("invalid_signature").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		case errors.Is(err, service.ErrUnknownIntent):
			h.metrics.Settlements.WithLabelValues("unknown_intent").Inc()
			writeError(w, http.StatusNotFound, "unknown_intent", "no reservation for this intent")
		default:
			// Non-2xx makes the gateway redeliver, which is what we
			// want for transient store failures.
			h.metrics.Settlements.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, "internal", "settlement failed")
		}
		return
	}

	h.metrics.Settlements.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type cartItemRequest struct {
	CustomerID string `json:"customer_id"`
	SKUID      string `json:"sku_id"`
	Quantity   int    `json:"quantity"`
}

func (h *HTTPHandler) getCart(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer query param is required")
		return
	}
	cart, err := h.carts.Get(r.Context(), customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.CustomerID == "" || req.SKUID == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing required fields")
		return
	}

	if err := h.carts.AddItem(r.Context(), req.CustomerID, req.SKUID, req.Quantity); err != nil {
		if errors.Is(err, service.ErrSKUNotFound) {
			writeError(w, http.StatusNotFound, "sku_not_found", "no such sku")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer")
	skuID := chi.URLParam(r, "skuID")
	if customerID == "" || skuID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer and sku are required")
		return
	}
	if err := h.carts.RemoveItem(r.Context(), customerID, skuID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer query param is required")
		return
	}
	orders, err := h.orders.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

type transitionRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *HTTPHandler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "id")

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}

	order, err := h.orders.Transition(r.Context(), externalID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "order_not_found", "no such order")
		case errors.Is(err, domain.ErrIllegalTransition):
			writeError(w, http.StatusUnprocessableEntity, "illegal_transition", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}
