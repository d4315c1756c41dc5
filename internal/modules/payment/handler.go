package payment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/subtrackhq/subtrack-backend/internal/modules/auth"
)

// Handler exposes payment HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/", h.initiatePayment)       // POST /api/v1/payments
		r.Get("/", h.listPayments)           // GET  /api/v1/payments?invoice_id=...
		r.Get("/{id}", h.getPayment)         // GET  /api/v1/payments/{id}
		r.Post("/{id}/verify", h.verifyPayment) // POST /api/v1/payments/{id}/verify
	})
}

func (h *Handler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.Initiate(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, paymentErrCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	invoiceID := r.URL.Query().Get("invoice_id")
	if invoiceID == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invoice_id query parameter is required"})
		return
	}
	payments, err := h.service.ListByInvoice(r.Context(), auth.UserID(r.Context()), invoiceID)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if payments == nil {
		payments = []*Payment{}
	}
	respond(w, http.StatusOK, payments)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByID(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Verify(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, paymentErrCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func paymentErrCode(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "already paid"), strings.Contains(msg, "cannot pay"), strings.Contains(msg, "duplicate"):
		return http.StatusConflict
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must be"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
