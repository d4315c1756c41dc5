package invoice

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/subtrackhq/subtrack-backend/internal/modules/auth"
)

// Handler exposes invoice HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)                 // GET   /api/v1/invoices
		r.Get("/{id}", h.getInvoice)               // GET   /api/v1/invoices/{id}
		r.Patch("/{id}/status", h.updateStatus)    // PATCH /api/v1/invoices/{id}/status
		r.Post("/{id}/pay", h.markPaid)            // POST  /api/v1/invoices/{id}/pay
	})
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	var (
		invoices []*Invoice
		err      error
	)
	if subID := r.URL.Query().Get("subscription_id"); subID != "" {
		invoices, err = h.service.ListBySubscription(r.Context(), auth.UserID(r.Context()), subID)
	} else {
		invoices, err = h.service.ListInvoices(r.Context(), auth.UserID(r.Context()))
	}
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	respond(w, http.StatusOK, invoices)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "invoice not found"})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inv, err := h.service.UpdateStatus(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, invoiceErrCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inv, err := h.service.MarkPaid(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, invoiceErrCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, inv)
}

func invoiceErrCode(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "already paid"), strings.Contains(msg, "cannot pay"), strings.Contains(msg, "cannot change"):
		return http.StatusConflict
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "required"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
