package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/subtrackhq/subtrack-backend/internal/modules/auth"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
	"github.com/subtrackhq/subtrack-backend/internal/modules/subscription"
	"github.com/subtrackhq/subtrack-backend/internal/modules/user"
)

// Handler exposes the owner dashboard and the customer portal.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/dashboard/stats", h.stats) // GET /api/v1/dashboard/stats

	r.Route("/api/v1/portal", func(r chi.Router) {
		r.Get("/me", h.portalOverview)                // GET /api/v1/portal/me
		r.Get("/subscriptions", h.portalSubscriptions) // GET /api/v1/portal/subscriptions
		r.Get("/invoices", h.portalInvoices)           // GET /api/v1/portal/invoices
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if auth.UserMode(r.Context()) != string(user.ModeBusiness) {
		respond(w, http.StatusForbidden, map[string]string{"error": "business account required"})
		return
	}
	stats, err := h.service.Stats(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, stats)
}

func (h *Handler) portalOverview(w http.ResponseWriter, r *http.Request) {
	if !h.requirePortal(w, r) {
		return
	}
	overview, err := h.service.PortalOverview(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, overview)
}

func (h *Handler) portalSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !h.requirePortal(w, r) {
		return
	}
	subs, err := h.service.PortalSubscriptions(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if subs == nil {
		subs = []*subscription.Subscription{}
	}
	respond(w, http.StatusOK, subs)
}

func (h *Handler) portalInvoices(w http.ResponseWriter, r *http.Request) {
	if !h.requirePortal(w, r) {
		return
	}
	invoices, err := h.service.PortalInvoices(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if invoices == nil {
		invoices = []*invoice.Invoice{}
	}
	respond(w, http.StatusOK, invoices)
}

func (h *Handler) requirePortal(w http.ResponseWriter, r *http.Request) bool {
	if auth.UserMode(r.Context()) != string(user.ModePortal) {
		respond(w, http.StatusForbidden, map[string]string{"error": "portal account required"})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
