package subscription

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/subtrackhq/subtrack-backend/internal/modules/auth"
	"github.com/subtrackhq/subtrack-backend/internal/modules/plan"
)

// Handler exposes subscription HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/subscriptions", func(r chi.Router) {
		r.Post("/", h.createSubscription)              // POST  /api/v1/subscriptions
		r.Get("/", h.listSubscriptions)                // GET   /api/v1/subscriptions
		r.Post("/process-renewals", h.processRenewals) // POST  /api/v1/subscriptions/process-renewals
		r.Get("/{id}", h.getSubscription)              // GET   /api/v1/subscriptions/{id}
		r.Patch("/{id}/confirm", h.confirmSubscription) // PATCH /api/v1/subscriptions/{id}/confirm
		r.Patch("/{id}/cancel", h.cancelSubscription)   // PATCH /api/v1/subscriptions/{id}/cancel
	})
}

func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sub, err := h.service.Create(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, subscriptionErrCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, sub)
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if subs == nil {
		subs = []*Subscription{}
	}
	respond(w, http.StatusOK, subs)
}

func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Get(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, subscriptionErrCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, sub)
}

func (h *Handler) confirmSubscription(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Confirm(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, subscriptionErrCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, result)
}

func (h *Handler) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Cancel(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, subscriptionErrCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, sub)
}

func (h *Handler) processRenewals(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ProcessRenewals(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, summary)
}

// subscriptionErrCode maps the engine's sentinel errors to HTTP status
// codes. Anything unrecognized is a server-side failure.
func subscriptionErrCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, ErrEmptySubscription):
		return http.StatusUnprocessableEntity
	case errors.Is(err, plan.ErrInvalidBillingPeriod),
		errors.Is(err, ErrInvalidPercent),
		errors.Is(err, ErrInvalidQuantity):
		return http.StatusBadRequest
	case strings.Contains(err.Error(), "invalid"), strings.Contains(err.Error(), "required"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
