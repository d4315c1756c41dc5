package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/subtrackhq/subtrack-backend/internal/modules/plan"
)

// stubService returns a fixed error from every lifecycle operation.
type stubService struct {
	Service
	err error
}

func (s *stubService) Confirm(ctx context.Context, ownerID, id string) (*ConfirmResult, error) {
	return nil, s.err
}

func TestSubscriptionErrCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("confirm: %w", ErrInvalidStateTransition), http.StatusConflict},
		{ErrEmptySubscription, http.StatusUnprocessableEntity},
		{plan.ErrInvalidBillingPeriod, http.StatusBadRequest},
		{ErrInvalidPercent, http.StatusBadRequest},
		{ErrInvalidQuantity, http.StatusBadRequest},
		{errors.New("invalid customer_id"), http.StatusBadRequest},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, subscriptionErrCode(tc.err), "error %v", tc.err)
	}
}

func TestConfirmEndpointSurfacesEngineErrors(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(&stubService{err: ErrEmptySubscription}).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/subscriptions/"+"00000000-0000-0000-0000-000000000001"+"/confirm", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "no lines")
}
