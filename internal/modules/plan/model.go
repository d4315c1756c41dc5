package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidBillingPeriod is returned for any period outside the
// closed monthly/quarterly/yearly set. Fatal to the caller, never
// retried.
var ErrInvalidBillingPeriod = errors.New("invalid billing period")

// BillingPeriod is the recurrence unit governing invoice cadence.
type BillingPeriod string

const (
	PeriodMonthly   BillingPeriod = "monthly"
	PeriodQuarterly BillingPeriod = "quarterly"
	PeriodYearly    BillingPeriod = "yearly"
)

// Valid reports whether the period is one of the closed set.
func (p BillingPeriod) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

func (p BillingPeriod) months() int {
	switch p {
	case PeriodMonthly:
		return 1
	case PeriodQuarterly:
		return 3
	case PeriodYearly:
		return 12
	}
	return 0
}

// Advance returns the next billing date after d.
//
// The day of month is preserved; when the target month is shorter the
// date clamps to the last day of that month. The same rule covers
// leap days, so Feb 29 advanced yearly lands on Feb 28 of a non-leap
// year. Pure and total for any valid date; only an unknown period
// errors.
func (p BillingPeriod) Advance(d time.Time) (time.Time, error) {
	months := p.months()
	if months == 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBillingPeriod, string(p))
	}

	year, month, day := d.Date()
	// AddDate normalizes overflow (Jan 31 + 1 month = Mar 2/3), so the
	// target month is computed first and the day clamped to its length.
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, d.Location())
	if last := lastDayOfMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, d.Location()), nil
}

func lastDayOfMonth(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// Plan defines how a product is sold: recurrence, price and an
// optional validity window.
type Plan struct {
	ID          uuid.UUID     `json:"id"`
	OwnerID     uuid.UUID     `json:"owner_id"`
	ProductID   uuid.UUID     `json:"product_id"`
	Name        string        `json:"name"`
	Period      BillingPeriod `json:"billing_period"`
	Price       float64       `json:"price"`
	MinQuantity int           `json:"min_quantity"`
	AutoClose   bool          `json:"auto_close"`
	Pausable    bool          `json:"pausable"`
	Renewable   bool          `json:"renewable"`
	StartDate   *time.Time    `json:"start_date,omitempty"`
	EndDate     *time.Time    `json:"end_date,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CreatePlanRequest is the payload for creating a plan.
type CreatePlanRequest struct {
	ProductID   string     `json:"product_id"`
	Name        string     `json:"name"`
	Period      string     `json:"billing_period"`
	Price       float64    `json:"price"`
	MinQuantity int        `json:"min_quantity,omitempty"` // defaults to 1
	AutoClose   bool       `json:"auto_close,omitempty"`
	Pausable    bool       `json:"pausable,omitempty"`
	Renewable   *bool      `json:"renewable,omitempty"` // defaults to true
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}
