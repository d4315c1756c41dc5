package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
)

func confirmFixture() (*Subscription, *invoice.Invoice) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	sub := &Subscription{
		ID:              uuid.New(),
		OwnerID:         uuid.New(),
		CustomerID:      uuid.New(),
		PlanID:          uuid.New(),
		Status:          StatusActive,
		StartDate:       now,
		ConfirmedAt:     &now,
		NextBillingDate: &next,
		GrandTotal:      110,
		Lines: []*Line{
			{ID: uuid.New(), UnitPriceSnapshot: 100, Quantity: 1, TaxPercent: 10, LineTotal: 110},
		},
	}
	inv := &invoice.Invoice{
		ID:             uuid.New(),
		OwnerID:        sub.OwnerID,
		InvoiceNumber:  "INV-20240601-test-123",
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		IssueDate:      now,
		DueDate:        now.AddDate(0, 0, 30),
		Status:         invoice.StatusPending,
		GrandTotal:     110,
		Lines: []*invoice.Line{
			{ID: uuid.New(), UnitPrice: 100, Quantity: 1, TaxPercent: 10, LineTotal: 110},
		},
	}
	return sub, inv
}

func TestConfirmCommitsAllWrites(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sub, inv := confirmFixture()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM subscriptions").
		WithArgs(sub.ID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectExec("UPDATE subscriptions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE subscription_lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO invoice_lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.Confirm(context.Background(), sub, inv))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRollsBackWhenStatusChanged(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sub, inv := confirmFixture()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM subscriptions").
		WithArgs(sub.ID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	mock.ExpectRollback()

	repo := NewPostgresRepository(db)
	err = repo.Confirm(context.Background(), sub, inv)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRollsBackOnInvoiceFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sub, inv := confirmFixture()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM subscriptions").
		WithArgs(sub.ID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectExec("UPDATE subscriptions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE subscription_lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO invoices").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := NewPostgresRepository(db)
	err = repo.Confirm(context.Background(), sub, inv)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewCommitsInvoiceAndBillingDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, inv := confirmFixture()
	subID := inv.SubscriptionID.String()
	next := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO invoice_lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE subscriptions").
		WithArgs(next, subID, StatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.Renew(context.Background(), subID, next, inv))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewRollsBackWhenSubscriptionNoLongerActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, inv := confirmFixture()
	subID := inv.SubscriptionID.String()
	next := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO invoice_lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE subscriptions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewPostgresRepository(db)
	err = repo.Renew(context.Background(), subID, next, inv)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelGuardsStatusInUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ownerID := uuid.NewString()
	subID := uuid.NewString()
	closedAt := time.Now().UTC()

	t.Run("active row cancels", func(t *testing.T) {
		mock.ExpectExec("UPDATE subscriptions").
			WithArgs(StatusCancelled, closedAt, subID, ownerID, StatusActive).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgresRepository(db)
		assert.NoError(t, repo.Cancel(context.Background(), ownerID, subID, closedAt))
	})

	t.Run("non-active row is rejected", func(t *testing.T) {
		mock.ExpectExec("UPDATE subscriptions").
			WithArgs(StatusCancelled, closedAt, subID, ownerID, StatusActive).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewPostgresRepository(db)
		err := repo.Cancel(context.Background(), ownerID, subID, closedAt)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDMapsMissingRowToNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewPostgresRepository(db)
	_, err = repo.GetByID(context.Background(), uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
