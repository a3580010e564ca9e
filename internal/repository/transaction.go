package repository

import (
	"context"

	"finance-tracker/internal/domain"
)

// TransactionFilter narrows a transaction listing. Nil/zero fields are ignored.
// OwnerID is forced by the caller's access scope, never taken from the client.
type TransactionFilter struct {
	OwnerID   *int64
	Type      domain.TransactionType
	Category  string
	StartDate domain.Date // inclusive
	EndDate   domain.Date // inclusive
}

// TransactionRepository persists transactions. Update and Delete only touch rows
// owned by ownerID and return ErrNotFound when nothing matched.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
	Update(ctx context.Context, id, ownerID int64, tx *domain.Transaction) error
	Delete(ctx context.Context, id, ownerID int64) error
}

// TypeTotals carries income and expense sums in cents.
type TypeTotals struct {
	IncomeCents  int64
	ExpenseCents int64
}

type MonthTotals struct {
	Month int
	TypeTotals
}

type DayTotals struct {
	Date domain.Date
	TypeTotals
}

type CategoryTotal struct {
	Category    string
	Type        domain.TransactionType
	AmountCents int64
}

// AnalyticsRepository runs the aggregate queries behind the analytics views.
// A nil ownerID aggregates over every user; a zero range is unrestricted.
type AnalyticsRepository interface {
	Totals(ctx context.Context, ownerID *int64, r domain.DateRange) (TypeTotals, error)
	MonthlyTotals(ctx context.Context, ownerID *int64, year int) ([]MonthTotals, error)
	CategoryTotals(ctx context.Context, ownerID *int64, r domain.DateRange) ([]CategoryTotal, error)
	DailyTotals(ctx context.Context, ownerID *int64, r domain.DateRange) ([]DayTotals, error)
}
