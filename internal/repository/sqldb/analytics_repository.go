package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
)

const (
	incomeSum  = `CAST(COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0) AS BIGINT)`
	expenseSum = `CAST(COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0) AS BIGINT)`
)

type AnalyticsRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewAnalyticsRepository(db *sql.DB, dialect Dialect) repository.AnalyticsRepository {
	return &AnalyticsRepository{db: db, dialect: dialect}
}

// scope applies the owner restriction and the half-open date range.
func scope(ownerID *int64, r domain.DateRange) *Builder {
	b := NewBuilder()
	if ownerID != nil {
		b.Eq("user_id", *ownerID)
	}
	if !r.Start.IsZero() {
		b.Gte("date", r.Start)
	}
	if !r.End.IsZero() {
		b.Lt("date", r.End)
	}
	return b
}

func (r *AnalyticsRepository) Totals(ctx context.Context, ownerID *int64, dr domain.DateRange) (repository.TypeTotals, error) {
	where, args := scope(ownerID, dr).Clause()

	var totals repository.TypeTotals
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
SELECT `+incomeSum+`, `+expenseSum+`
FROM transactions`+where), args...).Scan(&totals.IncomeCents, &totals.ExpenseCents)
	if err != nil {
		return repository.TypeTotals{}, fmt.Errorf("query totals: %w", err)
	}
	return totals, nil
}

func (r *AnalyticsRepository) MonthlyTotals(ctx context.Context, ownerID *int64, year int) ([]repository.MonthTotals, error) {
	where, args := scope(ownerID, domain.YearRange(year)).Clause()

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
SELECT `+r.dialect.MonthOf("date")+` AS month, `+incomeSum+`, `+expenseSum+`
FROM transactions`+where+`
GROUP BY 1
ORDER BY 1`), args...)
	if err != nil {
		return nil, fmt.Errorf("query monthly totals: %w", err)
	}
	defer rows.Close()

	var out []repository.MonthTotals
	for rows.Next() {
		var m repository.MonthTotals
		if err := rows.Scan(&m.Month, &m.IncomeCents, &m.ExpenseCents); err != nil {
			return nil, fmt.Errorf("scan monthly totals: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) CategoryTotals(ctx context.Context, ownerID *int64, dr domain.DateRange) ([]repository.CategoryTotal, error) {
	where, args := scope(ownerID, dr).Clause()

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
SELECT category, type, CAST(SUM(amount_cents) AS BIGINT) AS amount
FROM transactions`+where+`
GROUP BY category, type
ORDER BY amount DESC, category ASC, type ASC`), args...)
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	var out []repository.CategoryTotal
	for rows.Next() {
		var (
			c    repository.CategoryTotal
			kind string
		)
		if err := rows.Scan(&c.Category, &kind, &c.AmountCents); err != nil {
			return nil, fmt.Errorf("scan category totals: %w", err)
		}
		c.Type = domain.TransactionType(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) DailyTotals(ctx context.Context, ownerID *int64, dr domain.DateRange) ([]repository.DayTotals, error) {
	where, args := scope(ownerID, dr).Clause()

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
SELECT `+r.dialect.DateText("date")+` AS day, `+incomeSum+`, `+expenseSum+`
FROM transactions`+where+`
GROUP BY 1
ORDER BY 1`), args...)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var out []repository.DayTotals
	for rows.Next() {
		var d repository.DayTotals
		if err := rows.Scan(&d.Date, &d.IncomeCents, &d.ExpenseCents); err != nil {
			return nil, fmt.Errorf("scan daily totals: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
