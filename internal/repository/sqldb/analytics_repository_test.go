package sqldb

import (
	"context"
	"testing"

	"finance-tracker/internal/domain"
)

func TestAnalyticsRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db, SQLite{}).(*UserRepository)
	txs := NewTransactionRepository(db, SQLite{}).(*TransactionRepository)
	analytics := NewAnalyticsRepository(db, SQLite{})

	alice := createUser(t, users, "alice@example.com", domain.RoleUser)
	bob := createUser(t, users, "bob@example.com", domain.RoleUser)
	addTx(t, txs, alice, domain.TransactionIncome, "Salary", "1000", "2024-01-05")
	addTx(t, txs, alice, domain.TransactionExpense, "Food", "150.25", "2024-01-05")
	addTx(t, txs, alice, domain.TransactionExpense, "Rent", "400", "2024-01-20")
	addTx(t, txs, alice, domain.TransactionExpense, "Food", "10", "2024-03-02")
	addTx(t, txs, alice, domain.TransactionExpense, "Food", "99", "2023-12-31")
	addTx(t, txs, bob, domain.TransactionIncome, "Salary", "5000", "2024-01-10")

	jan := domain.PeriodFilter{Period: domain.PeriodMonth, Year: 2024, Month: 1}.Range()

	t.Run("totals scoped", func(t *testing.T) {
		totals, err := analytics.Totals(ctx, &alice, jan)
		if err != nil {
			t.Fatalf("totals: %v", err)
		}
		if totals.IncomeCents != 100000 || totals.ExpenseCents != 55025 {
			t.Fatalf("unexpected totals %+v", totals)
		}
	})

	t.Run("totals unscoped", func(t *testing.T) {
		totals, err := analytics.Totals(ctx, nil, jan)
		if err != nil {
			t.Fatalf("totals: %v", err)
		}
		if totals.IncomeCents != 600000 {
			t.Fatalf("admin income = %d, want 600000", totals.IncomeCents)
		}
	})

	t.Run("totals empty", func(t *testing.T) {
		totals, err := analytics.Totals(ctx, &alice, domain.PeriodFilter{Period: domain.PeriodMonth, Year: 2030, Month: 6}.Range())
		if err != nil {
			t.Fatalf("totals: %v", err)
		}
		if totals.IncomeCents != 0 || totals.ExpenseCents != 0 {
			t.Fatalf("expected zero totals, got %+v", totals)
		}
	})

	t.Run("monthly", func(t *testing.T) {
		months, err := analytics.MonthlyTotals(ctx, &alice, 2024)
		if err != nil {
			t.Fatalf("monthly: %v", err)
		}
		if len(months) != 2 || months[0].Month != 1 || months[1].Month != 3 {
			t.Fatalf("unexpected months %+v", months)
		}
		if months[0].ExpenseCents != 55025 || months[1].ExpenseCents != 1000 {
			t.Fatalf("unexpected month sums %+v", months)
		}
	})

	t.Run("categories", func(t *testing.T) {
		cats, err := analytics.CategoryTotals(ctx, &alice, jan)
		if err != nil {
			t.Fatalf("categories: %v", err)
		}
		if len(cats) != 3 {
			t.Fatalf("expected 3 groups, got %+v", cats)
		}
		for i := 1; i < len(cats); i++ {
			if cats[i].AmountCents > cats[i-1].AmountCents {
				t.Fatalf("categories not sorted desc: %+v", cats)
			}
		}
		if cats[0].Category != "Salary" || cats[0].Type != domain.TransactionIncome {
			t.Fatalf("unexpected top category %+v", cats[0])
		}
	})

	t.Run("daily", func(t *testing.T) {
		days, err := analytics.DailyTotals(ctx, &alice, jan)
		if err != nil {
			t.Fatalf("daily: %v", err)
		}
		if len(days) != 2 {
			t.Fatalf("expected 2 days (no zero fill), got %+v", days)
		}
		if days[0].Date.String() != "2024-01-05" || days[1].Date.String() != "2024-01-20" {
			t.Fatalf("unexpected day order %+v", days)
		}
		if days[0].IncomeCents != 100000 || days[0].ExpenseCents != 15025 {
			t.Fatalf("unexpected day sums %+v", days[0])
		}
	})
}
