package sqldb

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
)

func TestTransactionRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db, SQLite{}).(*UserRepository)
	txs := NewTransactionRepository(db, SQLite{}).(*TransactionRepository)

	owner := createUser(t, users, "owner@example.com", domain.RoleUser)
	id := addTx(t, txs, owner, domain.TransactionExpense, "Food", "50.00", "2024-01-15")

	got, err := txs.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("50")) || got.Date.String() != "2024-01-15" || got.Type != domain.TransactionExpense {
		t.Fatalf("unexpected transaction %+v", got)
	}

	updated := &domain.Transaction{
		Type:        domain.TransactionIncome,
		Category:    "Salary",
		Amount:      decimal.RequireFromString("1000.5"),
		Description: "pay",
		Date:        domain.NewDate(2024, 2, 1),
	}
	if err := txs.Update(ctx, id, owner, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = txs.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Category != "Salary" || !got.Amount.Equal(decimal.RequireFromString("1000.50")) || got.Date.String() != "2024-02-01" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := txs.Delete(ctx, id, owner); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := txs.Get(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := txs.Delete(ctx, id, owner); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete should report ErrNotFound, got %v", err)
	}
}

func TestTransactionRepositoryOwnershipOnWrites(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db, SQLite{}).(*UserRepository)
	txs := NewTransactionRepository(db, SQLite{}).(*TransactionRepository)

	alice := createUser(t, users, "alice@example.com", domain.RoleUser)
	bob := createUser(t, users, "bob@example.com", domain.RoleUser)
	id := addTx(t, txs, alice, domain.TransactionExpense, "Rent", "900", "2024-03-01")

	err := txs.Update(ctx, id, bob, &domain.Transaction{
		Type: domain.TransactionIncome, Category: "Hack", Amount: decimal.NewFromInt(1),
		Description: "x", Date: domain.NewDate(2024, 3, 2),
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign update should be ErrNotFound, got %v", err)
	}
	if err := txs.Delete(ctx, id, bob); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign delete should be ErrNotFound, got %v", err)
	}

	got, err := txs.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Category != "Rent" || got.Type != domain.TransactionExpense {
		t.Fatalf("row was modified by non-owner: %+v", got)
	}
}

func TestTransactionRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db, SQLite{}).(*UserRepository)
	txs := NewTransactionRepository(db, SQLite{}).(*TransactionRepository)

	alice := createUser(t, users, "alice@example.com", domain.RoleUser)
	bob := createUser(t, users, "bob@example.com", domain.RoleUser)
	addTx(t, txs, alice, domain.TransactionExpense, "Food", "10", "2024-01-01")
	addTx(t, txs, alice, domain.TransactionExpense, "Food", "20", "2024-01-31")
	addTx(t, txs, alice, domain.TransactionIncome, "Salary", "100", "2024-02-01")
	addTx(t, txs, bob, domain.TransactionExpense, "Food", "30", "2024-01-15")

	cases := []struct {
		name   string
		filter repository.TransactionFilter
		want   int
	}{
		{"all users", repository.TransactionFilter{}, 4},
		{"owner only", repository.TransactionFilter{OwnerID: &alice}, 3},
		{"type", repository.TransactionFilter{OwnerID: &alice, Type: domain.TransactionExpense}, 2},
		{"category", repository.TransactionFilter{Category: "Food"}, 3},
		{"inclusive range", repository.TransactionFilter{
			OwnerID:   &alice,
			StartDate: domain.NewDate(2024, 1, 1),
			EndDate:   domain.NewDate(2024, 1, 31),
		}, 2},
		{"start only", repository.TransactionFilter{OwnerID: &alice, StartDate: domain.NewDate(2024, 2, 1)}, 1},
		{"injection attempt", repository.TransactionFilter{Category: "Food' OR '1'='1"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := txs.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d rows, want %d", len(got), tc.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Date.After(got[i-1].Date.Time) {
					t.Fatalf("rows not in date-descending order: %v before %v", got[i-1].Date, got[i].Date)
				}
			}
			if tc.filter.OwnerID != nil {
				for _, tx := range got {
					if tx.UserID != *tc.filter.OwnerID {
						t.Fatalf("row owned by %d leaked into scoped list", tx.UserID)
					}
				}
			}
		})
	}
}
