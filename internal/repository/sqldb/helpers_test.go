package sqldb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository/migrations"
	"finance-tracker/internal/repository/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(DialectSQLite, path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, repo *UserRepository, email string, role domain.Role) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), &domain.User{
		Name:         "user " + email,
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}

func addTx(t *testing.T, repo *TransactionRepository, owner int64, kind domain.TransactionType, category, amount, date string) int64 {
	t.Helper()
	d, err := domain.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date %s: %v", date, err)
	}
	id, err := repo.Create(context.Background(), &domain.Transaction{
		UserID:      owner,
		Type:        kind,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Description: category + " entry",
		Date:        d,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return id
}
