package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
)

const transactionColumns = `id, user_id, type, category, amount_cents, description, date`

type TransactionRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewTransactionRepository(db *sql.DB, dialect Dialect) repository.TransactionRepository {
	return &TransactionRepository{db: db, dialect: dialect}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
INSERT INTO transactions (user_id, type, category, amount_cents, description, date)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`),
		tx.UserID,
		string(tx.Type),
		tx.Category,
		domain.AmountCents(tx.Amount),
		tx.Description,
		tx.Date,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	tx.ID = id
	return id, nil
}

func (r *TransactionRepository) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
SELECT `+transactionColumns+`
FROM transactions
WHERE id = ?`),
		id,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", id, repository.ErrNotFound)
		}
		return nil, err
	}
	return tx, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	b := NewBuilder()
	if filter.OwnerID != nil {
		b.Eq("user_id", *filter.OwnerID)
	}
	if filter.Type != "" {
		b.Eq("type", string(filter.Type))
	}
	if filter.Category != "" {
		b.Eq("category", filter.Category)
	}
	if !filter.StartDate.IsZero() {
		b.Gte("date", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		b.Lte("date", filter.EndDate)
	}
	where, args := b.Clause()

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
SELECT `+transactionColumns+`
FROM transactions`+where+`
ORDER BY date DESC, id DESC`), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func (r *TransactionRepository) Update(ctx context.Context, id, ownerID int64, tx *domain.Transaction) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
UPDATE transactions
SET type = ?, category = ?, amount_cents = ?, description = ?, date = ?
WHERE id = ? AND user_id = ?`),
		string(tx.Type),
		tx.Category,
		domain.AmountCents(tx.Amount),
		tx.Description,
		tx.Date,
		id,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	tx.ID = id
	tx.UserID = ownerID
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
DELETE FROM transactions
WHERE id = ? AND user_id = ?`),
		id,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transaction rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("transaction: %w", repository.ErrNotFound)
	}
	return nil
}

func scanTransaction(scanner interface {
	Scan(dest ...any) error
}) (*domain.Transaction, error) {
	var (
		tx    domain.Transaction
		kind  string
		cents int64
	)
	if err := scanner.Scan(
		&tx.ID,
		&tx.UserID,
		&kind,
		&tx.Category,
		&cents,
		&tx.Description,
		&tx.Date,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Type = domain.TransactionType(kind)
	tx.Amount = domain.AmountFromCents(cents)
	return &tx, nil
}
