package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

const (
	maxCategoryLen    = 50
	maxDescriptionLen = 255
)

// MaxAmount is the largest amount a single transaction may carry. Amounts are
// stored as int64 cents, and per-period sums must stay inside that range too.
var MaxAmount = decimal.New(99_999_999_999, -2)

var (
	ErrInvalidType        = errors.New("type must be income or expense")
	ErrEmptyCategory      = errors.New("category is required")
	ErrCategoryTooLong    = fmt.Errorf("category too long (max %d characters)", maxCategoryLen)
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrAmountTooLarge     = fmt.Errorf("amount must not exceed %s", MaxAmount.StringFixed(2))
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)
	ErrInvalidDate        = errors.New("date must be YYYY-MM-DD")
)

// ParseTransactionType accepts the two known transaction types, case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionIncome:
		return TransactionIncome, nil
	case TransactionExpense:
		return TransactionExpense, nil
	}
	return "", ErrInvalidType
}

// Transaction is a single income or expense entry owned by a user.
type Transaction struct {
	ID          int64
	UserID      int64
	Type        TransactionType
	Category    string
	Amount      decimal.Decimal
	Description string
	Date        Date
}

// Normalize trims free-text fields and rounds the amount to cents.
func (t *Transaction) Normalize() {
	if tt, err := ParseTransactionType(string(t.Type)); err == nil {
		t.Type = tt
	}
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	t.Amount = t.Amount.Round(2)
}

func (t Transaction) Validate() error {
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}
	category := strings.TrimSpace(t.Category)
	if category == "" {
		return ErrEmptyCategory
	}
	if len(category) > maxCategoryLen {
		return ErrCategoryTooLong
	}
	amount := t.Amount.Round(2)
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	description := strings.TrimSpace(t.Description)
	if description == "" {
		return ErrEmptyDescription
	}
	if len(description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AmountCents converts a decimal amount into integer cents, rounding half away from zero.
func AmountCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// AmountFromCents is the inverse of AmountCents.
func AmountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day, stored at UTC midnight.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps too; only the calendar part is kept.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	}
	return fmt.Errorf("scan date: unsupported type %T", src)
}

func (d *Date) scanText(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = parsed
	return nil
}
