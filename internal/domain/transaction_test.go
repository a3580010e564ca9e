package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func validTransaction(t *testing.T, amount string) Transaction {
	t.Helper()
	date, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatal(err)
	}
	return Transaction{
		Type:        TransactionExpense,
		Category:    "food",
		Amount:      decimal.RequireFromString(amount),
		Description: "lunch",
		Date:        date,
	}
}

func TestValidateAmountBounds(t *testing.T) {
	tests := []struct {
		amount string
		want   error
	}{
		{"0.01", nil},
		{"999999999.99", nil},
		{"999999999.994", nil},
		{"999999999.995", ErrAmountTooLarge},
		{"1000000000", ErrAmountTooLarge},
		{"184467440737095516.17", ErrAmountTooLarge},
		{"0.004", ErrInvalidAmount},
		{"-1", ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := validTransaction(t, tt.amount).Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate(%s) = %v, want %v", tt.amount, err, tt.want)
			}
		})
	}
}

func TestAmountCentsRoundTripAtMax(t *testing.T) {
	cents := AmountCents(MaxAmount)
	if cents != 99_999_999_999 {
		t.Fatalf("AmountCents(max) = %d", cents)
	}
	if got := AmountFromCents(cents); !got.Equal(MaxAmount) {
		t.Fatalf("AmountFromCents(%d) = %s, want %s", cents, got, MaxAmount)
	}
}
