package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"finance-tracker/internal/domain"
)

func sample() []domain.Transaction {
	return []domain.Transaction{
		{ID: 2, UserID: 1, Type: domain.TransactionExpense, Category: "Food", Amount: decimal.RequireFromString("50"), Description: "lunch, with friends", Date: domain.NewDate(2024, 1, 15)},
		{ID: 1, UserID: 1, Type: domain.TransactionIncome, Category: "Salary", Amount: decimal.RequireFromString("1000.5"), Description: "pay", Date: domain.NewDate(2024, 1, 1)},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "xlsx": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatal("expected error for pdf")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[1][1] != "2024-01-15" || records[1][4] != "50.00" || records[1][5] != "lunch, with friends" {
		t.Fatalf("unexpected row %v", records[1])
	}
	if records[2][4] != "1000.50" {
		t.Fatalf("amount = %q, want 1000.50", records[2][4])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatXLSX, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "ID" || rows[1][3] != "Food" {
		t.Fatalf("unexpected sheet contents %v", rows)
	}
}
