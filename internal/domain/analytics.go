package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period selects the aggregation window for analytics queries.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// PeriodFilter is the period/year/month triple accepted by the analytics views.
// Any period other than month or year leaves the date range unrestricted.
type PeriodFilter struct {
	Period Period
	Year   int
	Month  int
}

// DateRange is a half-open interval [Start, End). A zero range is unrestricted.
type DateRange struct {
	Start Date
	End   Date
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Range resolves the filter to the calendar month or year it names.
func (f PeriodFilter) Range() DateRange {
	switch f.Period {
	case PeriodMonth:
		start := NewDate(f.Year, time.Month(f.Month), 1)
		return DateRange{Start: start, End: Date{Time: start.AddDate(0, 1, 0)}}
	case PeriodYear:
		start := NewDate(f.Year, time.January, 1)
		return DateRange{Start: start, End: Date{Time: start.AddDate(1, 0, 0)}}
	}
	return DateRange{}
}

// YearRange covers a full calendar year.
func YearRange(year int) DateRange {
	return PeriodFilter{Period: PeriodYear, Year: year}.Range()
}

type DashboardSummary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
	Period        Period          `json:"period"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
}

type MonthlyTrend struct {
	Month    int             `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type CategoryAmount struct {
	Category string          `json:"category"`
	Type     TransactionType `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
}

type DailyComparison struct {
	Date     Date            `json:"date"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}
