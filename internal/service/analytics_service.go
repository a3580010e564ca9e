package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"finance-tracker/internal/cache"
	"finance-tracker/internal/domain"
	"finance-tracker/internal/policy"
	"finance-tracker/internal/repository"
)

const monthsPerYear = 12

// AnalyticsService computes role-scoped aggregates over the transaction store.
// Admins see every user's rows; everyone else sees their own.
type AnalyticsService interface {
	Dashboard(ctx context.Context, p policy.Principal, f domain.PeriodFilter) (*domain.DashboardSummary, error)
	MonthlyTrends(ctx context.Context, p policy.Principal, year int) ([]domain.MonthlyTrend, error)
	CategoryBreakdown(ctx context.Context, p policy.Principal, f domain.PeriodFilter) ([]domain.CategoryAmount, error)
	IncomeVsExpense(ctx context.Context, p policy.Principal, f domain.PeriodFilter) ([]domain.DailyComparison, error)
}

type analyticsService struct {
	repo   repository.AnalyticsRepository
	store  cache.Store
	group  singleflight.Group
	now    func() time.Time
	logger *logrus.Entry
}

func NewAnalyticsService(repo repository.AnalyticsRepository, store cache.Store, logger *logrus.Logger) AnalyticsService {
	if logger == nil {
		logger = logrus.New()
	}
	if store == nil {
		store = cache.Nop{}
	}
	return &analyticsService{
		repo:   repo,
		store:  store,
		now:    time.Now,
		logger: logger.WithField("component", "analytics"),
	}
}

// Defaults fills in a missing period, year and month from the current date.
func Defaults(f domain.PeriodFilter, now time.Time) domain.PeriodFilter {
	if f.Period == "" {
		f.Period = domain.PeriodMonth
	}
	if f.Year == 0 {
		f.Year = now.Year()
	}
	if f.Month == 0 {
		f.Month = int(now.Month())
	}
	return f
}

func validateFilter(f domain.PeriodFilter) error {
	if f.Year < 1 || f.Year > 9999 {
		return invalid("year must be between 1 and 9999")
	}
	if f.Month < 1 || f.Month > monthsPerYear {
		return invalid("month must be between 1 and 12")
	}
	return nil
}

func (s *analyticsService) Dashboard(ctx context.Context, p policy.Principal, f domain.PeriodFilter) (*domain.DashboardSummary, error) {
	if !policy.Allow(p, policy.ReadOwn) {
		return nil, ErrForbidden
	}
	f = Defaults(f, s.now())
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	r := f.Range()

	totals, err := readThrough(ctx, s, p, "dashboard:"+rangeKey(r), func(ctx context.Context) (repository.TypeTotals, error) {
		return s.repo.Totals(ctx, policy.ReadScope(p), r)
	})
	if err != nil {
		return nil, err
	}

	income := domain.AmountFromCents(totals.IncomeCents)
	expenses := domain.AmountFromCents(totals.ExpenseCents)
	return &domain.DashboardSummary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetIncome:     income.Sub(expenses),
		Period:        f.Period,
		Year:          f.Year,
		Month:         f.Month,
	}, nil
}

func (s *analyticsService) MonthlyTrends(ctx context.Context, p policy.Principal, year int) ([]domain.MonthlyTrend, error) {
	if !policy.Allow(p, policy.ReadOwn) {
		return nil, ErrForbidden
	}
	if year == 0 {
		year = s.now().Year()
	}
	if err := validateFilter(domain.PeriodFilter{Year: year, Month: 1}); err != nil {
		return nil, err
	}

	return readThrough(ctx, s, p, fmt.Sprintf("monthly-trends:%04d", year), func(ctx context.Context) ([]domain.MonthlyTrend, error) {
		rows, err := s.repo.MonthlyTotals(ctx, policy.ReadScope(p), year)
		if err != nil {
			return nil, err
		}
		return fillMonths(rows), nil
	})
}

// fillMonths expands sparse per-month rows into exactly twelve entries.
func fillMonths(rows []repository.MonthTotals) []domain.MonthlyTrend {
	byMonth := make(map[int]repository.TypeTotals, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row.TypeTotals
	}
	trends := make([]domain.MonthlyTrend, 0, monthsPerYear)
	for m := 1; m <= monthsPerYear; m++ {
		t := byMonth[m]
		trends = append(trends, domain.MonthlyTrend{
			Month:    m,
			Income:   domain.AmountFromCents(t.IncomeCents),
			Expenses: domain.AmountFromCents(t.ExpenseCents),
		})
	}
	return trends
}

func (s *analyticsService) CategoryBreakdown(ctx context.Context, p policy.Principal, f domain.PeriodFilter) ([]domain.CategoryAmount, error) {
	if !policy.Allow(p, policy.ReadOwn) {
		return nil, ErrForbidden
	}
	f = Defaults(f, s.now())
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	r := f.Range()

	return readThrough(ctx, s, p, "category-breakdown:"+rangeKey(r), func(ctx context.Context) ([]domain.CategoryAmount, error) {
		rows, err := s.repo.CategoryTotals(ctx, policy.ReadScope(p), r)
		if err != nil {
			return nil, err
		}
		out := make([]domain.CategoryAmount, 0, len(rows))
		for _, row := range rows {
			out = append(out, domain.CategoryAmount{
				Category: row.Category,
				Type:     row.Type,
				Amount:   domain.AmountFromCents(row.AmountCents),
			})
		}
		return out, nil
	})
}

func (s *analyticsService) IncomeVsExpense(ctx context.Context, p policy.Principal, f domain.PeriodFilter) ([]domain.DailyComparison, error) {
	if !policy.Allow(p, policy.ReadOwn) {
		return nil, ErrForbidden
	}
	f = Defaults(f, s.now())
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	r := f.Range()

	return readThrough(ctx, s, p, "income-vs-expense:"+rangeKey(r), func(ctx context.Context) ([]domain.DailyComparison, error) {
		rows, err := s.repo.DailyTotals(ctx, policy.ReadScope(p), r)
		if err != nil {
			return nil, err
		}
		out := make([]domain.DailyComparison, 0, len(rows))
		for _, row := range rows {
			out = append(out, domain.DailyComparison{
				Date:     row.Date,
				Income:   domain.AmountFromCents(row.IncomeCents),
				Expenses: domain.AmountFromCents(row.ExpenseCents),
			})
		}
		return out, nil
	})
}

func rangeKey(r domain.DateRange) string {
	if r.IsZero() {
		return "all"
	}
	return r.Start.String() + ".." + r.End.String()
}

// readThrough serves field from the caller's cache scope, computing and
// storing it on a miss. Concurrent misses for the same key share one
// computation. Cache failures are logged and otherwise ignored.
func readThrough[T any](ctx context.Context, s *analyticsService, p policy.Principal, field string, compute func(context.Context) (T, error)) (T, error) {
	scope := scopeFor(p)
	log := s.logger.WithFields(logrus.Fields{"scope": scope, "field": field})

	// The generation is read before the lookup so that anything computed from
	// here on is stored only if no write has invalidated the scope since.
	gen, err := s.store.Generation(ctx, scope)
	if err != nil {
		log.WithError(err).Warn("cache generation read failed")
		return compute(ctx)
	}

	raw, ok, err := s.store.Get(ctx, scope, field)
	switch {
	case err != nil:
		log.WithError(err).Warn("cache read failed")
	case ok:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.Warn("discarding undecodable cache entry")
	}

	v, err, _ := s.group.Do(fmt.Sprintf("%s|%d|%s", scope, gen, field), func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		res, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(res)
		if err != nil {
			log.WithError(err).Warn("encode cache entry failed")
			return res, nil
		}
		switch err := s.store.Set(ctx, scope, field, payload, gen); {
		case errors.Is(err, cache.ErrStale):
			log.Debug("scope invalidated while computing, result not cached")
		case err != nil:
			log.WithError(err).Warn("cache write failed")
		}
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
