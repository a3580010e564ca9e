package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"finance-tracker/internal/cache"
	"finance-tracker/internal/domain"
	"finance-tracker/internal/events"
	"finance-tracker/internal/policy"
	"finance-tracker/internal/repository"
	"finance-tracker/internal/repository/migrations"
	"finance-tracker/internal/repository/sqldb"
	"finance-tracker/internal/repository/sqlite"
)

type testEnv struct {
	users     UserService
	txs       TransactionService
	analytics AnalyticsService
	store     cache.Store
	published *recordingPublisher
	logs      *test.Hook
}

type envOptions struct {
	store      cache.Store
	adminOnAll bool
	analytics  repository.AnalyticsRepository
	// wrapAnalytics decorates the SQL-backed analytics repository.
	wrapAnalytics func(repository.AnalyticsRepository) repository.AnalyticsRepository
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finance.db")
	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(sqldb.DialectSQLite, path); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	store := opts.store
	if store == nil {
		mem := cache.NewMemory(100, time.Minute, 0)
		t.Cleanup(func() { mem.Close() })
		store = mem
	}
	analyticsRepo := opts.analytics
	if analyticsRepo == nil {
		analyticsRepo = sqldb.NewAnalyticsRepository(db, sqldb.SQLite{})
		if opts.wrapAnalytics != nil {
			analyticsRepo = opts.wrapAnalytics(analyticsRepo)
		}
	}
	pub := &recordingPublisher{}

	return &testEnv{
		users: NewUserService(sqldb.NewUserRepository(db, sqldb.SQLite{}), bcrypt.MinCost, logger),
		txs: NewTransactionService(
			sqldb.NewTransactionRepository(db, sqldb.SQLite{}),
			store,
			pub,
			TransactionOptions{InvalidateAdminOnAllWrites: opts.adminOnAll},
			logger,
		),
		analytics: NewAnalyticsService(analyticsRepo, store, logger),
		store:     store,
		published: pub,
		logs:      hook,
	}
}

func (e *testEnv) register(t *testing.T, email string, role domain.Role) policy.Principal {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterInput{
		Name:     "User " + email,
		Email:    email,
		Password: "secret123",
		Role:     string(role),
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return policy.Principal{UserID: u.ID, Role: u.Role}
}

func (e *testEnv) add(t *testing.T, p policy.Principal, kind domain.TransactionType, category, amount, date string) *domain.Transaction {
	t.Helper()
	tx, err := e.txs.Create(context.Background(), p, newTx(t, kind, category, amount, date))
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func newTx(t *testing.T, kind domain.TransactionType, category, amount, date string) domain.Transaction {
	t.Helper()
	d, err := domain.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	return domain.Transaction{
		Type:        kind,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Description: category + " entry",
		Date:        d,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransactionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

// recordingStore wraps a cache.Store and remembers invalidated scopes.
type recordingStore struct {
	cache.Store
	mu          sync.Mutex
	invalidated []string
}

func (s *recordingStore) Invalidate(ctx context.Context, scopes ...string) error {
	s.mu.Lock()
	s.invalidated = append(s.invalidated, scopes...)
	s.mu.Unlock()
	return s.Store.Invalidate(ctx, scopes...)
}

func (s *recordingStore) reset() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.invalidated
	s.invalidated = nil
	return out
}

// brokenStore fails every call, as an unreachable cache server would.
type brokenStore struct{}

var errCacheDown = errors.New("cache down")

func (brokenStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, errCacheDown
}
func (brokenStore) Generation(context.Context, string) (uint64, error) {
	return 0, errCacheDown
}
func (brokenStore) Set(context.Context, string, string, []byte, uint64) error { return errCacheDown }
func (brokenStore) Invalidate(context.Context, ...string) error               { return errCacheDown }
func (brokenStore) Close() error                                              { return nil }
