package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"finance-tracker/internal/cache"
	"finance-tracker/internal/domain"
	"finance-tracker/internal/events"
	"finance-tracker/internal/policy"
	"finance-tracker/internal/repository"
)

// ListFilter narrows a transaction listing. Zero values are ignored.
// Both dates are inclusive.
type ListFilter struct {
	Type      domain.TransactionType
	Category  string
	StartDate domain.Date
	EndDate   domain.Date
}

// TransactionService exposes the transaction store behind the access policy.
type TransactionService interface {
	Create(ctx context.Context, p policy.Principal, tx domain.Transaction) (*domain.Transaction, error)
	List(ctx context.Context, p policy.Principal, filter ListFilter) ([]domain.Transaction, error)
	Update(ctx context.Context, p policy.Principal, id int64, tx domain.Transaction) (*domain.Transaction, error)
	Delete(ctx context.Context, p policy.Principal, id int64) error
}

// TransactionOptions configures cache invalidation behaviour.
type TransactionOptions struct {
	InvalidateAdminOnAllWrites bool
}

type transactionService struct {
	txs        repository.TransactionRepository
	invalidate invalidator
	publisher  events.Publisher
	logger     *logrus.Entry
}

func NewTransactionService(
	txs repository.TransactionRepository,
	store cache.Store,
	publisher events.Publisher,
	opts TransactionOptions,
	logger *logrus.Logger,
) TransactionService {
	if logger == nil {
		logger = logrus.New()
	}
	if store == nil {
		store = cache.Nop{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	entry := logger.WithField("component", "transactions")
	return &transactionService{
		txs: txs,
		invalidate: invalidator{
			store:            store,
			adminOnAllWrites: opts.InvalidateAdminOnAllWrites,
			logger:           entry,
		},
		publisher: publisher,
		logger:    entry,
	}
}

func (s *transactionService) Create(ctx context.Context, p policy.Principal, tx domain.Transaction) (*domain.Transaction, error) {
	if !policy.CanMutate(p) {
		return nil, ErrForbidden
	}
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return nil, invalidErr(err)
	}
	tx.UserID = p.UserID

	id, err := s.txs.Create(ctx, &tx)
	if err != nil {
		return nil, err
	}
	tx.ID = id

	s.invalidate.afterWrite(ctx, p)
	s.publish(ctx, events.TransactionCreated, tx.ID, p.UserID)
	return &tx, nil
}

func (s *transactionService) List(ctx context.Context, p policy.Principal, filter ListFilter) ([]domain.Transaction, error) {
	if !policy.Allow(p, policy.ReadOwn) {
		return nil, ErrForbidden
	}
	if filter.Type != "" {
		tt, err := domain.ParseTransactionType(string(filter.Type))
		if err != nil {
			return nil, invalidErr(err)
		}
		filter.Type = tt
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.EndDate.Before(filter.StartDate.Time) {
		return nil, invalid("endDate must not be before startDate")
	}

	return s.txs.List(ctx, repository.TransactionFilter{
		OwnerID:   policy.ReadScope(p),
		Type:      filter.Type,
		Category:  filter.Category,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
	})
}

// Update replaces a transaction owned by the caller. Rows owned by anyone
// else, admins included, report ErrNotFound.
func (s *transactionService) Update(ctx context.Context, p policy.Principal, id int64, tx domain.Transaction) (*domain.Transaction, error) {
	if !policy.CanMutate(p) {
		return nil, ErrForbidden
	}
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return nil, invalidErr(err)
	}

	if err := s.txs.Update(ctx, id, p.UserID, &tx); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.invalidate.afterWrite(ctx, p)
	s.publish(ctx, events.TransactionUpdated, id, p.UserID)

	stored, err := s.txs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stored, nil
}

func (s *transactionService) Delete(ctx context.Context, p policy.Principal, id int64) error {
	if !policy.Allow(p, policy.Delete) {
		return ErrForbidden
	}
	if err := s.txs.Delete(ctx, id, p.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.invalidate.afterWrite(ctx, p)
	s.publish(ctx, events.TransactionDeleted, id, p.UserID)
	return nil
}

func (s *transactionService) publish(ctx context.Context, kind events.Kind, txID, userID int64) {
	ev := events.NewTransactionEvent(kind, txID, userID)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"kind":           kind,
			"transaction_id": txID,
		}).Warn("publish event failed")
	}
}
