package events

import (
	"context"
	"encoding/json"
	"time"
)

type Kind string

const (
	TransactionCreated Kind = "transaction.created"
	TransactionUpdated Kind = "transaction.updated"
	TransactionDeleted Kind = "transaction.deleted"
)

// TransactionEvent announces a committed change to a user's transactions.
type TransactionEvent struct {
	Kind          Kind      `json:"kind"`
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewTransactionEvent(kind Kind, txID, userID int64) TransactionEvent {
	return TransactionEvent{
		Kind:          kind,
		TransactionID: txID,
		UserID:        userID,
		OccurredAt:    time.Now().UTC(),
	}
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers transaction events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, TransactionEvent) error { return nil }
func (Nop) Close() error                                    { return nil }
