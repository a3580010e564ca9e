// Package cache memoizes analytics results per access scope.
//
// Entries are grouped under a scope key (analytics:user:<id> or analytics:admin);
// each view/parameter combination is a field inside that scope, so invalidating
// a scope drops every cached view for it at once.
package cache

import (
	"context"
	"errors"
	"strconv"
)

const (
	// AdminScope holds aggregates computed over every user's transactions.
	AdminScope = "analytics:admin"

	userScopePrefix = "analytics:user:"
)

var (
	// ErrUnavailable is returned by backends that cannot reach their server.
	ErrUnavailable = errors.New("cache unavailable")
	// ErrStale is returned by Set when the scope was invalidated after the
	// generation the value was computed under. Nothing is stored.
	ErrStale = errors.New("cache generation superseded")
)

// UserScope returns the scope key for a single user's aggregates.
func UserScope(userID int64) string {
	return userScopePrefix + strconv.FormatInt(userID, 10)
}

// Store is a scope-keyed cache of serialized aggregates.
type Store interface {
	// Get returns the cached value for field within scope. A miss is (nil, false, nil).
	Get(ctx context.Context, scope, field string) ([]byte, bool, error)
	// Generation returns the scope's invalidation counter. Read it before
	// computing a value and pass it to Set.
	Generation(ctx context.Context, scope string) (uint64, error)
	// Set stores value only while the scope is still at generation gen;
	// otherwise it returns ErrStale.
	Set(ctx context.Context, scope, field string, value []byte, gen uint64) error
	// Invalidate drops every field stored under the given scopes and advances
	// their generations.
	Invalidate(ctx context.Context, scopes ...string) error
	Close() error
}

// Nop is a Store that never caches.
type Nop struct{}

func (Nop) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Generation(context.Context, string) (uint64, error)        { return 0, nil }
func (Nop) Set(context.Context, string, string, []byte, uint64) error { return nil }
func (Nop) Invalidate(context.Context, ...string) error               { return nil }
func (Nop) Close() error                                              { return nil }

var _ Store = Nop{}
