package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"finance-tracker/internal/cache"
	"finance-tracker/internal/policy"
)

// invalidator drops cached analytics after a successful write.
type invalidator struct {
	store            cache.Store
	adminOnAllWrites bool
	logger           *logrus.Entry
}

// scopes returns the cache scopes a write by p makes stale. The admin scope is
// only included for admin writers unless adminOnAllWrites is set.
func (i invalidator) scopes(p policy.Principal) []string {
	scopes := []string{cache.UserScope(p.UserID)}
	if p.IsAdmin() || i.adminOnAllWrites {
		scopes = append(scopes, cache.AdminScope)
	}
	return scopes
}

func (i invalidator) afterWrite(ctx context.Context, p policy.Principal) {
	if i.store == nil {
		return
	}
	scopes := i.scopes(p)
	if err := i.store.Invalidate(ctx, scopes...); err != nil {
		i.logger.WithError(err).WithField("scopes", scopes).Warn("cache invalidation failed")
	}
}

func scopeFor(p policy.Principal) string {
	if p.IsAdmin() {
		return cache.AdminScope
	}
	return cache.UserScope(p.UserID)
}
