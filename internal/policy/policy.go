// Package policy decides which operations a principal may perform.
//
// Decisions are pure: no store access and no side effects. A denied decision is
// an ordinary outcome that callers translate into a 403 or 404 response.
package policy

import "finance-tracker/internal/domain"

// Principal is the authenticated identity behind a request.
type Principal struct {
	UserID int64
	Role   domain.Role
}

type Operation int

const (
	ReadOwn Operation = iota
	ReadAll
	Write
	Delete
)

func (o Operation) String() string {
	switch o {
	case ReadOwn:
		return "read-own"
	case ReadAll:
		return "read-all"
	case Write:
		return "write"
	case Delete:
		return "delete"
	}
	return "unknown"
}

var decisions = map[domain.Role]map[Operation]bool{
	domain.RoleAdmin: {
		ReadOwn: true,
		ReadAll: true,
		Write:   true,
		Delete:  true,
	},
	domain.RoleUser: {
		ReadOwn: true,
		Write:   true,
		Delete:  true,
	},
	domain.RoleReadOnly: {
		ReadOwn: true,
	},
}

// Allow reports whether p may perform op. Unknown roles are denied everything.
func Allow(p Principal, op Operation) bool {
	return decisions[p.Role][op]
}

// HasRole reports whether actual satisfies any of required. Admin satisfies every requirement.
func HasRole(actual domain.Role, required ...domain.Role) bool {
	if actual == domain.RoleAdmin {
		return true
	}
	for _, r := range required {
		if actual == r {
			return true
		}
	}
	return false
}

// CanMutate reports whether p may create, update or delete transactions.
func CanMutate(p Principal) bool {
	return HasRole(p.Role, domain.RoleAdmin, domain.RoleUser) && Allow(p, Write)
}

// ReadScope returns the owner filter forced onto every read issued by p.
// A nil result means the read is unrestricted.
func ReadScope(p Principal) *int64 {
	if Allow(p, ReadAll) {
		return nil
	}
	id := p.UserID
	return &id
}

// IsAdmin reports whether p holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}
