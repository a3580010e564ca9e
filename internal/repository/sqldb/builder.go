package sqldb

import "strings"

// Builder composes a WHERE clause from fixed predicate fragments and bound
// arguments. Column names come from code; values only ever travel as args.
type Builder struct {
	preds []string
	args  []any
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Where appends a predicate fragment containing one ? per arg.
func (b *Builder) Where(pred string, args ...any) *Builder {
	b.preds = append(b.preds, pred)
	b.args = append(b.args, args...)
	return b
}

func (b *Builder) Eq(column string, v any) *Builder  { return b.Where(column+" = ?", v) }
func (b *Builder) Gte(column string, v any) *Builder { return b.Where(column+" >= ?", v) }
func (b *Builder) Lte(column string, v any) *Builder { return b.Where(column+" <= ?", v) }
func (b *Builder) Lt(column string, v any) *Builder  { return b.Where(column+" < ?", v) }

// Clause returns " WHERE p1 AND p2 ..." (or "" when empty) and the bound args.
func (b *Builder) Clause() (string, []any) {
	if len(b.preds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(b.preds, " AND "), b.args
}
