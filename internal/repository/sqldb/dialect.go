package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect isolates the few SQL differences between the supported engines.
type Dialect interface {
	Name() string
	// Rebind rewrites ? placeholders into the engine's native form.
	Rebind(query string) string
	// MonthOf renders an integer month (1-12) expression for a date column.
	MonthOf(column string) string
	// DateText renders a YYYY-MM-DD text expression for a date column.
	DateText(column string) string
}

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// DialectFor resolves a dialect by name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DialectSQLite, "sqlite3", "":
		return SQLite{}, nil
	case DialectPostgres, "postgresql", "pgx":
		return Postgres{}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", name)
}

type SQLite struct{}

func (SQLite) Name() string               { return DialectSQLite }
func (SQLite) Rebind(query string) string { return query }

func (SQLite) MonthOf(column string) string {
	return "CAST(strftime('%m', " + column + ") AS INTEGER)"
}

func (SQLite) DateText(column string) string {
	return "substr(" + column + ", 1, 10)"
}

type Postgres struct{}

func (Postgres) Name() string { return DialectPostgres }

func (Postgres) Rebind(query string) string {
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (Postgres) MonthOf(column string) string {
	return "CAST(EXTRACT(MONTH FROM " + column + ") AS INTEGER)"
}

func (Postgres) DateText(column string) string {
	return "TO_CHAR(" + column + ", 'YYYY-MM-DD')"
}
