package sqldb

import (
	"reflect"
	"testing"
)

func TestBuilderEmpty(t *testing.T) {
	clause, args := NewBuilder().Clause()
	if clause != "" || args != nil {
		t.Fatalf("expected empty clause, got %q %v", clause, args)
	}
}

func TestBuilderComposesPredicates(t *testing.T) {
	clause, args := NewBuilder().
		Eq("user_id", int64(4)).
		Eq("type", "expense").
		Gte("date", "2024-01-01").
		Lt("date", "2024-02-01").
		Clause()

	want := " WHERE user_id = ? AND type = ? AND date >= ? AND date < ?"
	if clause != want {
		t.Fatalf("clause = %q, want %q", clause, want)
	}
	if !reflect.DeepEqual(args, []any{int64(4), "expense", "2024-01-01", "2024-02-01"}) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuilderKeepsHostileValuesOutOfSQL(t *testing.T) {
	hostile := "Food' OR '1'='1"
	clause, args := NewBuilder().Eq("category", hostile).Clause()
	if clause != " WHERE category = ?" {
		t.Fatalf("value leaked into clause: %q", clause)
	}
	if args[0] != hostile {
		t.Fatalf("arg = %v", args[0])
	}
}

func TestPostgresRebind(t *testing.T) {
	got := Postgres{}.Rebind("SELECT * FROM t WHERE a = ? AND b >= ? AND c < ?")
	want := "SELECT * FROM t WHERE a = $1 AND b >= $2 AND c < $3"
	if got != want {
		t.Fatalf("Rebind = %q, want %q", got, want)
	}
	if q := (SQLite{}).Rebind("a = ?"); q != "a = ?" {
		t.Fatalf("sqlite rebind changed query: %q", q)
	}
}

func TestDialectFor(t *testing.T) {
	for name, want := range map[string]string{
		"":           DialectSQLite,
		"sqlite":     DialectSQLite,
		"postgres":   DialectPostgres,
		"PostgreSQL": DialectPostgres,
		"pgx":        DialectPostgres,
	} {
		d, err := DialectFor(name)
		if err != nil {
			t.Fatalf("DialectFor(%q): %v", name, err)
		}
		if d.Name() != want {
			t.Fatalf("DialectFor(%q) = %s, want %s", name, d.Name(), want)
		}
	}
	if _, err := DialectFor("mysql"); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}
