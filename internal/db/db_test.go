package db

import "testing"

func TestDSN(t *testing.T) {
	got := dsn("biblioteca.db")
	want := "biblioteca.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	if got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	database := NewTestDB(t)

	var on int
	if err := database.Get(&on, "PRAGMA foreign_keys"); err != nil {
		t.Fatal(err)
	}
	if on != 1 {
		t.Errorf("expected foreign_keys=1, got %d", on)
	}
}

func TestEnsureSchemaIsIdempotentAndSeeds(t *testing.T) {
	database := NewTestDB(t)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var n int
	if err := database.Get(&n, "SELECT COUNT(*) FROM reservation_statuses"); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 reservation statuses, got %d", n)
	}
	var pending string
	database.Get(&pending, "SELECT name FROM reservation_statuses WHERE id = 1")
	if pending != "Pendiente" {
		t.Errorf("expected status 1 to be Pendiente, got %q", pending)
	}
}
