package store

import (
	"context"
	"testing"

	"github.com/erazemk/biblioteca/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetSetting(ctx, database, SettingLoanDays)
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Fatalf("expected empty value for unset key, got %q", v)
	}

	SetSetting(ctx, database, SettingLoanDays, "7")
	SetSetting(ctx, database, SettingLoanDays, "14")

	v, _ = GetSetting(ctx, database, SettingLoanDays)
	if v != "14" {
		t.Errorf("expected 14, got %q", v)
	}
}
