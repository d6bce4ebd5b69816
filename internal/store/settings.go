package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Setting keys.
const (
	SettingJWTSecret = "jwt_secret"
	SettingLoanDays  = "default_loan_days"
)

// GetSetting returns the value stored under key, or "" if unset.
func GetSetting(ctx context.Context, db sqlx.QueryerContext, key string) (string, error) {
	var values []string
	if err := sqlx.SelectContext(ctx, db, &values, `SELECT value FROM settings WHERE key = ?`, key); err != nil {
		return "", fmt.Errorf("getting setting %s: %w", key, err)
	}
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

// SetSetting stores value under key, replacing any previous value.
func SetSetting(ctx context.Context, db sqlx.ExecerContext, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// GetJWTSecret returns the signing secret, generating and persisting one on
// first use. The INSERT OR IGNORE followed by a read keeps concurrent first
// starts on the same value.
func GetJWTSecret(ctx context.Context, db sqlx.ExtContext) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		SettingJWTSecret, hex.EncodeToString(buf),
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	var secret string
	if err := sqlx.GetContext(ctx, db, &secret, `SELECT value FROM settings WHERE key = ?`, SettingJWTSecret); err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}
	return secret, nil
}
