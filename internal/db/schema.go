package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'librarian' CHECK (role IN ('admin', 'librarian')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS countries (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS editions (
    id          INTEGER PRIMARY KEY,
    number      TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS categories (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS loan_types (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reservation_statuses (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS books (
    id          INTEGER PRIMARY KEY,
    title       TEXT NOT NULL,
    author      TEXT NOT NULL DEFAULT '',
    isbn        TEXT NOT NULL DEFAULT '',
    category_id INTEGER REFERENCES categories(id),
    edition_id  INTEGER REFERENCES editions(id),
    country_id  INTEGER REFERENCES countries(id),
    cover       TEXT NOT NULL DEFAULT '',
    existences  INTEGER NOT NULL DEFAULT 0 CHECK (existences >= 0),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE TABLE IF NOT EXISTS teacher_loans (
    id                INTEGER PRIMARY KEY,
    personal_id       INTEGER NOT NULL,
    personal_name     TEXT NOT NULL DEFAULT '',
    role              TEXT NOT NULL DEFAULT '',
    email             TEXT NOT NULL,
    book_id           INTEGER NOT NULL REFERENCES books(id),
    loan_type_id      INTEGER NOT NULL REFERENCES loan_types(id),
    reservation_id    INTEGER NOT NULL REFERENCES reservation_statuses(id),
    registration_date DATETIME NOT NULL,
    end_date          DATETIME NOT NULL,
    active            BOOLEAN NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_teacher_loans_active ON teacher_loans(active);

CREATE TABLE IF NOT EXISTS loan_dates (
    id         INTEGER PRIMARY KEY,
    loan_id    INTEGER NOT NULL REFERENCES teacher_loans(id),
    start_date DATETIME NOT NULL,
    end_date   DATETIME NOT NULL,
    status     INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_loan_dates_loan ON loan_dates(loan_id);
`

// seeds inserts the fixed reference rows the loan workflow depends on.
// Reservation status 1 is the "pending" code every new loan starts with.
const seeds = `
INSERT OR IGNORE INTO loan_types (id, name) VALUES (1, 'Sala'), (2, 'Domicilio');
INSERT OR IGNORE INTO reservation_statuses (id, name) VALUES (1, 'Pendiente'), (2, 'Entregado'), (3, 'Cancelado');
`

// EnsureSchema creates all tables and indexes if they don't already exist
// and inserts the seed rows.
func EnsureSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if _, err := db.Exec(seeds); err != nil {
		return fmt.Errorf("seeding reference data: %w", err)
	}
	return nil
}
