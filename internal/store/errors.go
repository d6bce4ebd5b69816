package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrReferenced is returned when a row cannot be deleted because other rows
// still point at it.
var ErrReferenced = errors.New("row is still referenced")

// ErrInvalidReference is returned when an insert or update points at a row
// that does not exist.
var ErrInvalidReference = errors.New("referenced row does not exist")

// isForeignKeyViolation reports whether err is SQLite's
// "FOREIGN KEY constraint failed".
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// affected reports whether the statement touched at least one row.
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return n > 0, nil
}

// deleteRow hard-deletes a row by ID from a reference table.
func deleteRow(ctx context.Context, db sqlx.ExecerContext, table string, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return false, ErrReferenced
	}
	if err != nil {
		return false, fmt.Errorf("deleting from %s: %w", table, err)
	}
	return affected(result)
}
