package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

// LookupTable names one of the id/name reference tables.
type LookupTable string

// Lookup tables.
const (
	Categories          LookupTable = "categories"
	LoanTypes           LookupTable = "loan_types"
	ReservationStatuses LookupTable = "reservation_statuses"
)

// Valid reports whether t is a known lookup table. Table names are spliced
// into SQL, so anything else must be rejected.
func (t LookupTable) Valid() bool {
	switch t {
	case Categories, LoanTypes, ReservationStatuses:
		return true
	}
	return false
}

func (t LookupTable) check() error {
	if !t.Valid() {
		return fmt.Errorf("unknown lookup table %q", string(t))
	}
	return nil
}

// CreateLookup inserts a row into a lookup table.
func CreateLookup(ctx context.Context, db sqlx.ExtContext, t LookupTable, name string) (*model.Lookup, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	result, err := db.ExecContext(ctx, `INSERT INTO `+string(t)+` (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating %s row: %w", t, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting %s id: %w", t, err)
	}

	return GetLookup(ctx, db, t, id)
}

// GetLookup returns a lookup row by ID.
func GetLookup(ctx context.Context, db sqlx.QueryerContext, t LookupTable, id int64) (*model.Lookup, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	l := &model.Lookup{}
	err := sqlx.GetContext(ctx, db, l, `SELECT id, name FROM `+string(t)+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s row: %w", t, err)
	}
	return l, nil
}

// ListLookups returns one page of a lookup table filtered by name.
func ListLookups(ctx context.Context, db sqlx.QueryerContext, t LookupTable, name string, p paging.Params) ([]model.Lookup, int, error) {
	if err := t.check(); err != nil {
		return nil, 0, err
	}
	ds := dialect.From(string(t)).
		Select("id", "name").
		Order(goqu.I("id").Asc())
	if name != "" {
		ds = ds.Where(contains("name", name))
	}

	rows, total, err := selectPage[model.Lookup](ctx, db, ds, p)
	if err != nil {
		return nil, 0, fmt.Errorf("listing %s: %w", t, err)
	}
	return rows, total, nil
}

// AllLookups returns every row of a lookup table ordered by ID.
func AllLookups(ctx context.Context, db sqlx.QueryerContext, t LookupTable) ([]model.Lookup, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var rows []model.Lookup
	if err := sqlx.SelectContext(ctx, db, &rows, `SELECT id, name FROM `+string(t)+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("listing %s: %w", t, err)
	}
	return rows, nil
}

// UpdateLookup renames a lookup row.
func UpdateLookup(ctx context.Context, db sqlx.ExecerContext, t LookupTable, id int64, name string) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	result, err := db.ExecContext(ctx, `UPDATE `+string(t)+` SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return false, fmt.Errorf("updating %s row: %w", t, err)
	}
	return affected(result)
}

// DeleteLookup removes a lookup row that nothing references.
func DeleteLookup(ctx context.Context, db sqlx.ExecerContext, t LookupTable, id int64) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	return deleteRow(ctx, db, string(t), id)
}
