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

// CreateEdition creates a new edition.
func CreateEdition(ctx context.Context, db sqlx.ExtContext, number, description string) (*model.Edition, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO editions (number, description) VALUES (?, ?)`,
		number, description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating edition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting edition id: %w", err)
	}

	return GetEdition(ctx, db, id)
}

// GetEdition returns an edition by ID.
func GetEdition(ctx context.Context, db sqlx.QueryerContext, id int64) (*model.Edition, error) {
	e := &model.Edition{}
	err := sqlx.GetContext(ctx, db, e, `SELECT id, number, description FROM editions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting edition: %w", err)
	}
	return e, nil
}

// ListEditions returns one page of editions whose number contains the
// filter, ordered by ID, and the total number of matches.
func ListEditions(ctx context.Context, db sqlx.QueryerContext, number string, p paging.Params) ([]model.Edition, int, error) {
	ds := dialect.From("editions").
		Select("id", "number", "description").
		Order(goqu.I("id").Asc())
	if number != "" {
		ds = ds.Where(contains("number", number))
	}

	editions, total, err := selectPage[model.Edition](ctx, db, ds, p)
	if err != nil {
		return nil, 0, fmt.Errorf("listing editions: %w", err)
	}
	return editions, total, nil
}

// AllEditions returns every edition ordered by ID, for select lists.
func AllEditions(ctx context.Context, db sqlx.QueryerContext) ([]model.Edition, error) {
	var editions []model.Edition
	if err := sqlx.SelectContext(ctx, db, &editions, `SELECT id, number, description FROM editions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("listing editions: %w", err)
	}
	return editions, nil
}

// SearchEditions returns the {id, name} projection of editions whose number
// contains term.
func SearchEditions(ctx context.Context, db sqlx.QueryerContext, term string) ([]model.Option, error) {
	opts, err := searchOptions(ctx, db, "editions", "number", term)
	if err != nil {
		return nil, fmt.Errorf("searching editions: %w", err)
	}
	return opts, nil
}

// UpdateEdition updates an edition. It reports whether a row was updated.
func UpdateEdition(ctx context.Context, db sqlx.ExecerContext, id int64, number, description string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE editions SET number = ?, description = ? WHERE id = ?`,
		number, description, id,
	)
	if err != nil {
		return false, fmt.Errorf("updating edition: %w", err)
	}
	return affected(result)
}

// DeleteEdition removes an edition that no book references.
func DeleteEdition(ctx context.Context, db sqlx.ExecerContext, id int64) (bool, error) {
	return deleteRow(ctx, db, "editions", id)
}
