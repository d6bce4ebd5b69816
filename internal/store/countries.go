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

// CreateCountry creates a new country.
func CreateCountry(ctx context.Context, db sqlx.ExtContext, name string) (*model.Country, error) {
	result, err := db.ExecContext(ctx, `INSERT INTO countries (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating country: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting country id: %w", err)
	}

	return GetCountry(ctx, db, id)
}

// GetCountry returns a country by ID.
func GetCountry(ctx context.Context, db sqlx.QueryerContext, id int64) (*model.Country, error) {
	c := &model.Country{}
	err := sqlx.GetContext(ctx, db, c, `SELECT id, name FROM countries WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting country: %w", err)
	}
	return c, nil
}

// ListCountries returns one page of countries whose name contains the
// filter, ordered by ID, and the total number of matches.
func ListCountries(ctx context.Context, db sqlx.QueryerContext, name string, p paging.Params) ([]model.Country, int, error) {
	ds := dialect.From("countries").
		Select("id", "name").
		Order(goqu.I("id").Asc())
	if name != "" {
		ds = ds.Where(contains("name", name))
	}

	countries, total, err := selectPage[model.Country](ctx, db, ds, p)
	if err != nil {
		return nil, 0, fmt.Errorf("listing countries: %w", err)
	}
	return countries, total, nil
}

// AllCountries returns every country ordered by name, for select lists.
func AllCountries(ctx context.Context, db sqlx.QueryerContext) ([]model.Country, error) {
	var countries []model.Country
	if err := sqlx.SelectContext(ctx, db, &countries, `SELECT id, name FROM countries ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing countries: %w", err)
	}
	return countries, nil
}

// SearchCountries returns the {id, name} projection of countries whose name
// contains term.
func SearchCountries(ctx context.Context, db sqlx.QueryerContext, term string) ([]model.Option, error) {
	opts, err := searchOptions(ctx, db, "countries", "name", term)
	if err != nil {
		return nil, fmt.Errorf("searching countries: %w", err)
	}
	return opts, nil
}

// UpdateCountry renames a country. It reports whether a row was updated.
func UpdateCountry(ctx context.Context, db sqlx.ExecerContext, id int64, name string) (bool, error) {
	result, err := db.ExecContext(ctx, `UPDATE countries SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return false, fmt.Errorf("updating country: %w", err)
	}
	return affected(result)
}

// DeleteCountry removes a country. Countries referenced by books cannot be
// deleted and yield ErrReferenced.
func DeleteCountry(ctx context.Context, db sqlx.ExecerContext, id int64) (bool, error) {
	return deleteRow(ctx, db, "countries", id)
}
