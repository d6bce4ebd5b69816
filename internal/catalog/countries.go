package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

var countryMessages = Messages{
	"Name.required": "El nombre es obligatorio.",
	"Name.max":      "El nombre no puede superar los 100 caracteres.",
}

// Countries manages countries of publication.
type Countries struct {
	db *sqlx.DB
}

// NewCountries returns a Countries service backed by db.
func NewCountries(db *sqlx.DB) *Countries {
	return &Countries{db: db}
}

// List returns one page of countries whose name contains name.
func (s *Countries) List(ctx context.Context, name string, p paging.Params) (paging.Page[model.Country], error) {
	rows, total, err := store.ListCountries(ctx, s.db, strings.TrimSpace(name), p)
	if err != nil {
		return paging.Page[model.Country]{}, err
	}
	return paging.New(rows, p, total), nil
}

// All returns every country, for select lists.
func (s *Countries) All(ctx context.Context) ([]model.Country, error) {
	return store.AllCountries(ctx, s.db)
}

// Search returns typeahead matches.
func (s *Countries) Search(ctx context.Context, term string) ([]model.Option, error) {
	return store.SearchCountries(ctx, s.db, strings.TrimSpace(term))
}

// Get returns a country or ErrNotFound.
func (s *Countries) Get(ctx context.Context, id int64) (*model.Country, error) {
	c, err := store.GetCountry(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Create validates and inserts a country.
func (s *Countries) Create(ctx context.Context, c model.Country) (*model.Country, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := Check(c, countryMessages); err != nil {
		return nil, err
	}
	return store.CreateCountry(ctx, s.db, c.Name)
}

// Update validates and saves a country.
func (s *Countries) Update(ctx context.Context, c model.Country) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := Check(c, countryMessages); err != nil {
		return err
	}
	ok, err := store.UpdateCountry(ctx, s.db, c.ID, c.Name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes a country that no book references.
func (s *Countries) Delete(ctx context.Context, id int64) error {
	return deleteResult(store.DeleteCountry(ctx, s.db, id))
}

// deleteResult maps the outcome of a hard delete onto the service errors.
func deleteResult(ok bool, err error) error {
	if errors.Is(err, store.ErrReferenced) {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
