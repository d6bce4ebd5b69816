package catalog

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

var editionMessages = Messages{
	"Number.required": "El número de edición es obligatorio.",
	"Number.max":      "El número de edición no puede superar los 50 caracteres.",
	"Description.max": "La descripción no puede superar los 255 caracteres.",
}

// Editions manages book editions.
type Editions struct {
	db *sqlx.DB
}

// NewEditions returns an Editions service backed by db.
func NewEditions(db *sqlx.DB) *Editions {
	return &Editions{db: db}
}

// List returns one page of editions whose number contains number.
func (s *Editions) List(ctx context.Context, number string, p paging.Params) (paging.Page[model.Edition], error) {
	rows, total, err := store.ListEditions(ctx, s.db, strings.TrimSpace(number), p)
	if err != nil {
		return paging.Page[model.Edition]{}, err
	}
	return paging.New(rows, p, total), nil
}

func (s *Editions) All(ctx context.Context) ([]model.Edition, error) {
	return store.AllEditions(ctx, s.db)
}

func (s *Editions) Search(ctx context.Context, term string) ([]model.Option, error) {
	return store.SearchEditions(ctx, s.db, strings.TrimSpace(term))
}

// Get returns an edition or ErrNotFound.
func (s *Editions) Get(ctx context.Context, id int64) (*model.Edition, error) {
	e, err := store.GetEdition(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Editions) Create(ctx context.Context, e model.Edition) (*model.Edition, error) {
	e.Number = strings.TrimSpace(e.Number)
	e.Description = strings.TrimSpace(e.Description)
	if err := Check(e, editionMessages); err != nil {
		return nil, err
	}
	return store.CreateEdition(ctx, s.db, e.Number, e.Description)
}

func (s *Editions) Update(ctx context.Context, e model.Edition) error {
	e.Number = strings.TrimSpace(e.Number)
	e.Description = strings.TrimSpace(e.Description)
	if err := Check(e, editionMessages); err != nil {
		return err
	}
	ok, err := store.UpdateEdition(ctx, s.db, e.ID, e.Number, e.Description)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Editions) Delete(ctx context.Context, id int64) error {
	return deleteResult(store.DeleteEdition(ctx, s.db, id))
}
