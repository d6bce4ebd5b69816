package catalog

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

var lookupMessages = Messages{
	"Name.required": "El nombre es obligatorio.",
	"Name.max":      "El nombre no puede superar los 100 caracteres.",
}

// Lookups manages one of the flat id/name tables: categories, loan types or
// reservation statuses.
type Lookups struct {
	db    *sqlx.DB
	table store.LookupTable
}

// NewLookups returns a Lookups service for table. It panics on an unknown
// table, which is a programming error.
func NewLookups(db *sqlx.DB, table store.LookupTable) *Lookups {
	if !table.Valid() {
		panic("catalog: unknown lookup table " + string(table))
	}
	return &Lookups{db: db, table: table}
}

func (s *Lookups) List(ctx context.Context, name string, p paging.Params) (paging.Page[model.Lookup], error) {
	rows, total, err := store.ListLookups(ctx, s.db, s.table, strings.TrimSpace(name), p)
	if err != nil {
		return paging.Page[model.Lookup]{}, err
	}
	return paging.New(rows, p, total), nil
}

func (s *Lookups) All(ctx context.Context) ([]model.Lookup, error) {
	return store.AllLookups(ctx, s.db, s.table)
}

func (s *Lookups) Get(ctx context.Context, id int64) (*model.Lookup, error) {
	l, err := store.GetLookup(ctx, s.db, s.table, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *Lookups) Create(ctx context.Context, l model.Lookup) (*model.Lookup, error) {
	l.Name = strings.TrimSpace(l.Name)
	if err := Check(l, lookupMessages); err != nil {
		return nil, err
	}
	return store.CreateLookup(ctx, s.db, s.table, l.Name)
}

func (s *Lookups) Update(ctx context.Context, l model.Lookup) error {
	l.Name = strings.TrimSpace(l.Name)
	if err := Check(l, lookupMessages); err != nil {
		return err
	}
	ok, err := store.UpdateLookup(ctx, s.db, s.table, l.ID, l.Name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Lookups) Delete(ctx context.Context, id int64) error {
	return deleteResult(store.DeleteLookup(ctx, s.db, s.table, id))
}
