package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/covers"
	"github.com/erazemk/biblioteca/internal/imaging"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

var bookMessages = Messages{
	"Title.required": "El título es obligatorio.",
	"Title.max":      "El título no puede superar los 255 caracteres.",
	"Author.max":     "El autor no puede superar los 255 caracteres.",
	"ISBN.max":       "El ISBN no puede superar los 20 caracteres.",
	"Existences.gte": "Las existencias no pueden ser negativas.",
}

// Stock adjustment messages.
const (
	MsgZeroDelta     = "La cantidad debe ser distinta de cero."
	MsgNegativeStock = "Las existencias no pueden quedar negativas."
)

// Books manages the catalog of titles, their stock and their covers.
type Books struct {
	db     *sqlx.DB
	covers covers.Store
}

// NewBooks returns a Books service. covers receives processed cover images.
func NewBooks(db *sqlx.DB, cs covers.Store) *Books {
	return &Books{db: db, covers: cs}
}

// List returns one page of live books whose title contains title.
func (s *Books) List(ctx context.Context, title string, p paging.Params) (paging.Page[model.Book], error) {
	rows, total, err := store.ListBooks(ctx, s.db, strings.TrimSpace(title), p)
	if err != nil {
		return paging.Page[model.Book]{}, err
	}
	return paging.New(rows, p, total), nil
}

func (s *Books) All(ctx context.Context) ([]model.Book, error) {
	return store.AllBooks(ctx, s.db)
}

func (s *Books) Search(ctx context.Context, term string) ([]model.Option, error) {
	return store.SearchBooks(ctx, s.db, strings.TrimSpace(term))
}

// Get returns a live book or ErrNotFound.
func (s *Books) Get(ctx context.Context, id int64) (*model.Book, error) {
	b, err := store.GetBook(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if b == nil || b.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return b, nil
}

// ActiveLoans returns the active loans of a book.
func (s *Books) ActiveLoans(ctx context.Context, id int64) ([]model.TeacherLoan, error) {
	active := true
	return store.FindLoans(ctx, s.db, store.LoanFilter{BookID: id, Active: &active})
}

func normalizeBook(b *model.Book) {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = strings.TrimSpace(b.ISBN)
	for _, id := range []**int64{&b.CategoryID, &b.EditionID, &b.CountryID} {
		if *id != nil && **id <= 0 {
			*id = nil
		}
	}
}

// Create validates and inserts a book with its initial stock.
func (s *Books) Create(ctx context.Context, b model.Book) (*model.Book, error) {
	normalizeBook(&b)
	if err := Check(b, bookMessages); err != nil {
		return nil, err
	}
	created, err := store.CreateBook(ctx, s.db, b)
	if errors.Is(err, store.ErrInvalidReference) {
		return nil, Invalid(MsgInvalidReference)
	}
	return created, err
}

// Update validates and saves the catalog fields of a book. Stock is left
// alone; it changes through loans and AdjustStock.
func (s *Books) Update(ctx context.Context, b model.Book) error {
	normalizeBook(&b)
	if err := Check(b, bookMessages); err != nil {
		return err
	}
	ok, err := store.UpdateBook(ctx, s.db, b)
	if errors.Is(err, store.ErrInvalidReference) {
		return Invalid(MsgInvalidReference)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes a book. Its loans keep pointing at it.
func (s *Books) Delete(ctx context.Context, id int64) error {
	ok, err := store.DeleteBook(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// AdjustStock adds delta copies (negative to remove). Stock never drops
// below zero.
func (s *Books) AdjustStock(ctx context.Context, id int64, delta int) (*model.Book, error) {
	if delta == 0 {
		return nil, Invalid(MsgZeroDelta)
	}
	ok, err := store.AdjustExistences(ctx, s.db, id, delta)
	if err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, Conflict(MsgNegativeStock)
	}
	return b, nil
}

// SetCover processes an uploaded image and makes it the book's cover. The
// previous cover blob, if any, is removed afterwards.
func (s *Books) SetCover(ctx context.Context, id int64, r io.Reader) (string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	img, err := imaging.Cover(r)
	if err != nil {
		return "", &ValidationError{Messages: []string{MsgInvalidCover}}
	}

	key := covers.NewKey()
	if _, err := s.covers.Put(ctx, key, bytes.NewReader(img.Data), img.MIME); err != nil {
		return "", fmt.Errorf("storing cover: %w", err)
	}
	if err := store.SetBookCover(ctx, s.db, id, key); err != nil {
		s.covers.Delete(ctx, key)
		return "", err
	}

	if b.Cover != "" {
		s.covers.Delete(ctx, b.Cover)
	}
	return key, nil
}

// Cover opens a book's cover image. Books without one yield ErrNotFound.
func (s *Books) Cover(ctx context.Context, id int64) (covers.Info, io.ReadCloser, error) {
	b, err := store.GetBook(ctx, s.db, id)
	if err != nil {
		return covers.Info{}, nil, err
	}
	if b == nil || b.Cover == "" {
		return covers.Info{}, nil, ErrNotFound
	}
	info, rc, err := s.covers.Get(ctx, b.Cover)
	if errors.Is(err, covers.ErrNotFound) {
		return covers.Info{}, nil, ErrNotFound
	}
	if err != nil {
		return covers.Info{}, nil, err
	}
	return info, rc, nil
}
