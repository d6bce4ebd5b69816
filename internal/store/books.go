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

// bookSelect selects books joined with their reference names.
func bookSelect() *goqu.SelectDataset {
	return dialect.From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("b.category_id")))).
		LeftJoin(goqu.T("editions").As("e"), goqu.On(goqu.I("e.id").Eq(goqu.I("b.edition_id")))).
		LeftJoin(goqu.T("countries").As("co"), goqu.On(goqu.I("co.id").Eq(goqu.I("b.country_id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.isbn"),
			goqu.I("b.category_id"), goqu.I("b.edition_id"), goqu.I("b.country_id"),
			goqu.I("b.cover"), goqu.I("b.existences"),
			goqu.I("b.created_at"), goqu.I("b.updated_at"), goqu.I("b.deleted_at"),
			goqu.COALESCE(goqu.I("c.name"), "").As("category_name"),
			goqu.COALESCE(goqu.I("e.number"), "").As("edition_name"),
			goqu.COALESCE(goqu.I("co.name"), "").As("country_name"),
		)
}

// CreateBook creates a new book with its initial stock.
func CreateBook(ctx context.Context, db sqlx.ExtContext, b model.Book) (*model.Book, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO books (title, author, isbn, category_id, edition_id, country_id, existences)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.Author, b.ISBN, b.CategoryID, b.EditionID, b.CountryID, b.Existences,
	)
	if isForeignKeyViolation(err) {
		return nil, ErrInvalidReference
	}
	if err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting book id: %w", err)
	}

	return GetBook(ctx, db, id)
}

// GetBook returns a book by ID, including soft-deleted books.
func GetBook(ctx context.Context, db sqlx.QueryerContext, id int64) (*model.Book, error) {
	query, args, err := bookSelect().Where(goqu.I("b.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building book query: %w", err)
	}

	b := &model.Book{}
	err = sqlx.GetContext(ctx, db, b, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting book: %w", err)
	}
	return b, nil
}

// ListBooks returns one page of non-deleted books whose title contains the
// filter, ordered by ID.
func ListBooks(ctx context.Context, db sqlx.QueryerContext, title string, p paging.Params) ([]model.Book, int, error) {
	ds := bookSelect().
		Where(goqu.I("b.deleted_at").IsNull()).
		Order(goqu.I("b.id").Asc())
	if title != "" {
		ds = ds.Where(contains("b.title", title))
	}

	books, total, err := selectPage[model.Book](ctx, db, ds, p)
	if err != nil {
		return nil, 0, fmt.Errorf("listing books: %w", err)
	}
	return books, total, nil
}

// AllBooks returns every non-deleted book ordered by title, for select lists.
func AllBooks(ctx context.Context, db sqlx.QueryerContext) ([]model.Book, error) {
	books, err := selectAll[model.Book](ctx, db, bookSelect().
		Where(goqu.I("b.deleted_at").IsNull()).
		Order(goqu.I("b.title").Asc()))
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return books, nil
}

// SearchBooks returns the {id, name} projection of non-deleted books whose
// title contains term.
func SearchBooks(ctx context.Context, db sqlx.QueryerContext, term string) ([]model.Option, error) {
	opts, err := searchOptions(ctx, db, "books", "title", term, goqu.I("deleted_at").IsNull())
	if err != nil {
		return nil, fmt.Errorf("searching books: %w", err)
	}
	return opts, nil
}

// UpdateBook updates a book's catalog fields. Stock and cover have their own
// functions.
func UpdateBook(ctx context.Context, db sqlx.ExecerContext, b model.Book) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE books SET title = ?, author = ?, isbn = ?, category_id = ?, edition_id = ?, country_id = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		b.Title, b.Author, b.ISBN, b.CategoryID, b.EditionID, b.CountryID, b.ID,
	)
	if isForeignKeyViolation(err) {
		return false, ErrInvalidReference
	}
	if err != nil {
		return false, fmt.Errorf("updating book: %w", err)
	}
	return affected(result)
}

// SetBookCover stores the blob key of a book's cover.
func SetBookCover(ctx context.Context, db sqlx.ExecerContext, id int64, key string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE books SET cover = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		key, id,
	)
	if err != nil {
		return fmt.Errorf("setting book cover: %w", err)
	}
	return nil
}

// DeleteBook soft-deletes a book.
func DeleteBook(ctx context.Context, db sqlx.ExecerContext, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE books SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting book: %w", err)
	}
	return affected(result)
}

// TakeCopy decrements a book's existences by one if at least one copy is
// available. It reports false when no copy could be taken.
func TakeCopy(ctx context.Context, db sqlx.ExecerContext, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE books SET existences = existences - 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND existences > 0`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("taking book copy: %w", err)
	}
	return affected(result)
}

// ReturnCopy increments a book's existences by one.
func ReturnCopy(ctx context.Context, db sqlx.ExecerContext, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE books SET existences = existences + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("returning book copy: %w", err)
	}
	return nil
}

// AdjustExistences adds delta (which may be negative) to a book's stock. It
// reports false when the book does not exist or the result would be
// negative.
func AdjustExistences(ctx context.Context, db sqlx.ExecerContext, id int64, delta int) (bool, error) {
	if delta == 0 {
		return false, fmt.Errorf("delta must be non-zero")
	}
	result, err := db.ExecContext(ctx,
		`UPDATE books SET existences = existences + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND existences + ? >= 0`,
		delta, id, delta,
	)
	if err != nil {
		return false, fmt.Errorf("adjusting book stock: %w", err)
	}
	return affected(result)
}
