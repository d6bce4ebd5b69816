package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

// dialect builds SQLite statements with "?" placeholders.
var dialect = goqu.Dialect("sqlite3")

// SearchLimit caps the number of typeahead results.
const SearchLimit = 20

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains matches rows whose column contains term. SQLite LIKE ignores case
// for ASCII letters.
func contains(col, term string) exp.Expression {
	return goqu.L(`? LIKE ? ESCAPE '\'`, goqu.I(col), "%"+likeEscaper.Replace(term)+"%")
}

// selectPage runs ds twice: once as a COUNT(*) for the total and once with
// the page's LIMIT/OFFSET applied.
func selectPage[T any](ctx context.Context, db sqlx.QueryerContext, ds *goqu.SelectDataset, p paging.Params) ([]T, int, error) {
	countSQL, countArgs, err := ds.ClearSelect().ClearOrder().
		Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, db, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("counting rows: %w", err)
	}

	if limit, offset, ok := p.Limit(); ok {
		ds = ds.Limit(limit).Offset(offset)
	}
	rows, err := selectAll[T](ctx, db, ds)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// selectAll runs ds and scans every row into T.
func selectAll[T any](ctx context.Context, db sqlx.QueryerContext, ds *goqu.SelectDataset) ([]T, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var rows []T
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("selecting rows: %w", err)
	}
	return rows, nil
}

// searchOptions returns up to SearchLimit {id, name} rows from table whose
// nameCol contains term, ordered by id. Extra conditions are ANDed in.
func searchOptions(ctx context.Context, db sqlx.QueryerContext, table, nameCol, term string, where ...exp.Expression) ([]model.Option, error) {
	ds := dialect.From(table).
		Select(goqu.I("id"), goqu.I(nameCol).As("name")).
		Order(goqu.I("id").Asc()).
		Limit(SearchLimit)
	if term != "" {
		where = append(where, contains(nameCol, term))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	return selectAll[model.Option](ctx, db, ds)
}
