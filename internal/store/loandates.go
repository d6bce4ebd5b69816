package store

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/model"
)

// CreateLoanDates appends a date interval to a loan.
func CreateLoanDates(ctx context.Context, db sqlx.ExecerContext, d model.LoanDates) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO loan_dates (loan_id, start_date, end_date, status) VALUES (?, ?, ?, ?)`,
		d.LoanID, d.StartDate, d.EndDate, d.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("creating loan dates: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting loan dates id: %w", err)
	}
	return id, nil
}

// ListLoanDates returns the date history of a loan in insertion order.
func ListLoanDates(ctx context.Context, db sqlx.QueryerContext, loanID int64) ([]model.LoanDates, error) {
	var rows []model.LoanDates
	err := sqlx.SelectContext(ctx, db, &rows,
		`SELECT id, loan_id, start_date, end_date, status FROM loan_dates WHERE loan_id = ? ORDER BY id`,
		loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing loan dates: %w", err)
	}
	return rows, nil
}

// ListLoanDatesFor returns the date rows of the given loans ordered by loan
// and insertion order. An empty ID list returns every row.
func ListLoanDatesFor(ctx context.Context, db sqlx.QueryerContext, loanIDs []int64) ([]model.LoanDates, error) {
	ds := dialect.From("loan_dates").
		Select("id", "loan_id", "start_date", "end_date", "status").
		Order(goqu.I("loan_id").Asc(), goqu.I("id").Asc())
	if len(loanIDs) > 0 {
		ds = ds.Where(goqu.I("loan_id").In(loanIDs))
	}

	rows, err := selectAll[model.LoanDates](ctx, db, ds)
	if err != nil {
		return nil, fmt.Errorf("listing loan dates: %w", err)
	}
	return rows, nil
}
