package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

// LoanFilter narrows loan listings. Zero values match everything.
type LoanFilter struct {
	LoanTypeID    int64
	ReservationID int64
	BookID        int64
	Active        *bool
	PersonalName  string
	// NewestFirst orders by descending ID instead of ascending.
	NewestFirst bool
}

func (f LoanFilter) apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	var where []exp.Expression
	if f.LoanTypeID > 0 {
		where = append(where, goqu.I("l.loan_type_id").Eq(f.LoanTypeID))
	}
	if f.ReservationID > 0 {
		where = append(where, goqu.I("l.reservation_id").Eq(f.ReservationID))
	}
	if f.BookID > 0 {
		where = append(where, goqu.I("l.book_id").Eq(f.BookID))
	}
	if f.Active != nil {
		where = append(where, goqu.I("l.active").Eq(*f.Active))
	}
	if f.PersonalName != "" {
		where = append(where, contains("l.personal_name", f.PersonalName))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	if f.NewestFirst {
		return ds.Order(goqu.I("l.id").Desc())
	}
	return ds.Order(goqu.I("l.id").Asc())
}

// loanSelect selects loans joined with the names the listings display.
func loanSelect() *goqu.SelectDataset {
	return dialect.From(goqu.T("teacher_loans").As("l")).
		LeftJoin(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		LeftJoin(goqu.T("loan_types").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("l.loan_type_id")))).
		LeftJoin(goqu.T("reservation_statuses").As("r"), goqu.On(goqu.I("r.id").Eq(goqu.I("l.reservation_id")))).
		Select(
			goqu.I("l.id"), goqu.I("l.personal_id"), goqu.I("l.personal_name"), goqu.I("l.role"),
			goqu.I("l.email"), goqu.I("l.book_id"), goqu.I("l.loan_type_id"), goqu.I("l.reservation_id"),
			goqu.I("l.registration_date"), goqu.I("l.end_date"), goqu.I("l.active"),
			goqu.COALESCE(goqu.I("b.title"), "").As("book_title"),
			goqu.COALESCE(goqu.I("t.name"), "").As("loan_type_name"),
			goqu.COALESCE(goqu.I("r.name"), "").As("reservation_name"),
		)
}

// CreateLoan inserts a teacher loan and returns its ID.
func CreateLoan(ctx context.Context, db sqlx.ExecerContext, l model.TeacherLoan) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO teacher_loans (personal_id, personal_name, role, email, book_id, loan_type_id,
		                            reservation_id, registration_date, end_date, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.PersonalID, l.PersonalName, l.Role, l.Email, l.BookID, l.LoanTypeID,
		l.ReservationID, l.RegistrationDate, l.EndDate, l.Active,
	)
	if isForeignKeyViolation(err) {
		return 0, ErrInvalidReference
	}
	if err != nil {
		return 0, fmt.Errorf("creating loan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting loan id: %w", err)
	}
	return id, nil
}

// GetLoan returns a loan by ID.
func GetLoan(ctx context.Context, db sqlx.QueryerContext, id int64) (*model.TeacherLoan, error) {
	query, args, err := loanSelect().Where(goqu.I("l.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building loan query: %w", err)
	}

	l := &model.TeacherLoan{}
	err = sqlx.GetContext(ctx, db, l, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting loan: %w", err)
	}
	return l, nil
}

// ListLoans returns one page of loans matching f and the total number of
// matches.
func ListLoans(ctx context.Context, db sqlx.QueryerContext, f LoanFilter, p paging.Params) ([]model.TeacherLoan, int, error) {
	loans, total, err := selectPage[model.TeacherLoan](ctx, db, f.apply(loanSelect()), p)
	if err != nil {
		return nil, 0, fmt.Errorf("listing loans: %w", err)
	}
	return loans, total, nil
}

// FindLoans returns every loan matching f.
func FindLoans(ctx context.Context, db sqlx.QueryerContext, f LoanFilter) ([]model.TeacherLoan, error) {
	loans, err := selectAll[model.TeacherLoan](ctx, db, f.apply(loanSelect()))
	if err != nil {
		return nil, fmt.Errorf("finding loans: %w", err)
	}
	return loans, nil
}

// UpdateLoan writes the editable fields of a loan. The active flag is changed
// only through DeactivateLoan and ActivateLoan.
func UpdateLoan(ctx context.Context, db sqlx.ExecerContext, l model.TeacherLoan) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE teacher_loans
		 SET personal_name = ?, role = ?, email = ?, loan_type_id = ?, reservation_id = ?, end_date = ?
		 WHERE id = ?`,
		l.PersonalName, l.Role, l.Email, l.LoanTypeID, l.ReservationID, l.EndDate, l.ID,
	)
	if isForeignKeyViolation(err) {
		return false, ErrInvalidReference
	}
	if err != nil {
		return false, fmt.Errorf("updating loan: %w", err)
	}
	return affected(result)
}

// DeactivateLoan flips an active loan to inactive. It reports false if the
// loan was already inactive, so callers can tie side effects to the actual
// transition.
func DeactivateLoan(ctx context.Context, db sqlx.ExecerContext, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE teacher_loans SET active = 0 WHERE id = ? AND active = 1`, id,
	)
	if err != nil {
		return false, fmt.Errorf("deactivating loan: %w", err)
	}
	return affected(result)
}

// ActivateLoan marks a loan active again.
func ActivateLoan(ctx context.Context, db sqlx.ExecerContext, id int64) error {
	_, err := db.ExecContext(ctx, `UPDATE teacher_loans SET active = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("activating loan: %w", err)
	}
	return nil
}
