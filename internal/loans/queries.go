package loans

import (
	"context"
	"strings"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

// Filter narrows the active-loan listing. Zero IDs match everything.
type Filter struct {
	LoanTypeID    int64
	ReservationID int64
}

// Listing is one page of active loans with the effective end date of each.
type Listing struct {
	paging.Page[model.TeacherLoan]
	Due map[int64]Due
}

// List returns one page of active loans, ordered by ID.
func (s *Service) List(ctx context.Context, f Filter, p paging.Params) (Listing, error) {
	active := true
	rows, total, err := store.ListLoans(ctx, s.db, store.LoanFilter{
		LoanTypeID:    f.LoanTypeID,
		ReservationID: f.ReservationID,
		Active:        &active,
	}, p)
	if err != nil {
		return Listing{}, err
	}

	due, err := s.dueFor(ctx, rows)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Page: paging.New(rows, p, total), Due: due}, nil
}

// ListDeleted returns one page of inactive loans whose borrower name
// contains name, most recent first.
func (s *Service) ListDeleted(ctx context.Context, name string, p paging.Params) (paging.Page[model.TeacherLoan], error) {
	inactive := false
	rows, total, err := store.ListLoans(ctx, s.db, store.LoanFilter{
		Active:       &inactive,
		PersonalName: strings.TrimSpace(name),
		NewestFirst:  true,
	}, p)
	if err != nil {
		return paging.Page[model.TeacherLoan]{}, err
	}
	return paging.New(rows, p, total), nil
}

// Detail is a loan with its book and date history.
type Detail struct {
	Loan  model.TeacherLoan
	Book  *model.Book
	Dates []model.LoanDates
	Due   Due
}

// Get returns a loan with its history, or catalog.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	loan, err := store.GetLoan(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, catalog.ErrNotFound
	}

	dates, err := store.ListLoanDates(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	book, err := store.GetBook(ctx, s.db, loan.BookID)
	if err != nil {
		return nil, err
	}

	sorted := append([]model.LoanDates(nil), dates...)
	SortByLatestEnd(sorted)
	return &Detail{
		Loan:  *loan,
		Book:  book,
		Dates: dates,
		Due:   OverdueIndex(sorted, s.now())[id],
	}, nil
}

// Overdue returns every active loan whose effective end date has passed.
func (s *Service) Overdue(ctx context.Context) ([]model.TeacherLoan, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	due, err := s.dueFor(ctx, active)
	if err != nil {
		return nil, err
	}

	var out []model.TeacherLoan
	for _, l := range active {
		if due[l.ID].Overdue {
			out = append(out, l)
		}
	}
	return out, nil
}

// Active returns every active loan ordered by ID. It feeds the export.
func (s *Service) Active(ctx context.Context) ([]model.TeacherLoan, error) {
	active := true
	return store.FindLoans(ctx, s.db, store.LoanFilter{Active: &active})
}

func (s *Service) dueFor(ctx context.Context, loans []model.TeacherLoan) (map[int64]Due, error) {
	if len(loans) == 0 {
		return map[int64]Due{}, nil
	}
	ids := make([]int64, len(loans))
	for i, l := range loans {
		ids[i] = l.ID
	}
	rows, err := store.ListLoanDatesFor(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	SortByLatestEnd(rows)
	return OverdueIndex(rows, s.now()), nil
}
