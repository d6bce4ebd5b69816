// Package loans implements the teacher-loan workflow: checkout, edit and
// extension, return, and the overdue and export views over active loans.
package loans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

// Recorder observes workflow events. The metrics package implements it.
type Recorder interface {
	LoanCreated()
	LoanExtended()
	LoanReturned()
	OutOfStock()
}

type nopRecorder struct{}

func (nopRecorder) LoanCreated()  {}
func (nopRecorder) LoanExtended() {}
func (nopRecorder) LoanReturned() {}
func (nopRecorder) OutOfStock()   {}

// Service runs the loan workflow against the database.
type Service struct {
	db  *sqlx.DB
	now func() time.Time
	rec Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecorder reports workflow events to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.rec = r }
}

// NewService returns a loan Service backed by db.
func NewService(db *sqlx.DB, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now, rec: nopRecorder{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is a checkout request. Fields are ordered the way their
// messages are reported.
type CreateInput struct {
	PersonalID   int64      `validate:"gt=0"`
	BookID       int64      `validate:"gt=0"`
	LoanTypeID   int64      `validate:"gt=0"`
	Email        string     `validate:"required"`
	Start        *time.Time `validate:"required"`
	End          *time.Time `validate:"required"`
	PersonalName string     `validate:"max=200"`
	Role         string     `validate:"max=200"`
}

var createMessages = catalog.Messages{
	"PersonalID":   MsgSelectTeacher,
	"BookID":       MsgSelectBook,
	"LoanTypeID":   MsgSelectLoanType,
	"Email":        MsgEmailRequired,
	"Start":        MsgDatesRequired,
	"End":          MsgDatesRequired,
	"PersonalName": MsgNameTooLong,
	"Role":         "El rol no puede superar los 200 caracteres.",
}

// Create checks a book out to a teacher. The loan row, its first date
// interval and the stock decrement commit together or not at all.
func (s *Service) Create(ctx context.Context, in CreateInput) (int64, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.PersonalName = strings.TrimSpace(in.PersonalName)
	in.Role = strings.TrimSpace(in.Role)
	if err := catalog.Check(in, createMessages); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	book, err := store.GetBook(ctx, tx, in.BookID)
	if err != nil {
		return 0, err
	}
	if book == nil || book.DeletedAt != nil || book.Existences <= 0 {
		s.rec.OutOfStock()
		return 0, ErrOutOfStock
	}

	id, err := store.CreateLoan(ctx, tx, model.TeacherLoan{
		PersonalID:       in.PersonalID,
		PersonalName:     in.PersonalName,
		Role:             in.Role,
		Email:            in.Email,
		BookID:           in.BookID,
		LoanTypeID:       in.LoanTypeID,
		ReservationID:    model.ReservationPending,
		RegistrationDate: s.now(),
		EndDate:          *in.End,
		Active:           true,
	})
	if errors.Is(err, store.ErrInvalidReference) {
		return 0, catalog.Invalid(catalog.MsgInvalidReference)
	}
	if err != nil {
		return 0, err
	}

	_, err = store.CreateLoanDates(ctx, tx, model.LoanDates{
		LoanID:    id,
		StartDate: *in.Start,
		EndDate:   *in.End,
		Status:    model.LoanDateStatusActive,
	})
	if err != nil {
		return 0, err
	}

	taken, err := store.TakeCopy(ctx, tx, in.BookID)
	if err != nil {
		return 0, err
	}
	if !taken {
		s.rec.OutOfStock()
		return 0, ErrOutOfStock
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing loan: %w", err)
	}
	s.rec.LoanCreated()
	return id, nil
}

// EditInput is the submitted edit form. Start and End are both set to
// extend the loan or both nil to leave its dates alone. The book cannot be
// changed.
type EditInput struct {
	LoanTypeID    int64  `validate:"gt=0"`
	ReservationID int64  `validate:"gt=0"`
	Email         string `validate:"required"`
	PersonalName  string `validate:"max=200"`
	Role          string `validate:"max=200"`
	Active        bool
	Start         *time.Time
	End           *time.Time
}

var editMessages = catalog.Messages{
	"LoanTypeID":    MsgSelectLoanType,
	"ReservationID": MsgSelectStatus,
	"Email":         MsgEmailRequired,
	"PersonalName":  MsgNameTooLong,
	"Role":          "El rol no puede superar los 200 caracteres.",
}

// Edit applies an edit form to a loan:
//  1. a lone start or end date is rejected;
//  2. start must fall on an earlier day than end;
//  3. a new (start, end) pair is appended to the loan's history only if its
//     end is a later day than every recorded end, and moves the loan's end
//     date; resubmitting a recorded pair is a no-op;
//  4. the editable fields are saved;
//  5. an active loan turned inactive returns its copy to stock. Turning an
//     inactive loan back on does not take a copy.
func (s *Service) Edit(ctx context.Context, id int64, in EditInput) error {
	if (in.Start == nil) != (in.End == nil) {
		return catalog.Invalid(MsgBothDates)
	}
	extend := in.Start != nil
	if extend && !day(*in.Start).Before(day(*in.End)) {
		return catalog.Invalid(MsgStartBeforeEnd)
	}

	in.Email = strings.TrimSpace(in.Email)
	in.PersonalName = strings.TrimSpace(in.PersonalName)
	in.Role = strings.TrimSpace(in.Role)
	if err := catalog.Check(in, editMessages); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	prior, err := store.GetLoan(ctx, tx, id)
	if err != nil {
		return err
	}
	if prior == nil {
		return catalog.ErrNotFound
	}

	endDate := prior.EndDate
	extended := false
	if extend {
		history, err := store.ListLoanDates(ctx, tx, id)
		if err != nil {
			return err
		}
		if !hasPair(history, *in.Start, *in.End) {
			if last, ok := latestEnd(history); ok && !day(*in.End).After(day(last)) {
				return catalog.Invalid(fmt.Sprintf(msgEndNotExtended, last.Format(DateLayout)))
			}
			_, err := store.CreateLoanDates(ctx, tx, model.LoanDates{
				LoanID:    id,
				StartDate: *in.Start,
				EndDate:   *in.End,
				Status:    model.LoanDateStatusActive,
			})
			if err != nil {
				return err
			}
			endDate = *in.End
			extended = true
		}
	}

	updated := *prior
	updated.LoanTypeID = in.LoanTypeID
	updated.ReservationID = in.ReservationID
	updated.Email = in.Email
	updated.PersonalName = in.PersonalName
	updated.Role = in.Role
	updated.EndDate = endDate
	if _, err := store.UpdateLoan(ctx, tx, updated); err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return catalog.Invalid(catalog.MsgInvalidReference)
		}
		return err
	}

	returned := false
	switch {
	case prior.Active && !in.Active:
		if returned, err = s.deactivate(ctx, tx, prior); err != nil {
			return err
		}
	case !prior.Active && in.Active:
		if err := store.ActivateLoan(ctx, tx, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing loan edit: %w", err)
	}
	if extended {
		s.rec.LoanExtended()
	}
	if returned {
		s.rec.LoanReturned()
	}
	return nil
}

// Delete soft-deletes a loan by marking it inactive, returning its copy to
// stock. Deleting an inactive loan changes nothing.
func (s *Service) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	loan, err := store.GetLoan(ctx, tx, id)
	if err != nil {
		return err
	}
	if loan == nil {
		return catalog.ErrNotFound
	}

	returned, err := s.deactivate(ctx, tx, loan)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing loan delete: %w", err)
	}
	if returned {
		s.rec.LoanReturned()
	}
	return nil
}

// deactivate flips the loan to inactive and, only if this call made the
// transition, gives the copy back.
func (s *Service) deactivate(ctx context.Context, tx *sqlx.Tx, loan *model.TeacherLoan) (bool, error) {
	changed, err := store.DeactivateLoan(ctx, tx, loan.ID)
	if err != nil || !changed {
		return false, err
	}
	if err := store.ReturnCopy(ctx, tx, loan.BookID); err != nil {
		return false, err
	}
	return true, nil
}

func hasPair(history []model.LoanDates, start, end time.Time) bool {
	for _, d := range history {
		if sameDay(d.StartDate, start) && sameDay(d.EndDate, end) {
			return true
		}
	}
	return false
}
