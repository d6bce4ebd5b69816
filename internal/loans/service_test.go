package loans

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/db"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

type countingRecorder struct {
	mu                                  sync.Mutex
	created, extended, returned, noCopy int
}

func (r *countingRecorder) LoanCreated()  { r.mu.Lock(); r.created++; r.mu.Unlock() }
func (r *countingRecorder) LoanExtended() { r.mu.Lock(); r.extended++; r.mu.Unlock() }
func (r *countingRecorder) LoanReturned() { r.mu.Lock(); r.returned++; r.mu.Unlock() }
func (r *countingRecorder) OutOfStock()   { r.mu.Lock(); r.noCopy++; r.mu.Unlock() }

type fixture struct {
	svc  *Service
	db   *sqlx.DB
	rec  *countingRecorder
	book *model.Book
}

func newFixture(t *testing.T, existences int) fixture {
	t.Helper()
	database := db.NewTestDB(t)
	rec := &countingRecorder{}
	book, err := store.CreateBook(context.Background(), database, model.Book{Title: "Alsino", Existences: existences})
	require.NoError(t, err)
	return fixture{
		svc:  NewService(database, WithClock(func() time.Time { return testNow }), WithRecorder(rec)),
		db:   database,
		rec:  rec,
		book: book,
	}
}

func (f fixture) input() CreateInput {
	return CreateInput{
		PersonalID:   12,
		BookID:       f.book.ID,
		LoanTypeID:   2,
		Email:        "ana@colegio.cl",
		Start:        date(2026, 3, 2),
		End:          date(2026, 3, 9),
		PersonalName: "Ana Pérez",
		Role:         "Docente",
	}
}

func (f fixture) existences(t *testing.T) int {
	t.Helper()
	b, err := store.GetBook(context.Background(), f.db, f.book.ID)
	require.NoError(t, err)
	return b.Existences
}

func (f fixture) create(t *testing.T) int64 {
	t.Helper()
	id, err := f.svc.Create(context.Background(), f.input())
	require.NoError(t, err)
	return id
}

func TestCreateValidationCollectsEveryMessage(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.Create(context.Background(), CreateInput{Email: "   "})
	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		MsgSelectTeacher,
		MsgSelectBook,
		MsgSelectLoanType,
		MsgEmailRequired,
		MsgDatesRequired,
	}, ve.Messages)

	assert.Equal(t, 3, f.existences(t), "validation failure must not touch stock")
}

func TestCreateMissingOneDate(t *testing.T) {
	f := newFixture(t, 3)
	in := f.input()
	in.End = nil

	_, err := f.svc.Create(context.Background(), in)
	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{MsgDatesRequired}, ve.Messages)
}

func TestCreateTakesCopyAndRecordsDates(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	id := f.create(t)
	assert.Equal(t, 1, f.existences(t))
	assert.Equal(t, 1, f.rec.created)

	d, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, d.Loan.Active)
	assert.Equal(t, model.ReservationPending, d.Loan.ReservationID)
	assert.True(t, d.Loan.RegistrationDate.Equal(testNow))
	assert.True(t, d.Loan.EndDate.Equal(*date(2026, 3, 9)))
	require.Len(t, d.Dates, 1)
	assert.Equal(t, model.LoanDateStatusActive, d.Dates[0].Status)
	assert.True(t, d.Dates[0].StartDate.Equal(*date(2026, 3, 2)))
	assert.True(t, d.Due.Overdue, "ended on the 9th, now is the 10th")
}

func TestCreateOutOfStock(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.Create(context.Background(), f.input())
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, 0, f.existences(t))
	assert.Equal(t, 1, f.rec.noCopy)

	loans, err := f.svc.Active(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loans, "no loan row may survive a failed checkout")
}

func TestCreateMissingBookIsOutOfStock(t *testing.T) {
	f := newFixture(t, 1)
	in := f.input()
	in.BookID = 999

	_, err := f.svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestConcurrentCreatesOnLastCopy(t *testing.T) {
	f := newFixture(t, 1)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), f.input())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrOutOfStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.existences(t))
}

func (f fixture) edit() EditInput {
	return EditInput{
		LoanTypeID:    2,
		ReservationID: 2,
		Email:         "ana@colegio.cl",
		PersonalName:  "Ana Pérez",
		Role:          "Docente",
		Active:        true,
	}
}

func TestEditRequiresBothDates(t *testing.T) {
	f := newFixture(t, 2)
	id := f.create(t)

	in := f.edit()
	in.Start = date(2026, 3, 9)
	err := f.svc.Edit(context.Background(), id, in)
	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{MsgBothDates}, ve.Messages)
}

func TestEditStartMustPrecedeEnd(t *testing.T) {
	f := newFixture(t, 2)
	id := f.create(t)

	in := f.edit()
	in.Start = date(2026, 3, 20)
	in.End = date(2026, 3, 20)
	err := f.svc.Edit(context.Background(), id, in)
	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{MsgStartBeforeEnd}, ve.Messages)
}

func TestEditExtendsLoan(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	id := f.create(t)

	in := f.edit()
	in.Start = date(2026, 3, 9)
	in.End = date(2026, 3, 16)
	require.NoError(t, f.svc.Edit(ctx, id, in))

	d, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, d.Dates, 2)
	assert.True(t, d.Loan.EndDate.Equal(*date(2026, 3, 16)))
	assert.Equal(t, int64(2), d.Loan.ReservationID)
	assert.False(t, d.Due.Overdue)
	assert.Equal(t, 1, f.rec.extended)
}

func TestEditRejectsShorterExtension(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	id := f.create(t)

	in := f.edit()
	in.Start = date(2026, 3, 1)
	in.End = date(2026, 3, 9)
	err := f.svc.Edit(ctx, id, in)
	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"La nueva fecha cierre debe ser mayor a la anterior: 09/03/2026"}, ve.Messages)

	d, _ := f.svc.Get(ctx, id)
	assert.Len(t, d.Dates, 1)
	assert.Equal(t, model.ReservationPending, d.Loan.ReservationID, "rejected edits must not save fields")
}

func TestEditSamePairIsNoOp(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	id := f.create(t)

	in := f.edit()
	in.Start = date(2026, 3, 2)
	in.End = date(2026, 3, 9)
	in.Email = "otro@colegio.cl"
	require.NoError(t, f.svc.Edit(ctx, id, in))

	d, _ := f.svc.Get(ctx, id)
	assert.Len(t, d.Dates, 1)
	assert.Equal(t, "otro@colegio.cl", d.Loan.Email)
	assert.Equal(t, 0, f.rec.extended)
}

func TestEditDeactivationReturnsCopyOnce(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.create(t)
	require.Equal(t, 0, f.existences(t))

	in := f.edit()
	in.Active = false
	require.NoError(t, f.svc.Edit(ctx, id, in))
	assert.Equal(t, 1, f.existences(t))

	// Saving the inactive loan again does not add another copy.
	require.NoError(t, f.svc.Edit(ctx, id, in))
	assert.Equal(t, 1, f.existences(t))

	// Reactivating does not take the copy back.
	in.Active = true
	require.NoError(t, f.svc.Edit(ctx, id, in))
	assert.Equal(t, 1, f.existences(t))

	d, _ := f.svc.Get(ctx, id)
	assert.True(t, d.Loan.Active)
	assert.Equal(t, 1, f.rec.returned)
}

func TestEditMissingLoan(t *testing.T) {
	f := newFixture(t, 1)
	err := f.svc.Edit(context.Background(), 999, f.edit())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeleteIsSoftAndIdempotent(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.create(t)

	require.NoError(t, f.svc.Delete(ctx, id))
	require.NoError(t, f.svc.Delete(ctx, id))
	assert.Equal(t, 1, f.existences(t))

	active, err := f.svc.List(ctx, Filter{}, paging.Params{})
	require.NoError(t, err)
	assert.Empty(t, active.Items)

	deleted, err := f.svc.ListDeleted(ctx, "ana", paging.Params{})
	require.NoError(t, err)
	require.Len(t, deleted.Items, 1)
	assert.Equal(t, id, deleted.Items[0].ID)

	assert.ErrorIs(t, f.svc.Delete(ctx, 999), catalog.ErrNotFound)
}

func TestListFiltersAndDue(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	first := f.create(t)
	in := f.input()
	in.LoanTypeID = 1
	in.End = date(2026, 4, 1)
	second, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, Filter{}, paging.Params{PageSize: paging.All})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, 1, all.TotalPages)
	assert.True(t, all.Due[first].Overdue)
	assert.False(t, all.Due[second].Overdue)

	sala, err := f.svc.List(ctx, Filter{LoanTypeID: 1}, paging.Params{})
	require.NoError(t, err)
	require.Len(t, sala.Items, 1)
	assert.Equal(t, second, sala.Items[0].ID)

	overdue, err := f.svc.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, first, overdue[0].ID)
}
