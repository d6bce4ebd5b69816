package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/biblioteca/internal/export"
	"github.com/erazemk/biblioteca/internal/loans"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

type loanRefs struct {
	LoanTypes    []model.Lookup
	Reservations []model.Lookup
}

// refs loads the select options of the loan forms. Failures are appended to
// errs so the form still renders.
func (s *Server) refs(r *http.Request, errs *[]string) loanRefs {
	var out loanRefs
	var err error
	if out.LoanTypes, err = s.Services.LoanTypes.All(r.Context()); err != nil {
		*errs = append(*errs, userErrors(r, err)...)
	}
	if out.Reservations, err = s.Services.Reservations.All(r.Context()); err != nil {
		*errs = append(*errs, userErrors(r, err)...)
	}
	return out
}

// LoansPage handles GET /LoansTeacher.
func (s *Server) LoansPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := loans.Filter{}
	f.LoanTypeID, _ = strconv.ParseInt(q.Get("type"), 10, 64)
	f.ReservationID, _ = strconv.ParseInt(q.Get("reservation"), 10, 64)

	listing, err := s.Services.Loans.List(r.Context(), f, paging.FromQuery(q))
	if err != nil {
		s.errorPage(w, r, err)
		return
	}

	pd := s.page(r, "Préstamos a docentes")
	refs := s.refs(r, &pd.Errors)
	s.Templates.Render(w, "loans.html", &struct {
		PageData
		loanRefs
		Loans  []model.TeacherLoan
		Due    map[int64]loans.Due
		Filter loans.Filter
		Pager  Pager
	}{
		PageData: pd,
		loanRefs: refs,
		Loans:    listing.Items,
		Due:      listing.Due,
		Filter:   f,
		Pager:    newPager(r, listing.Page),
	})
}

type loanCreateForm struct {
	PageData
	loanRefs
	In    loans.CreateInput
	Books []model.Book
}

// LoanCreatePage handles GET /LoansTeacher/Create. The dates are prefilled
// from today and the configured default loan length.
func (s *Server) LoanCreatePage(w http.ResponseWriter, r *http.Request) {
	today := time.Now()
	in := loans.CreateInput{Start: &today}
	days, err := store.GetSetting(r.Context(), s.DB, store.SettingLoanDays)
	if err != nil {
		slog.Error("failed to read setting", "error", err)
	}
	if n, err := strconv.Atoi(days); err == nil && n > 0 {
		end := today.AddDate(0, 0, n)
		in.End = &end
	}
	if id, err := strconv.ParseInt(r.URL.Query().Get("book"), 10, 64); err == nil {
		in.BookID = id
	}
	s.renderLoanCreate(w, r, http.StatusOK, in, nil)
}

// LoanCreateSubmit handles POST /LoansTeacher/Create.
func (s *Server) LoanCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in := loans.CreateInput{
		PersonalID:   formInt64(r, "personal_id"),
		PersonalName: r.FormValue("personal_name"),
		Role:         r.FormValue("role"),
		Email:        r.FormValue("email"),
		BookID:       formInt64(r, "book_id"),
		LoanTypeID:   formInt64(r, "loan_type_id"),
		Start:        formDate(r, "start_date"),
		End:          formDate(r, "end_date"),
	}

	id, err := s.Services.Loans.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderLoanCreate(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("loan created", "user", GetWebClaims(r.Context()).Username, "loan_id", id, "book_id", in.BookID, "teacher", in.PersonalName)
	done(w, r, "/LoansTeacher", "created")
}

func (s *Server) renderLoanCreate(w http.ResponseWriter, r *http.Request, status int, in loans.CreateInput, errs []string) {
	books, err := s.Services.Books.All(r.Context())
	if err != nil {
		errs = append(errs, userErrors(r, err)...)
	}
	pd := s.page(r, "Nuevo préstamo")
	form := loanCreateForm{In: in, Books: books}
	form.loanRefs = s.refs(r, &errs)
	pd.Errors = errs
	form.PageData = pd
	s.Templates.RenderStatus(w, status, "loan_create.html", &form)
}

type loanEditForm struct {
	PageData
	loanRefs
	Detail *loans.Detail
	In     loans.EditInput
}

// LoanEditPage handles GET /LoansTeacher/Edit/{id}.
func (s *Server) LoanEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	d, err := s.Services.Loans.Get(r.Context(), id)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	in := loans.EditInput{
		LoanTypeID:    d.Loan.LoanTypeID,
		ReservationID: d.Loan.ReservationID,
		Email:         d.Loan.Email,
		PersonalName:  d.Loan.PersonalName,
		Role:          d.Loan.Role,
		Active:        d.Loan.Active,
	}
	s.renderLoanEdit(w, r, http.StatusOK, d, in, nil)
}

// LoanEditSubmit handles POST /LoansTeacher/Edit/{id}. Supplying both
// dates extends the loan; leaving both blank keeps its dates.
func (s *Server) LoanEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	in := loans.EditInput{
		LoanTypeID:    formInt64(r, "loan_type_id"),
		ReservationID: formInt64(r, "reservation_id"),
		Email:         r.FormValue("email"),
		PersonalName:  r.FormValue("personal_name"),
		Role:          r.FormValue("role"),
		Active:        r.FormValue("active") != "",
		Start:         formDate(r, "start_date"),
		End:           formDate(r, "end_date"),
	}

	if err := s.Services.Loans.Edit(r.Context(), id, in); err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			d, gerr := s.Services.Loans.Get(r.Context(), id)
			if gerr != nil {
				s.errorPage(w, r, gerr)
				return
			}
			s.renderLoanEdit(w, r, status, d, in, msgs)
		})
		return
	}
	slog.Info("loan updated", "user", GetWebClaims(r.Context()).Username, "loan_id", id, "active", in.Active, "extended", in.End != nil)
	done(w, r, "/LoansTeacher", "updated")
}

func (s *Server) renderLoanEdit(w http.ResponseWriter, r *http.Request, status int, d *loans.Detail, in loans.EditInput, errs []string) {
	form := loanEditForm{Detail: d, In: in}
	form.loanRefs = s.refs(r, &errs)
	form.PageData = s.page(r, fmt.Sprintf("Préstamo #%d", d.Loan.ID))
	form.PageData.Errors = errs
	s.Templates.RenderStatus(w, status, "loan_edit.html", &form)
}

// LoanDeleteSubmit handles POST /LoansTeacher/Delete/{id}. The loan is
// deactivated and its copy returned; deleting twice is harmless.
func (s *Server) LoanDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.Services.Loans.Delete(r.Context(), id)
	}
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	slog.Info("loan deleted", "user", GetWebClaims(r.Context()).Username, "loan_id", id)
	done(w, r, "/LoansTeacher", "deleted")
}

// LoansDeletedPage handles GET /LoansTeacher/LoansDelete.
func (s *Server) LoansDeletedPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := s.Services.Loans.ListDeleted(r.Context(), q.Get("name"), paging.FromQuery(q))
	if err != nil {
		s.errorPage(w, r, err)
		return
	}

	s.Templates.Render(w, "loans_deleted.html", &struct {
		PageData
		Loans []model.TeacherLoan
		Name  string
		Pager Pager
	}{
		PageData: s.page(r, "Préstamos eliminados"),
		Loans:    pg.Items,
		Name:     q.Get("name"),
		Pager:    newPager(r, pg),
	})
}

// LoansExport handles GET /LoansTeacher/ExportarExcel.
func (s *Server) LoansExport(w http.ResponseWriter, r *http.Request) {
	active, err := s.Services.Loans.Active(r.Context())
	if err != nil {
		s.errorPage(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteLoans(&buf, active); err != nil {
		s.errorPage(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
		return
	}
	slog.Info("loans exported", "user", GetWebClaims(r.Context()).Username, "rows", len(active))
}
