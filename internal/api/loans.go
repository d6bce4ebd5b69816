package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/biblioteca/internal/httpx"
	"github.com/erazemk/biblioteca/internal/loans"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

// LoansHandler serves teacher loans.
type LoansHandler struct {
	Loans *loans.Service
}

// loanJSON is a loan with its effective end date and overdue flag.
type loanJSON struct {
	model.TeacherLoan
	DueDate time.Time `json:"due_date"`
	Overdue bool      `json:"overdue"`
}

func withDue(l model.TeacherLoan, d loans.Due) loanJSON {
	due := d.EndDate
	if due.IsZero() {
		due = l.EndDate
	}
	return loanJSON{TeacherLoan: l, DueDate: due, Overdue: d.Overdue}
}

// List handles GET /api/loans?type=&reservation=&page=&pageSize=. Only
// active loans are listed.
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f loans.Filter
	f.LoanTypeID, _ = strconv.ParseInt(q.Get("type"), 10, 64)
	f.ReservationID, _ = strconv.ParseInt(q.Get("reservation"), 10, 64)

	listing, err := h.Loans.List(r.Context(), f, paging.FromQuery(q))
	if err != nil {
		fail(w, r, err)
		return
	}

	items := make([]loanJSON, len(listing.Items))
	for i, l := range listing.Items {
		items[i] = withDue(l, listing.Due[l.ID])
	}
	pg := listing.Page
	httpx.JSON(w, http.StatusOK, pageResponse[loanJSON]{
		Items:      items,
		Page:       pg.Page,
		PageSize:   pg.PageSize,
		Total:      pg.Total,
		TotalPages: pg.TotalPages,
	})
}

type loanDetailJSON struct {
	loanJSON
	Book  *model.Book       `json:"book,omitempty"`
	Dates []model.LoanDates `json:"dates"`
}

// Get handles GET /api/loans/{id}.
func (h *LoansHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.Loans.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	dates := d.Dates
	if dates == nil {
		dates = []model.LoanDates{}
	}
	httpx.JSON(w, http.StatusOK, loanDetailJSON{
		loanJSON: withDue(d.Loan, d.Due),
		Book:     d.Book,
		Dates:    dates,
	})
}

// Overdue handles GET /api/loans/overdue.
func (h *LoansHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	overdue, err := h.Loans.Overdue(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]model.TeacherLoan, 0, len(overdue))
	out = append(out, overdue...)
	httpx.JSON(w, http.StatusOK, out)
}
