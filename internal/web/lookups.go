package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

// lookupPage serves the list and form pages of one id/name table. The three
// lookup tables share templates and differ only in path and labels.
type lookupPage struct {
	s        *Server
	svc      *catalog.Lookups
	Path     string
	Title    string
	Singular string
	New      string
}

func (s *Server) lookupPages() []*lookupPage {
	return []*lookupPage{
		{s: s, svc: s.Services.Categories, Path: "Categories", Title: "Categorías", Singular: "categoría", New: "Nueva categoría"},
		{s: s, svc: s.Services.LoanTypes, Path: "LoanTypes", Title: "Tipos de préstamo", Singular: "tipo de préstamo", New: "Nuevo tipo de préstamo"},
		{s: s, svc: s.Services.Reservations, Path: "ReservationStatus", Title: "Estados de reserva", Singular: "estado de reserva", New: "Nuevo estado de reserva"},
	}
}

type lookupForm struct {
	PageData
	Lookup *lookupPage
	Row    model.Lookup
	Action string
}

func (l *lookupPage) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := l.svc.List(r.Context(), q.Get("name"), paging.FromQuery(q))
	if err != nil {
		l.s.errorPage(w, r, err)
		return
	}

	l.s.Templates.Render(w, "lookups.html", &struct {
		PageData
		Lookup *lookupPage
		Rows   []model.Lookup
		Name   string
		Pager  Pager
	}{
		PageData: l.s.page(r, l.Title),
		Lookup:   l,
		Rows:     pg.Items,
		Name:     q.Get("name"),
		Pager:    newPager(r, pg),
	})
}

func (l *lookupPage) createPage(w http.ResponseWriter, r *http.Request) {
	l.renderForm(w, r, http.StatusOK, model.Lookup{}, nil)
}

func (l *lookupPage) createSubmit(w http.ResponseWriter, r *http.Request) {
	in := model.Lookup{Name: r.FormValue("name")}
	created, err := l.svc.Create(r.Context(), in)
	if err != nil {
		l.s.fail(w, r, err, func(status int, msgs []string) {
			l.renderForm(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("lookup created", "user", GetWebClaims(r.Context()).Username, "table", l.Path, "name", created.Name)
	done(w, r, "/"+l.Path, "created")
}

func (l *lookupPage) editPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		l.s.errorPage(w, r, err)
		return
	}
	row, err := l.svc.Get(r.Context(), id)
	if err != nil {
		l.s.errorPage(w, r, err)
		return
	}
	l.renderForm(w, r, http.StatusOK, *row, nil)
}

func (l *lookupPage) editSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		l.s.errorPage(w, r, err)
		return
	}
	in := model.Lookup{ID: id, Name: r.FormValue("name")}
	if err := l.svc.Update(r.Context(), in); err != nil {
		l.s.fail(w, r, err, func(status int, msgs []string) {
			l.renderForm(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("lookup updated", "user", GetWebClaims(r.Context()).Username, "table", l.Path, "id", id)
	done(w, r, "/"+l.Path, "updated")
}

func (l *lookupPage) deleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = l.svc.Delete(r.Context(), id)
	}
	if err != nil {
		l.s.errorPage(w, r, err)
		return
	}
	slog.Info("lookup deleted", "user", GetWebClaims(r.Context()).Username, "table", l.Path, "id", id)
	done(w, r, "/"+l.Path, "deleted")
}

func (l *lookupPage) renderForm(w http.ResponseWriter, r *http.Request, status int, row model.Lookup, errs []string) {
	title, action := l.New, fmt.Sprintf("/%s/Create", l.Path)
	if row.ID != 0 {
		title, action = "Editar "+l.Singular, fmt.Sprintf("/%s/Edit/%d", l.Path, row.ID)
	}
	pd := l.s.page(r, title)
	pd.Errors = errs
	l.s.Templates.RenderStatus(w, status, "lookup_form.html", &lookupForm{PageData: pd, Lookup: l, Row: row, Action: action})
}
