package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

type editionForm struct {
	PageData
	Edition model.Edition
	Action  string
}

// EditionsPage handles GET /Editions.
func (s *Server) EditionsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := s.Services.Editions.List(r.Context(), q.Get("number"), paging.FromQuery(q))
	if err != nil {
		s.errorPage(w, r, err)
		return
	}

	s.Templates.Render(w, "editions.html", &struct {
		PageData
		Editions []model.Edition
		Number   string
		Pager    Pager
	}{
		PageData: s.page(r, "Ediciones"),
		Editions: pg.Items,
		Number:   q.Get("number"),
		Pager:    newPager(r, pg),
	})
}

// EditionDetailPage handles GET /Editions/Details/{id}.
func (s *Server) EditionDetailPage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadEdition(w, r)
	if !ok {
		return
	}
	s.Templates.Render(w, "edition_detail.html", &editionForm{PageData: s.page(r, "Edición "+e.Number), Edition: *e})
}

// EditionCreatePage handles GET /Editions/Create.
func (s *Server) EditionCreatePage(w http.ResponseWriter, r *http.Request) {
	s.renderEditionForm(w, r, http.StatusOK, model.Edition{}, nil)
}

// EditionCreateSubmit handles POST /Editions/Create.
func (s *Server) EditionCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in := model.Edition{
		Number:      r.FormValue("number"),
		Description: r.FormValue("description"),
	}
	created, err := s.Services.Editions.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderEditionForm(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("edition created", "user", GetWebClaims(r.Context()).Username, "edition", created.Number)
	done(w, r, "/Editions", "created")
}

// EditionEditPage handles GET /Editions/Edit/{id}.
func (s *Server) EditionEditPage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadEdition(w, r)
	if !ok {
		return
	}
	s.renderEditionForm(w, r, http.StatusOK, *e, nil)
}

// EditionEditSubmit handles POST /Editions/Edit/{id}.
func (s *Server) EditionEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	in := model.Edition{
		ID:          id,
		Number:      r.FormValue("number"),
		Description: r.FormValue("description"),
	}
	if err := s.Services.Editions.Update(r.Context(), in); err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderEditionForm(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("edition updated", "user", GetWebClaims(r.Context()).Username, "edition_id", id)
	done(w, r, "/Editions", "updated")
}

// EditionDeleteSubmit handles POST /Editions/Delete/{id}.
func (s *Server) EditionDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.Services.Editions.Delete(r.Context(), id)
	}
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	slog.Info("edition deleted", "user", GetWebClaims(r.Context()).Username, "edition_id", id)
	done(w, r, "/Editions", "deleted")
}

// EditionSearch handles GET /Editions/Search?name=. Matches on the number.
func (s *Server) EditionSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Services.Editions.Search(r.Context(), r.URL.Query().Get("name"))
	writeOptions(w, r, opts, err)
}

func (s *Server) loadEdition(w http.ResponseWriter, r *http.Request) (*model.Edition, bool) {
	id, err := pathID(r)
	if err != nil {
		s.errorPage(w, r, err)
		return nil, false
	}
	e, err := s.Services.Editions.Get(r.Context(), id)
	if err != nil {
		s.errorPage(w, r, err)
		return nil, false
	}
	return e, true
}

func (s *Server) renderEditionForm(w http.ResponseWriter, r *http.Request, status int, e model.Edition, errs []string) {
	title, action := "Nueva edición", "/Editions/Create"
	if e.ID != 0 {
		title, action = "Editar edición", fmt.Sprintf("/Editions/Edit/%d", e.ID)
	}
	pd := s.page(r, title)
	pd.Errors = errs
	s.Templates.RenderStatus(w, status, "edition_form.html", &editionForm{PageData: pd, Edition: e, Action: action})
}
