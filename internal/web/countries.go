package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/biblioteca/internal/httpx"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

type countryForm struct {
	PageData
	Country model.Country
	Action  string
}

// CountriesPage handles GET /Countries.
func (s *Server) CountriesPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := s.Services.Countries.List(r.Context(), q.Get("name"), paging.FromQuery(q))
	if err != nil {
		s.errorPage(w, r, err)
		return
	}

	s.Templates.Render(w, "countries.html", &struct {
		PageData
		Countries []model.Country
		Name      string
		Pager     Pager
	}{
		PageData:  s.page(r, "Países"),
		Countries: pg.Items,
		Name:      q.Get("name"),
		Pager:     newPager(r, pg),
	})
}

// CountryDetailPage handles GET /Countries/Details/{id}.
func (s *Server) CountryDetailPage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCountry(w, r)
	if !ok {
		return
	}
	s.Templates.Render(w, "country_detail.html", &countryForm{PageData: s.page(r, c.Name), Country: *c})
}

// CountryCreatePage handles GET /Countries/Create.
func (s *Server) CountryCreatePage(w http.ResponseWriter, r *http.Request) {
	s.renderCountryForm(w, r, http.StatusOK, model.Country{}, nil)
}

// CountryCreateSubmit handles POST /Countries/Create.
func (s *Server) CountryCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in := model.Country{Name: r.FormValue("name")}
	created, err := s.Services.Countries.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderCountryForm(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("country created", "user", GetWebClaims(r.Context()).Username, "country", created.Name)
	done(w, r, "/Countries", "created")
}

// CountryEditPage handles GET /Countries/Edit/{id}.
func (s *Server) CountryEditPage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCountry(w, r)
	if !ok {
		return
	}
	s.renderCountryForm(w, r, http.StatusOK, *c, nil)
}

// CountryEditSubmit handles POST /Countries/Edit/{id}.
func (s *Server) CountryEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	in := model.Country{ID: id, Name: r.FormValue("name")}
	if err := s.Services.Countries.Update(r.Context(), in); err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderCountryForm(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("country updated", "user", GetWebClaims(r.Context()).Username, "country_id", id)
	done(w, r, "/Countries", "updated")
}

// CountryDeleteSubmit handles POST /Countries/Delete/{id}.
func (s *Server) CountryDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.Services.Countries.Delete(r.Context(), id)
	}
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	slog.Info("country deleted", "user", GetWebClaims(r.Context()).Username, "country_id", id)
	done(w, r, "/Countries", "deleted")
}

// CountrySearch handles GET /Countries/Search?name=.
func (s *Server) CountrySearch(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Services.Countries.Search(r.Context(), r.URL.Query().Get("name"))
	writeOptions(w, r, opts, err)
}

func (s *Server) loadCountry(w http.ResponseWriter, r *http.Request) (*model.Country, bool) {
	id, err := pathID(r)
	if err != nil {
		s.errorPage(w, r, err)
		return nil, false
	}
	c, err := s.Services.Countries.Get(r.Context(), id)
	if err != nil {
		s.errorPage(w, r, err)
		return nil, false
	}
	return c, true
}

func (s *Server) renderCountryForm(w http.ResponseWriter, r *http.Request, status int, c model.Country, errs []string) {
	title, action := "Nuevo país", "/Countries/Create"
	if c.ID != 0 {
		title, action = "Editar país", fmt.Sprintf("/Countries/Edit/%d", c.ID)
	}
	pd := s.page(r, title)
	pd.Errors = errs
	s.Templates.RenderStatus(w, status, "country_form.html", &countryForm{PageData: pd, Country: c, Action: action})
}

// writeOptions answers a typeahead search.
func writeOptions(w http.ResponseWriter, r *http.Request, opts []model.Option, err error) {
	if err != nil {
		msgs := userErrors(r, err)
		httpx.Error(w, statusFor(err), msgs[0])
		return
	}
	if opts == nil {
		opts = []model.Option{}
	}
	httpx.JSON(w, http.StatusOK, opts)
}
