package api

import (
	"net/http"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/httpx"
	"github.com/erazemk/biblioteca/internal/paging"
)

// CatalogHandler serves the book and country listings.
type CatalogHandler struct {
	Books     *catalog.Books
	Countries *catalog.Countries
}

// ListBooks handles GET /api/books?title=&page=&pageSize=.
func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := h.Books.List(r.Context(), q.Get("title"), paging.FromQuery(q))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPageResponse(pg))
}

// ListCountries handles GET /api/countries?name=&page=&pageSize=.
func (h *CatalogHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := h.Countries.List(r.Context(), q.Get("name"), paging.FromQuery(q))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPageResponse(pg))
}
