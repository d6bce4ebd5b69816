package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

type bookForm struct {
	PageData
	Book       model.Book
	Action     string
	Categories []model.Lookup
	Editions   []model.Edition
	Countries  []model.Country
}

// BooksPage handles GET /Books.
func (s *Server) BooksPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := s.Services.Books.List(r.Context(), q.Get("title"), paging.FromQuery(q))
	if err != nil {
		s.errorPage(w, r, err)
		return
	}

	s.Templates.Render(w, "books.html", &struct {
		PageData
		Books []model.Book
		Title string
		Pager Pager
	}{
		PageData: s.page(r, "Libros"),
		Books:    pg.Items,
		Title:    q.Get("title"),
		Pager:    newPager(r, pg),
	})
}

// BookDetailPage handles GET /Books/Details/{id}.
func (s *Server) BookDetailPage(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBook(w, r)
	if !ok {
		return
	}
	s.renderBookDetail(w, r, http.StatusOK, b, nil)
}

func (s *Server) renderBookDetail(w http.ResponseWriter, r *http.Request, status int, b *model.Book, errs []string) {
	active, err := s.Services.Books.ActiveLoans(r.Context(), b.ID)
	if err != nil {
		errs = append(errs, userErrors(r, err)...)
	}

	pd := s.page(r, b.Title)
	pd.Errors = errs
	s.Templates.RenderStatus(w, status, "book_detail.html", &struct {
		PageData
		Book  *model.Book
		Loans []model.TeacherLoan
	}{
		PageData: pd,
		Book:     b,
		Loans:    active,
	})
}

// BookCreatePage handles GET /Books/Create.
func (s *Server) BookCreatePage(w http.ResponseWriter, r *http.Request) {
	s.renderBookForm(w, r, http.StatusOK, model.Book{}, nil)
}

// BookCreateSubmit handles POST /Books/Create.
func (s *Server) BookCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in := bookFromForm(r)
	if v := strings.TrimSpace(r.FormValue("existences")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = -1
		}
		in.Existences = n
	}

	created, err := s.Services.Books.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderBookForm(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("book created", "user", GetWebClaims(r.Context()).Username, "book", created.Title, "existences", created.Existences)
	done(w, r, fmt.Sprintf("/Books/Details/%d", created.ID), "created")
}

// BookEditPage handles GET /Books/Edit/{id}.
func (s *Server) BookEditPage(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBook(w, r)
	if !ok {
		return
	}
	s.renderBookForm(w, r, http.StatusOK, *b, nil)
}

// BookEditSubmit handles POST /Books/Edit/{id}.
func (s *Server) BookEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	in := bookFromForm(r)
	in.ID = id

	if err := s.Services.Books.Update(r.Context(), in); err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderBookForm(w, r, status, in, msgs)
		})
		return
	}
	slog.Info("book updated", "user", GetWebClaims(r.Context()).Username, "book_id", id)
	done(w, r, fmt.Sprintf("/Books/Details/%d", id), "updated")
}

// BookDeleteSubmit handles POST /Books/Delete/{id}.
func (s *Server) BookDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.Services.Books.Delete(r.Context(), id)
	}
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	slog.Info("book deleted", "user", GetWebClaims(r.Context()).Username, "book_id", id)
	done(w, r, "/Books", "deleted")
}

// BookStockSubmit handles POST /Books/Stock/{id}. The delta is signed.
func (s *Server) BookStockSubmit(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBook(w, r)
	if !ok {
		return
	}

	delta, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("delta")))
	updated, err := s.Services.Books.AdjustStock(r.Context(), b.ID, delta)
	if err != nil {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderBookDetail(w, r, status, b, msgs)
		})
		return
	}
	slog.Info("stock adjusted", "user", GetWebClaims(r.Context()).Username, "book", b.Title, "delta", delta, "existences", updated.Existences)
	done(w, r, fmt.Sprintf("/Books/Details/%d", b.ID), "stock")
}

// BookCoverSubmit handles POST /Books/Cover/{id}.
func (s *Server) BookCoverSubmit(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBook(w, r)
	if !ok {
		return
	}

	coverErr := func(err error) {
		s.fail(w, r, err, func(status int, msgs []string) {
			s.renderBookDetail(w, r, status, b, msgs)
		})
	}

	file, _, err := r.FormFile("cover")
	if err != nil {
		coverErr(catalog.Invalid(catalog.MsgInvalidCover))
		return
	}
	defer file.Close()

	if _, err := s.Services.Books.SetCover(r.Context(), b.ID, file); err != nil {
		coverErr(err)
		return
	}
	slog.Info("cover uploaded", "user", GetWebClaims(r.Context()).Username, "book", b.Title)
	done(w, r, fmt.Sprintf("/Books/Details/%d", b.ID), "cover")
}

// BookCoverGet handles GET /Books/Cover/{id}.
func (s *Server) BookCoverGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	info, rc, err := s.Services.Books.Cover(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to open cover", "book_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("failed to write cover response", "error", err)
	}
}

// BookSearch handles GET /Books/Search?name=. Matches on the title.
func (s *Server) BookSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Services.Books.Search(r.Context(), r.URL.Query().Get("name"))
	writeOptions(w, r, opts, err)
}

func bookFromForm(r *http.Request) model.Book {
	return model.Book{
		Title:      r.FormValue("title"),
		Author:     r.FormValue("author"),
		ISBN:       r.FormValue("isbn"),
		CategoryID: formOptionalID(r, "category_id"),
		EditionID:  formOptionalID(r, "edition_id"),
		CountryID:  formOptionalID(r, "country_id"),
	}
}

func (s *Server) loadBook(w http.ResponseWriter, r *http.Request) (*model.Book, bool) {
	id, err := pathID(r)
	if err != nil {
		s.errorPage(w, r, err)
		return nil, false
	}
	b, err := s.Services.Books.Get(r.Context(), id)
	if err != nil {
		s.errorPage(w, r, err)
		return nil, false
	}
	return b, true
}

func (s *Server) renderBookForm(w http.ResponseWriter, r *http.Request, status int, b model.Book, errs []string) {
	title, action := "Nuevo libro", "/Books/Create"
	if b.ID != 0 {
		title, action = "Editar libro", fmt.Sprintf("/Books/Edit/%d", b.ID)
	}

	form := bookForm{Book: b, Action: action}
	var err error
	if form.Categories, err = s.Services.Categories.All(r.Context()); err != nil {
		errs = append(errs, userErrors(r, err)...)
	}
	if form.Editions, err = s.Services.Editions.All(r.Context()); err != nil {
		errs = append(errs, userErrors(r, err)...)
	}
	if form.Countries, err = s.Services.Countries.All(r.Context()); err != nil {
		errs = append(errs, userErrors(r, err)...)
	}

	form.PageData = s.page(r, title)
	form.PageData.Errors = errs
	s.Templates.RenderStatus(w, status, "book_form.html", &form)
}
