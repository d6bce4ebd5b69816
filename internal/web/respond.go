package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/httpx"
	"github.com/erazemk/biblioteca/internal/paging"
)

// inputDateLayout is what <input type="date"> submits.
const inputDateLayout = "2006-01-02"

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var ve *catalog.ValidationError
	var ce *catalog.ConflictError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInUse), errors.As(err, &ce):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// userErrors returns the messages to show for err. Unknown errors are
// logged with their cause and shown as a generic message.
func userErrors(r *http.Request, err error) []string {
	var ve *catalog.ValidationError
	if errors.As(err, &ve) {
		return ve.Messages
	}
	msg, known := catalog.UserMessage(err)
	if !known {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestID(r.Context()),
			"error", err,
		)
	}
	return []string{msg}
}

// fail answers a failed request: a JSON Result for AJAX callers, otherwise
// the page rendered by form with the error messages.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, form func(status int, msgs []string)) {
	status := statusFor(err)
	msgs := userErrors(r, err)
	if httpx.IsAJAX(r) {
		httpx.Fail(w, status, msgs[0], msgs...)
		return
	}
	form(status, msgs)
}

// errorPage renders err as a standalone page. Used where there is no form
// to re-render, such as a missing record.
func (s *Server) errorPage(w http.ResponseWriter, r *http.Request, err error) {
	s.fail(w, r, err, func(status int, msgs []string) {
		pd := s.page(r, "Error")
		pd.Errors = msgs
		s.Templates.RenderStatus(w, status, "error.html", &pd)
	})
}

// done answers a successful mutation with a redirect, or a JSON Result
// for AJAX callers.
func done(w http.ResponseWriter, r *http.Request, to, notice string) {
	if httpx.IsAJAX(r) {
		httpx.OK(w, notices[notice], to)
		return
	}
	if notice != "" {
		sep := "?"
		if strings.Contains(to, "?") {
			sep = "&"
		}
		to += sep + "ok=" + notice
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, catalog.ErrNotFound
	}
	return id, nil
}

func formInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue(key)), 10, 64)
	return v
}

func formOptionalID(r *http.Request, key string) *int64 {
	if v := formInt64(r, key); v > 0 {
		return &v
	}
	return nil
}

// formDate reads a date field. Both the browser's ISO format and dd/mm/yyyy
// are accepted; anything unparsable counts as not supplied.
func formDate(r *http.Request, key string) *time.Time {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	for _, layout := range []string{inputDateLayout, "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// Pager is the pagination bar of a listing. It keeps the current filters
// in every link.
type Pager struct {
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	Path       string
	Query      url.Values
}

func newPager[T any](r *http.Request, pg paging.Page[T]) Pager {
	return Pager{
		Page:       pg.Page,
		PageSize:   pg.PageSize,
		Total:      pg.Total,
		TotalPages: pg.TotalPages,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
	}
}

func (p Pager) HasPrev() bool { return p.Page > 1 }
func (p Pager) HasNext() bool { return p.Page < p.TotalPages }
func (p Pager) Prev() int     { return p.Page - 1 }
func (p Pager) Next() int     { return p.Page + 1 }

func (p Pager) Pages() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Sizes are the page sizes offered in the size selector.
func (p Pager) Sizes() []int { return paging.SizeChoices }

// URL links to page n with the current size and filters.
func (p Pager) URL(n int) string {
	return p.link(n, p.PageSize)
}

// SizeURL links to the first page with size n.
func (p Pager) SizeURL(n int) string {
	return p.link(1, n)
}

func (p Pager) link(page, size int) string {
	q := url.Values{}
	for k, v := range p.Query {
		if k == "ok" {
			continue
		}
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(size))
	return p.Path + "?" + q.Encode()
}
