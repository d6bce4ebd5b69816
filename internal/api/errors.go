package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/httpx"
	"github.com/erazemk/biblioteca/internal/paging"
)

// fail writes err as a JSON error. Unknown errors are logged and reported
// without their cause.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	msg, known := catalog.UserMessage(err)
	status := http.StatusInternalServerError
	var ve *catalog.ValidationError
	var ce *catalog.ConflictError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrInUse), errors.As(err, &ce):
		status = http.StatusConflict
	}
	if !known {
		slog.Error("api request failed",
			"path", r.URL.Path,
			"request_id", httpx.RequestID(r.Context()),
			"error", err,
		)
	}
	httpx.Error(w, status, msg)
}

// pageResponse is the JSON shape of every paged listing.
type pageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPageResponse[T any](pg paging.Page[T]) pageResponse[T] {
	items := pg.Items
	if items == nil {
		items = []T{}
	}
	return pageResponse[T]{
		Items:      items,
		Page:       pg.Page,
		PageSize:   pg.PageSize,
		Total:      pg.Total,
		TotalPages: pg.TotalPages,
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
