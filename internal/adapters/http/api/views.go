package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/ctfboard/internal/domain/table"
	"github.com/okian/ctfboard/internal/domain/types"
)

const maxPageSizeDefault = 200

var validate = validator.New(validator.WithRequiredStructEnabled())

type pageLimits struct {
	def int
	max int
}

// listParams are the query parameters of a view listing.
// Page is 1-based on the wire.
type listParams struct {
	Query    string `validate:"max=256"`
	Sort     string `validate:"max=512"`
	Page     int    `validate:"min=1"`
	PageSize int    `validate:"min=1"`
}

// pageResponse is the JSON shape of one page of a view.
type pageResponse[T any] struct {
	View         types.View `json:"view"`
	Rows         []T        `json:"rows"`
	PageIndex    int        `json:"page_index"`
	PageSize     int        `json:"page_size"`
	PageCount    int        `json:"page_count"`
	TotalRows    int        `json:"total_rows"`
	FilteredRows int        `json:"filtered_rows"`
	Sort         string     `json:"sort"`
	Query        string     `json:"query"`
}

func parseListParams(r *http.Request, limits pageLimits) (listParams, error) {
	q := r.URL.Query()
	p := listParams{
		Query:    strings.TrimSpace(q.Get("q")),
		Sort:     strings.TrimSpace(q.Get("sort")),
		Page:     1,
		PageSize: limits.def,
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.New("page must be an integer")
		}
		p.Page = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.New("page_size must be an integer")
		}
		p.PageSize = n
	}
	if err := validate.Struct(p); err != nil {
		return p, err
	}
	p.PageSize = min(p.PageSize, limits.max)
	return p, nil
}

// viewHandler serves GET /api/v1/{view}?q=&sort=&page=&page_size=.
func viewHandler[T any](
	view types.View,
	fetch func(context.Context, table.Query) (table.Page[T], error),
	limits pageLimits,
) http.HandlerFunc {
	op := "api.list_" + string(view)
	return func(w http.ResponseWriter, r *http.Request) {
		if !readOnly(w, r, op) {
			return
		}
		params, err := parseListParams(r, limits)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		keys, err := table.ParseSort(params.Sort)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_sort", WrapKind(op, ErrBadRequest, err))
			return
		}

		page, err := fetch(r.Context(), table.Query{
			Filter:    params.Query,
			Sort:      keys,
			PageIndex: params.Page - 1,
			PageSize:  params.PageSize,
		})
		if err != nil {
			if isQueryError(err) {
				writeError(w, http.StatusBadRequest, "invalid_sort", WrapKind(op, ErrBadRequest, err))
				return
			}
			writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
			return
		}

		rows := page.Rows
		if rows == nil {
			rows = []T{}
		}
		writeJSON(w, http.StatusOK, pageResponse[T]{
			View:         view,
			Rows:         rows,
			PageIndex:    page.PageIndex,
			PageSize:     page.PageSize,
			PageCount:    page.PageCount,
			TotalRows:    page.TotalRows,
			FilteredRows: page.FilteredRows,
			Sort:         table.FormatSort(page.Sort),
			Query:        page.Filter,
		})
	}
}

func isQueryError(err error) bool {
	return errors.Is(err, table.ErrUnknownColumn) ||
		errors.Is(err, table.ErrNotSortable) ||
		errors.Is(err, table.ErrInvalidSort)
}
