package api

import (
	"net/http"

	"github.com/okian/ctfboard/internal/domain/ranking"
	"github.com/okian/ctfboard/internal/domain/table"
	"github.com/okian/ctfboard/internal/domain/types"
)

// columnInfo describes one column of a view.
type columnInfo struct {
	ID         string `json:"id"`
	Header     string `json:"header"`
	Sortable   bool   `json:"sortable"`
	Filterable bool   `json:"filterable"`
}

type columnsResponse struct {
	View    types.View   `json:"view"`
	Columns []columnInfo `json:"columns"`
}

// ColumnsHandler serves the column schema of each view.
type ColumnsHandler struct {
	schemas map[types.View][]columnInfo
}

// NewColumnsHandler creates a new columns handler.
func NewColumnsHandler() *ColumnsHandler {
	return &ColumnsHandler{schemas: map[types.View][]columnInfo{
		types.ViewTeams:        describe(ranking.TeamTable),
		types.ViewEvents:       describe(ranking.EventTable),
		types.ViewUniversities: describe(ranking.UniversityTable),
	}}
}

func describe[T any](t *table.Table[T]) []columnInfo {
	cols := t.Columns()
	out := make([]columnInfo, 0, len(cols))
	for _, c := range cols {
		out = append(out, columnInfo{
			ID:         c.ID,
			Header:     c.Header,
			Sortable:   c.Sortable(),
			Filterable: c.Filterable(),
		})
	}
	return out
}

// HandleColumns handles GET /api/v1/columns/{view} requests.
func (h *ColumnsHandler) HandleColumns(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_columns"
	if !readOnly(w, r, op) {
		return
	}
	view := types.View(r.PathValue("view"))
	schema, ok := h.schemas[view]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_view", NewKind(op, ErrUnknownView))
		return
	}
	writeJSON(w, http.StatusOK, columnsResponse{View: view, Columns: schema})
}
