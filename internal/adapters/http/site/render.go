package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/ctfboard/internal/domain/table"
	"github.com/okian/ctfboard/internal/domain/types"
	"github.com/okian/ctfboard/pkg/logger"
)

var navLabels = map[types.View]string{
	types.ViewUniversities: "Universities",
	types.ViewTeams:        "Teams",
	types.ViewEvents:       "CTFs",
}

type viewSpec[T any] struct {
	view  types.View
	title string
	fetch func(context.Context, table.Query) (table.Page[T], error)
	table *table.Table[T]
	cells map[string]func(T) template.HTML
}

type navLink struct {
	Label  string
	Href   string
	Active bool
}

type headerCell struct {
	Label string
	Href  string
	Arrow string
}

type pageData struct {
	Title  string
	Nav    []navLink
	Action string
	Query  string
	Sort   string

	Headers     []headerCell
	Rows        [][]template.HTML
	ColumnCount int

	From, To, Total       int
	PageNumber, PageCount int
	First, Prev           string
	Next, Last            string

	Error string
	Retry string
}

func render[T any](s *Site, w http.ResponseWriter, r *http.Request, spec viewSpec[T]) {
	ctx := r.Context()
	path := "/" + string(spec.view)
	params := r.URL.Query()
	filter := strings.TrimSpace(params.Get("q"))

	data := pageData{
		Title:  spec.title,
		Nav:    nav(spec.view),
		Action: path,
		Query:  filter,
		Retry:  r.URL.RequestURI(),
	}

	keys, err := table.ParseSort(params.Get("sort"))
	if err == nil {
		err = spec.table.ValidateSort(keys)
	}
	if err != nil {
		data.Error = "Invalid sort parameter."
		data.Retry = link(path, filter, nil, 1)
		s.write(ctx, w, http.StatusBadRequest, data)
		return
	}

	page, err := spec.fetch(ctx, table.Query{
		Filter:    filter,
		Sort:      keys,
		PageIndex: pageParam(params.Get("page")) - 1,
		PageSize:  s.pageSize,
	})
	if err != nil {
		s.logger.Error(ctx, "rankings unavailable", logger.String("view", string(spec.view)), logger.Error(err))
		data.Error = "Failed to load rankings."
		s.write(ctx, w, http.StatusServiceUnavailable, data)
		return
	}

	data.Sort = table.FormatSort(keys)
	cols := spec.table.Columns()
	data.ColumnCount = len(cols)
	for _, c := range cols {
		h := headerCell{Label: c.Header}
		if c.Sortable() {
			h.Href = link(path, filter, table.ToggleSort(keys, c.ID), 1)
			switch table.DirectionOf(keys, c.ID) {
			case table.Asc:
				h.Arrow = "▲"
			case table.Desc:
				h.Arrow = "▼"
			}
		}
		data.Headers = append(data.Headers, h)
	}
	for _, row := range page.Rows {
		cells := make([]template.HTML, len(cols))
		for i, c := range cols {
			cells[i] = cell(spec.cells, c, row)
		}
		data.Rows = append(data.Rows, cells)
	}

	data.From, data.To, data.Total = page.From(), page.To(), page.FilteredRows
	data.PageNumber, data.PageCount = page.PageIndex+1, page.PageCount
	if page.HasPrev() {
		data.First = link(path, filter, keys, 1)
		data.Prev = link(path, filter, keys, page.PageIndex)
	}
	if page.HasNext() {
		data.Next = link(path, filter, keys, page.PageIndex+2)
		data.Last = link(path, filter, keys, page.PageCount)
	}
	s.write(ctx, w, http.StatusOK, data)
}

// cell renders one cell, falling back to the escaped filter or sort text.
func cell[T any](renderers map[string]func(T) template.HTML, c table.Column[T], row T) template.HTML {
	if f, ok := renderers[c.ID]; ok {
		return f(row)
	}
	switch {
	case c.Text != nil:
		return text(c.Text(row))
	case c.Value != nil:
		return text(c.Value(row).String())
	}
	return ""
}

func (s *Site) write(ctx context.Context, w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error(ctx, "template execution failed", logger.Error(fmt.Errorf("%w: %w", ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func nav(active types.View) []navLink {
	links := make([]navLink, 0, len(types.Views))
	for _, v := range types.Views {
		links = append(links, navLink{Label: navLabels[v], Href: "/" + string(v), Active: v == active})
	}
	return links
}

// link builds a page URL. page is 1-based and omitted when it is the first.
func link(path, filter string, keys []table.SortKey, page int) string {
	v := url.Values{}
	if filter != "" {
		v.Set("q", filter)
	}
	if len(keys) > 0 {
		v.Set("sort", table.FormatSort(keys))
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// pageParam reads a 1-based page number, defaulting to 1.
func pageParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
