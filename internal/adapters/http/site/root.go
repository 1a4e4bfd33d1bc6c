// Package site serves the server-rendered HTML ranking pages.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/ctfboard/internal/domain/ranking"
	"github.com/okian/ctfboard/internal/domain/table"
	"github.com/okian/ctfboard/internal/domain/types"
	"github.com/okian/ctfboard/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("page render failed")
)

// Rankings is what the pages read from.
type Rankings interface {
	Teams(ctx context.Context, q table.Query) (table.Page[types.TeamRow], error)
	Events(ctx context.Context, q table.Query) (table.Page[types.EventRow], error)
	Universities(ctx context.Context, q table.Query) (table.Page[types.UniversityRow], error)
}

// Site renders the three ranking views.
type Site struct {
	deps     Rankings
	pageSize int
	logger   logger.Logger
}

// Option applies a configuration option to the Site.
type Option func(*Site)

// WithPageSize sets the number of rows per page.
func WithPageSize(n int) Option {
	return func(s *Site) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger sets the logger used for render failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Site) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates the site.
func New(deps Rankings, opts ...Option) *Site {
	s := &Site{deps: deps, pageSize: table.DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("site")
	}
	return s
}

// Register attaches the site routes to mux.
func (s *Site) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+string(types.ViewUniversities), http.StatusFound)
	})
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(FS())))

	mux.HandleFunc("GET /"+string(types.ViewTeams), func(w http.ResponseWriter, r *http.Request) {
		render(s, w, r, viewSpec[types.TeamRow]{
			view: types.ViewTeams, title: "Academic Team Rankings",
			fetch: s.deps.Teams, table: ranking.TeamTable, cells: teamCells,
		})
	})
	mux.HandleFunc("GET /"+string(types.ViewEvents), func(w http.ResponseWriter, r *http.Request) {
		render(s, w, r, viewSpec[types.EventRow]{
			view: types.ViewEvents, title: "CTF Rankings",
			fetch: s.deps.Events, table: ranking.EventTable, cells: eventCells,
		})
	})
	mux.HandleFunc("GET /"+string(types.ViewUniversities), func(w http.ResponseWriter, r *http.Request) {
		render(s, w, r, viewSpec[types.UniversityRow]{
			view: types.ViewUniversities, title: "University Rankings",
			fetch: s.deps.Universities, table: ranking.UniversityTable, cells: universityCells,
		})
	})
}
