// Package debug serves a spew dump of the loaded datasets and view models.
// It is only mounted when debugging is enabled in the configuration.
package debug

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	repository "github.com/okian/ctfboard/internal/adapters/repository"
	"github.com/okian/ctfboard/internal/domain/types"
)

//go:embed debug_index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// Source exposes the data worth dumping.
type Source interface {
	Snapshot(ctx context.Context) (*repository.Snapshot, error)
	Rows(ctx context.Context, view types.View) (any, error)
	GetStats() map[string]any
}

// dataTypes lists the accepted dataType values in menu order.
var dataTypes = []string{"teams", "events", "team_rows", "event_rows", "university_rows", "stats"}

var dumper = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true, MaxDepth: 6}

type debugData struct {
	Title string
	Pre   string
	Types []string
}

// Register attaches GET /debug/ to mux.
func Register(_ context.Context, mux *http.ServeMux, src Source) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /debug/", func(w http.ResponseWriter, r *http.Request) {
		handleIndex(w, r, src)
	})
}

func handleIndex(w http.ResponseWriter, r *http.Request, src Source) {
	ctx := r.Context()
	dataType := r.URL.Query().Get("dataType")

	var (
		data  any
		title string
		err   error
	)
	switch dataType {
	case "teams", "events":
		var snap *repository.Snapshot
		snap, err = src.Snapshot(ctx)
		if err == nil {
			if dataType == "teams" {
				data, title = snap.Teams, "Dataset - Teams ("+snap.TeamsSource+")"
			} else {
				data, title = snap.Events, "Dataset - Events ("+snap.EventsSource+")"
			}
		}
	case "team_rows":
		data, err = src.Rows(ctx, types.ViewTeams)
		title = "View - Team Rankings"
	case "event_rows":
		data, err = src.Rows(ctx, types.ViewEvents)
		title = "View - CTF Rankings"
	case "university_rows":
		data, err = src.Rows(ctx, types.ViewUniversities)
		title = "View - University Rankings"
	case "stats":
		data, title = src.GetStats(), "Service - Stats"
	default:
		data = map[string]any{"error": "Please use one of the following dataType values", "dataType": dataTypes}
		title = "Choose a data type"
	}
	if err != nil {
		data = map[string]string{"error": err.Error()}
		title = "Error - " + dataType
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := indexTemplate.Execute(w, debugData{Title: title, Pre: dumper.Sdump(data), Types: dataTypes}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
