package api_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/ctfboard/internal/adapters/http/api"
	"github.com/okian/ctfboard/internal/domain/ranking"
	"github.com/okian/ctfboard/internal/domain/table"
	"github.com/okian/ctfboard/internal/domain/types"
	"github.com/okian/ctfboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// stubRankings serves fixed rows through the real ranking tables.
type stubRankings struct {
	teams []types.TeamRow
	err   error
}

func (s *stubRankings) Teams(_ context.Context, q table.Query) (table.Page[types.TeamRow], error) {
	if s.err != nil {
		return table.Page[types.TeamRow]{}, s.err
	}
	page, err := ranking.TeamTable.Apply(s.teams, q)
	if err != nil {
		return page, fmt.Errorf("invalid table query: %w", err)
	}
	return page, nil
}

func (s *stubRankings) Events(_ context.Context, q table.Query) (table.Page[types.EventRow], error) {
	if s.err != nil {
		return table.Page[types.EventRow]{}, s.err
	}
	return ranking.EventTable.Apply(nil, q)
}

func (s *stubRankings) Universities(_ context.Context, q table.Query) (table.Page[types.UniversityRow], error) {
	if s.err != nil {
		return table.Page[types.UniversityRow]{}, s.err
	}
	return ranking.UniversityTable.Apply(ranking.BuildUniversityRows(s.teams), q)
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

type pageBody struct {
	View         string            `json:"view"`
	Rows         []json.RawMessage `json:"rows"`
	PageIndex    int               `json:"page_index"`
	PageSize     int               `json:"page_size"`
	PageCount    int               `json:"page_count"`
	TotalRows    int               `json:"total_rows"`
	FilteredRows int               `json:"filtered_rows"`
	Sort         string            `json:"sort"`
	Query        string            `json:"query"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sampleTeams(n int) []types.TeamRow {
	rows := make([]types.TeamRow, 0, n)
	for i := 1; i <= n; i++ {
		uni := "Uni " + string(rune('A'+i%3))
		rows = append(rows, types.TeamRow{
			ID:           i,
			Name:         fmt.Sprintf("team-%02d", i),
			Country:      "US",
			University:   uni,
			RatingPoints: float64(100 - i),
		})
	}
	return rows
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"started": true}}, opts...)
	server.Register(context.Background(), mux)
	return mux
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(&stubRankings{teams: sampleTeams(5)})

		Convey("Then the health endpoint should serve metrics", func() {
			w := get(mux, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "ctfboard_")
		})

		Convey("And the stats endpoint should serve JSON", func() {
			w := get(mux, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And every view endpoint should be routed", func() {
			for _, view := range types.Views {
				w := get(mux, "/api/v1/"+string(view))
				So(w.Code, ShouldEqual, http.StatusOK)
			}
		})

		Convey("And a nil mux should panic", func() {
			server := api.NewServer(&stubRankings{}, &mockStatsProvider{})
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestViewHandler(t *testing.T) {
	Convey("Given 45 team rows", t, func() {
		mux := newMux(&stubRankings{teams: sampleTeams(45)}, api.WithPageSizes(20, 50))

		Convey("When requesting the first page", func() {
			w := get(mux, "/api/v1/teams")
			var body pageBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then pagination metadata should describe the table", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body.View, ShouldEqual, "teams")
				So(body.Rows, ShouldHaveLength, 20)
				So(body.PageIndex, ShouldEqual, 0)
				So(body.PageSize, ShouldEqual, 20)
				So(body.PageCount, ShouldEqual, 3)
				So(body.TotalRows, ShouldEqual, 45)
				So(body.FilteredRows, ShouldEqual, 45)
			})
		})

		Convey("When requesting the last page by its 1-based number", func() {
			w := get(mux, "/api/v1/teams?page=3")
			var body pageBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then the remainder should be returned", func() {
				So(body.PageIndex, ShouldEqual, 2)
				So(body.Rows, ShouldHaveLength, 5)
			})
		})

		Convey("When requesting a page past the end", func() {
			w := get(mux, "/api/v1/teams?page=99")
			var body pageBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then the index should clamp to the last page", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body.PageIndex, ShouldEqual, 2)
			})
		})

		Convey("When filtering and sorting", func() {
			w := get(mux, "/api/v1/teams?q=TEAM-0&sort=name:desc&page_size=50")
			var body pageBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then the response should echo the applied query", func() {
				So(body.FilteredRows, ShouldEqual, 9)
				So(body.Sort, ShouldEqual, "name:desc")
				So(body.Query, ShouldEqual, "TEAM-0")
				So(string(body.Rows[0]), ShouldContainSubstring, `"team-09"`)
			})
		})

		Convey("When nothing matches", func() {
			w := get(mux, "/api/v1/teams?q=zzz")
			var body pageBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then rows should be an empty array and one page remains", func() {
				So(w.Body.String(), ShouldContainSubstring, `"rows":[]`)
				So(body.PageCount, ShouldEqual, 1)
			})
		})

		Convey("When page_size exceeds the maximum", func() {
			w := get(mux, "/api/v1/teams?page_size=51")
			var body pageBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then it should be capped at the maximum", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body.PageSize, ShouldEqual, 50)
				So(body.Rows, ShouldHaveLength, 45)
				So(body.PageCount, ShouldEqual, 1)
			})
		})

		Convey("When the parameters are invalid", func() {
			cases := map[string]string{
				"/api/v1/teams?page=abc":         "bad_request",
				"/api/v1/teams?page=0":           "bad_request",
				"/api/v1/teams?page_size=0":      "bad_request",
				"/api/v1/teams?sort=name:upward": "invalid_sort",
				"/api/v1/teams?sort=shoe_size":   "invalid_sort",
			}
			for target, code := range cases {
				Convey("Then "+target+" should be rejected", func() {
					w := get(mux, target)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					var body errorBody
					So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
					So(body.Code, ShouldEqual, code)
					So(body.Message, ShouldNotBeEmpty)
				})
			}
		})

		Convey("When posting to a view", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/teams", strings.NewReader("{}"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be refused", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
			})
		})
	})

	Convey("Given rankings that failed to load", t, func() {
		mux := newMux(&stubRankings{err: errors.New("ranking aggregation failed")})

		Convey("Then every view should answer 503", func() {
			for _, view := range types.Views {
				w := get(mux, "/api/v1/"+string(view))
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "unavailable")
			}
		})
	})
}

func TestColumnsHandler(t *testing.T) {
	Convey("Given the columns endpoint", t, func() {
		mux := newMux(&stubRankings{})

		Convey("When describing the ctfs view", func() {
			w := get(mux, "/api/v1/columns/ctfs")
			var body struct {
				View    string `json:"view"`
				Columns []struct {
					ID         string `json:"id"`
					Header     string `json:"header"`
					Sortable   bool   `json:"sortable"`
					Filterable bool   `json:"filterable"`
				} `json:"columns"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then the schema should follow the table definition", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body.View, ShouldEqual, "ctfs")
				So(body.Columns, ShouldHaveLength, len(ranking.EventTable.Columns()))
				So(body.Columns[0].ID, ShouldEqual, ranking.ColTitle)
				for _, c := range body.Columns {
					if c.ID == ranking.ColOrganizers {
						So(c.Sortable, ShouldBeFalse)
						So(c.Filterable, ShouldBeTrue)
					}
				}
			})
		})

		Convey("When describing an unknown view", func() {
			w := get(mux, "/api/v1/columns/players")

			Convey("Then it should answer 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, "unknown_view")
			})
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given an API restricted to one origin", t, func() {
		mux := newMux(&stubRankings{}, api.WithCORSOrigins([]string{"https://board.example"}))

		Convey("When an allowed origin calls", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ctfs", http.NoBody)
			req.Header.Set("Origin", "https://board.example")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the origin should be echoed", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://board.example")
			})
		})

		Convey("When another origin calls", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ctfs", http.NoBody)
			req.Header.Set("Origin", "https://evil.example")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then no CORS grant should be sent", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})

		Convey("When a preflight request arrives", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/ctfs", http.NoBody)
			req.Header.Set("Origin", "https://board.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be answered without reaching the handler", func() {
				So(w.Code, ShouldBeIn, []int{http.StatusOK, http.StatusNoContent})
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, http.MethodGet)
			})
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given an API limited to a burst of two", t, func() {
		mux := newMux(&stubRankings{}, api.WithRateLimit(0.001, 2))

		Convey("When one client sends three requests", func() {
			codes := []int{}
			for i := 0; i < 3; i++ {
				codes = append(codes, get(mux, "/api/v1/ctfs").Code)
			}

			Convey("Then the third should be rejected", func() {
				So(codes, ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
			})
		})

		Convey("When a different client calls", func() {
			get(mux, "/api/v1/ctfs")
			get(mux, "/api/v1/ctfs")
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ctfs", http.NoBody)
			req.RemoteAddr = "203.0.113.7:4000"
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should have its own bucket", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("Then the health endpoint should not be limited", func() {
			for i := 0; i < 5; i++ {
				So(get(mux, "/healthz").Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestMiddlewareChain(t *testing.T) {
	Convey("Given the full middleware chain", t, func() {
		compress, err := api.Compression(5, 16)
		So(err, ShouldBeNil)

		var seenID string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID = logger.RequestID(r.Context())
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, strings.Repeat("ctf ", 100))
		})
		h := api.Chain(inner, api.RequestID, api.RequestLogger(logger.Discard()), api.SecurityHeaders, compress)

		Convey("When a client accepts gzip", func() {
			req := httptest.NewRequest(http.MethodGet, "/anything", http.NoBody)
			req.Header.Set("Accept-Encoding", "gzip")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then the body should be compressed", func() {
				So(w.Header().Get("Content-Encoding"), ShouldEqual, "gzip")
				zr, err := gzip.NewReader(w.Body)
				So(err, ShouldBeNil)
				plain, err := io.ReadAll(zr)
				So(err, ShouldBeNil)
				So(string(plain), ShouldStartWith, "ctf ctf")
			})

			Convey("And a request id should be minted and propagated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
				So(seenID, ShouldEqual, w.Header().Get(api.RequestIDHeader))
			})

			Convey("And security headers should be set", func() {
				So(w.Header().Get("X-Content-Type-Options"), ShouldEqual, "nosniff")
				So(w.Header().Get("X-Frame-Options"), ShouldEqual, "DENY")
			})
		})

		Convey("When the client sends its own request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/anything", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be reused", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
				So(seenID, ShouldEqual, "abc-123")
			})
		})
	})

	Convey("Given an invalid compression level", t, func() {
		_, err := api.Compression(42, 0)

		Convey("Then building the middleware should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
