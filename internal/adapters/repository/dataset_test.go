package repository_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	repository "github.com/okian/ctfboard/internal/adapters/repository"
	"github.com/okian/ctfboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const teamsDoc = `{
	"1": {"id": 1, "name": "A", "university": "MIT", "rating": {"2024": {"rating_points": 10}}},
	"2": {"id": 2, "primary_alias": "b", "rating": {}}
}`

const eventsDoc = `[
	{"id": 10, "title": "One", "start": "2024-05-01T00:00:00+00:00", "weight": 20},
	{"id": 11, "title": "Two", "start": "soon", "weight": 5}
]`

func TestNewDatasetStore(t *testing.T) {
	Convey("Given the embedded datasets", t, func() {
		ctx := context.Background()
		store, err := repository.NewDatasetStore(ctx)

		Convey("Then the initial load should succeed", func() {
			So(err, ShouldBeNil)
			snap, err := store.Snapshot(ctx)
			So(err, ShouldBeNil)
			So(len(snap.Teams), ShouldBeGreaterThan, 0)
			So(len(snap.Events), ShouldBeGreaterThan, 0)
			So(snap.TeamsSource, ShouldEqual, "embedded:data/teams.json")
		})
	})

	Convey("Given in-memory sources", t, func() {
		ctx := context.Background()
		loadedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		store, err := repository.NewDatasetStore(ctx,
			repository.WithTeamsSource(repository.BytesSource("teams", []byte(teamsDoc))),
			repository.WithEventsSource(repository.BytesSource("events", []byte(eventsDoc))),
			repository.WithClock(func() time.Time { return loadedAt }),
		)
		So(err, ShouldBeNil)

		Convey("When reading the snapshot", func() {
			snap, err := store.Snapshot(ctx)

			Convey("Then both datasets should be decoded", func() {
				So(err, ShouldBeNil)
				So(snap.Teams, ShouldHaveLength, 2)
				So(snap.Teams[1].University, ShouldEqual, "MIT")
				So(snap.Events, ShouldHaveLength, 2)
				So(snap.LoadedAt.Equal(loadedAt), ShouldBeTrue)
				So(snap.Dataset().Events, ShouldHaveLength, 2)
			})

			Convey("And unparsable timestamps should decode to zero", func() {
				So(snap.Events[1].Start.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := store.Snapshot(cctx)

			Convey("Then Snapshot should return the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a teams document with the wrong top-level shape", t, func() {
		_, err := repository.NewDatasetStore(context.Background(),
			repository.WithTeamsSource(repository.BytesSource("teams", []byte(`[1, 2]`))),
			repository.WithEventsSource(repository.BytesSource("events", []byte(eventsDoc))),
		)

		Convey("Then construction should fail with ErrDecode", func() {
			So(errors.Is(err, repository.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given records with fields of the wrong type", t, func() {
		ctx := context.Background()
		var logs bytes.Buffer
		So(logger.Init(logger.WithOutput(&logs)), ShouldBeNil)

		teams := `{
			"1": {"name": "typo", "university": "MIT", "rating": {"2024": {"rating_points": 42, "rating_place": "12"}}},
			"2": {"name": "clean", "rating": {"2024": {"rating_points": 10, "rating_place": 3}}},
			"3": "not a team",
			"x": {"name": "bad key"}
		}`
		events := `[
			{"id": 10, "title": "One", "participants": "120", "weight": 20},
			7,
			{"id": 11, "title": "Two", "participants": 5}
		]`
		store, err := repository.NewDatasetStore(ctx,
			repository.WithTeamsSource(repository.BytesSource("teams", []byte(teams))),
			repository.WithEventsSource(repository.BytesSource("events", []byte(events))),
			repository.WithLogger(logger.Get()),
		)

		Convey("Then the load should still succeed", func() {
			So(err, ShouldBeNil)
			snap, err := store.Snapshot(ctx)
			So(err, ShouldBeNil)

			Convey("And the bad field should be defaulted while the rest decodes", func() {
				So(snap.Teams, ShouldHaveLength, 2)
				r := snap.Teams[1].Rating[2024]
				So(r.RatingPoints, ShouldEqual, 42)
				So(r.RatingPlace, ShouldBeNil)
				So(snap.Teams[1].University, ShouldEqual, "MIT")
				So(*snap.Teams[2].Rating[2024].RatingPlace, ShouldEqual, 3)
			})

			Convey("And events keep their order with bad fields zeroed", func() {
				So(snap.Events, ShouldHaveLength, 2)
				So(snap.Events[0].Title, ShouldEqual, "One")
				So(snap.Events[0].Participants, ShouldEqual, 0)
				So(snap.Events[0].Weight, ShouldEqual, 20)
				So(snap.Events[1].ID, ShouldEqual, 11)
			})

			Convey("And every malformed record should be counted and logged", func() {
				So(snap.MalformedRecords, ShouldEqual, 5)
				So(logs.String(), ShouldContainSubstring, "malformed dataset record")
				So(logs.String(), ShouldContainSubstring, "defaulted")
				So(logs.String(), ShouldContainSubstring, "dropped")
			})
		})
	})

	Convey("Given a missing events file", t, func() {
		_, err := repository.NewDatasetStore(context.Background(),
			repository.WithEventsFile(filepath.Join(t.TempDir(), "missing.json")),
		)

		Convey("Then construction should fail with ErrLoad", func() {
			So(errors.Is(err, repository.ErrLoad), ShouldBeTrue)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

func TestReload(t *testing.T) {
	Convey("Given a store backed by files", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		teamsPath := filepath.Join(dir, "teams.json")
		eventsPath := filepath.Join(dir, "events.json")
		So(os.WriteFile(teamsPath, []byte(teamsDoc), 0o600), ShouldBeNil)
		So(os.WriteFile(eventsPath, []byte(eventsDoc), 0o600), ShouldBeNil)

		store, err := repository.NewDatasetStore(ctx,
			repository.WithTeamsFile(teamsPath),
			repository.WithEventsFile(eventsPath),
		)
		So(err, ShouldBeNil)
		first, _ := store.Snapshot(ctx)

		Convey("When the files change and the store reloads", func() {
			So(os.WriteFile(eventsPath, []byte(`[]`), 0o600), ShouldBeNil)
			So(store.Reload(ctx), ShouldBeNil)
			second, _ := store.Snapshot(ctx)

			Convey("Then a new snapshot should be published", func() {
				So(second.Events, ShouldHaveLength, 0)
				So(second.EventsSource, ShouldEqual, "file:"+eventsPath)
			})

			Convey("And the old snapshot should be untouched", func() {
				So(first.Events, ShouldHaveLength, 2)
			})
		})

		Convey("When a reload fails", func() {
			So(os.WriteFile(teamsPath, []byte(`{broken`), 0o600), ShouldBeNil)
			err := store.Reload(ctx)
			current, _ := store.Snapshot(ctx)

			Convey("Then the previous snapshot should stay current", func() {
				So(errors.Is(err, repository.ErrDecode), ShouldBeTrue)
				So(current, ShouldPointTo, first)
			})
		})

		Convey("When readers race a reload", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 50; j++ {
						snap, err := store.Snapshot(ctx)
						if err != nil || len(snap.Teams) != 2 {
							panic("partial snapshot observed")
						}
					}
				}()
			}
			for i := 0; i < 5; i++ {
				So(store.Reload(ctx), ShouldBeNil)
			}
			wg.Wait()

			Convey("Then every reader should see a complete snapshot", func() {
				snap, err := store.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(snap.Teams, ShouldHaveLength, 2)
			})
		})
	})
}
