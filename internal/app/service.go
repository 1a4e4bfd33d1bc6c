// Package service provides the core business service that implements
// the dependencies required by the HTTP layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	repository "github.com/okian/ctfboard/internal/adapters/repository"
	"github.com/okian/ctfboard/internal/domain/model"
	"github.com/okian/ctfboard/internal/domain/ranking"
	"github.com/okian/ctfboard/internal/domain/table"
	"github.com/okian/ctfboard/internal/domain/types"
	"github.com/okian/ctfboard/pkg/logger"
	"github.com/okian/ctfboard/pkg/metrics"
)

// reloadTimeout bounds one scheduled dataset reload.
const reloadTimeout = time.Minute

// Service rebuilds the ranking views from the current dataset snapshot on
// every query. It holds no derived state between calls.
type Service struct {
	mu sync.RWMutex

	// Core components
	store repository.Store
	cron  *cron.Cron

	// Configuration
	teamsFile      string
	eventsFile     string
	eventWindow    time.Duration
	reloadSchedule string
	now            func() time.Time

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a dataset store. Without it Start builds one.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDatasetFiles reads datasets from files instead of the embedded copies.
// Empty paths keep the embedded dataset.
func WithDatasetFiles(teams, events string) Option {
	return func(s *Service) {
		s.teamsFile = teams
		s.eventsFile = events
	}
}

// WithClock overrides the clock used for the event window and rating year.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEventWindow sets the trailing window of the CTF rankings.
func WithEventWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.eventWindow = d
		}
	}
}

// WithReloadSchedule reloads the datasets on a cron schedule.
func WithReloadSchedule(spec string) Option {
	return func(s *Service) {
		s.reloadSchedule = spec
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		eventWindow: ranking.DefaultEventWindow,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the datasets and starts the reload schedule, if any.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rankings service...")

	if s.store == nil {
		store, err := repository.NewDatasetStore(ctx,
			repository.WithTeamsFile(s.teamsFile),
			repository.WithEventsFile(s.eventsFile),
			repository.WithLogger(s.logger.Named("repository")),
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		s.store = store
	}

	if s.reloadSchedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{l: s.logger})))
		if _, err := c.AddFunc(s.reloadSchedule, s.scheduledReload); err != nil {
			return fmt.Errorf("%w: reload schedule %q: %w", ErrInvalidOption, s.reloadSchedule, err)
		}
		c.Start()
		s.cron = c
	}

	s.started = true
	fields := []logger.Field{
		logger.Duration("eventWindow", s.eventWindow),
		logger.String("reloadSchedule", s.reloadSchedule),
	}
	if snap, err := s.store.Snapshot(ctx); err == nil {
		fields = append(fields,
			logger.Int("teams", len(snap.Teams)),
			logger.Int("events", len(snap.Events)),
			logger.Int("malformedRecords", snap.MalformedRecords),
			logger.String("teamsSource", snap.TeamsSource),
			logger.String("eventsSource", snap.EventsSource),
		)
	}
	s.logger.Info(ctx, "rankings service started", fields...)
	return nil
}

// Stop halts the reload schedule and waits for a running reload.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping rankings service...")
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	// a running reload takes the read lock, so wait outside the lock
	if c != nil {
		<-c.Stop().Done()
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	s.logger.Info(context.Background(), "rankings service stopped")
}

// Reload re-reads the datasets. Queries keep using the previous snapshot
// until the new one is published.
func (s *Service) Reload(ctx context.Context) error {
	store, err := s.currentStore()
	if err != nil {
		return err
	}
	if err := store.Reload(ctx); err != nil {
		s.logger.Error(ctx, "dataset reload failed", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "dataset reloaded")
	return nil
}

func (s *Service) scheduledReload() {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	_ = s.Reload(ctx)
}

// Snapshot returns the current dataset snapshot.
func (s *Service) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	store, err := s.currentStore()
	if err != nil {
		return nil, err
	}
	snap, err := store.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotLoaded) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, err
	}
	return snap, nil
}

func (s *Service) currentStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Teams returns one page of the team rankings.
func (s *Service) Teams(ctx context.Context, q table.Query) (table.Page[types.TeamRow], error) {
	return query(ctx, s, types.ViewTeams, ranking.TeamTable, s.teamRows, q)
}

// Events returns one page of the CTF event rankings.
func (s *Service) Events(ctx context.Context, q table.Query) (table.Page[types.EventRow], error) {
	return query(ctx, s, types.ViewEvents, ranking.EventTable, s.eventRows, q)
}

// Universities returns one page of the university rankings.
func (s *Service) Universities(ctx context.Context, q table.Query) (table.Page[types.UniversityRow], error) {
	return query(ctx, s, types.ViewUniversities, ranking.UniversityTable, s.universityRows, q)
}

// Rows builds the complete, unpaginated view model of a view.
func (s *Service) Rows(ctx context.Context, view types.View) (any, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ds := snap.Dataset()
	switch view {
	case types.ViewTeams:
		return guard(view, func() []types.TeamRow { return s.teamRows(ds) })
	case types.ViewEvents:
		return guard(view, func() []types.EventRow { return s.eventRows(ds) })
	case types.ViewUniversities:
		return guard(view, func() []types.UniversityRow { return s.universityRows(ds) })
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
}

func (s *Service) teamRows(ds model.Dataset) []types.TeamRow {
	return ranking.BuildTeamRows(ds.Teams, s.now().Year())
}

func (s *Service) eventRows(ds model.Dataset) []types.EventRow {
	return ranking.BuildEventRowsWithin(ds.Events, s.now(), s.eventWindow)
}

func (s *Service) universityRows(ds model.Dataset) []types.UniversityRow {
	return ranking.BuildUniversityRows(s.teamRows(ds))
}

// query rebuilds one view from the current snapshot and applies q.
func query[T any](
	ctx context.Context,
	s *Service,
	view types.View,
	tbl *table.Table[T],
	build func(model.Dataset) []T,
	q table.Query,
) (table.Page[T], error) {
	start := time.Now()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		metrics.RecordViewError(string(view), "unavailable")
		return table.Page[T]{}, err
	}

	rows, err := guard(view, func() []T { return build(snap.Dataset()) })
	if err != nil {
		metrics.RecordViewError(string(view), "aggregate")
		s.logger.Error(ctx, "view build failed", logger.String("view", string(view)), logger.Error(err))
		return table.Page[T]{}, err
	}

	page, err := tbl.Apply(rows, q)
	if err != nil {
		metrics.RecordViewError(string(view), "bad_query")
		return table.Page[T]{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	ms := float64(time.Since(start).Nanoseconds()) / 1e6
	metrics.RecordViewBuild(string(view), ms, len(rows), page.FilteredRows)
	s.logger.Debug(ctx, "view built",
		logger.String("view", string(view)),
		logger.Int("rows", len(rows)),
		logger.Int("matched", page.FilteredRows),
		logger.Float64("ms", ms),
	)
	return page, nil
}

// guard turns a panic raised while projecting a view into ErrAggregate.
func guard[T any](view types.View, build func() T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrAggregate, view, r)
		}
	}()
	return build(), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	started := s.started
	store := s.store
	s.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()
	metrics.UpdateSystemMemoryUsage(mem.HeapInuse)
	metrics.UpdateSystemGoroutineCount(goroutines)

	stats := map[string]any{
		"started":         started,
		"eventWindowDays": int(s.eventWindow / (24 * time.Hour)),
		"reloadSchedule":  s.reloadSchedule,
		"goroutines":      goroutines,
		"heapInuseBytes":  mem.HeapInuse,
	}

	if started && store != nil {
		if snap, err := store.Snapshot(context.Background()); err == nil {
			stats["teams"] = len(snap.Teams)
			stats["events"] = len(snap.Events)
			stats["malformedRecords"] = snap.MalformedRecords
			stats["loadedAt"] = snap.LoadedAt.UTC().Format(time.RFC3339)
			stats["teamsSource"] = snap.TeamsSource
			stats["eventsSource"] = snap.EventsSource
		}
	}
	return stats
}

// cronLogger routes cron's own messages to the service logger.
type cronLogger struct{ l logger.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(context.Background(), "cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(context.Background(), "cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
