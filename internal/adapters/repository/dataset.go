package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/ctfboard/pkg/logger"
	"github.com/okian/ctfboard/pkg/metrics"
)

// DatasetStore is the in-memory Store. Readers load the current snapshot
// through an atomic pointer; reloads are serialized and swap a fully decoded
// snapshot in one step.
type DatasetStore struct {
	teams  Source
	events Source
	now    func() time.Time
	logger logger.Logger

	snapshot atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// NewDatasetStore builds a store and performs the initial load.
func NewDatasetStore(ctx context.Context, opts ...Option) (*DatasetStore, error) {
	s := &DatasetStore{
		teams:  EmbeddedTeams(),
		events: EmbeddedEvents(),
		now:    time.Now,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the latest published snapshot.
func (s *DatasetStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Reload decodes both sources and publishes a new snapshot.
func (s *DatasetStore) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	snap, err := s.load(ctx)
	if err != nil {
		metrics.RecordDatasetLoadError()
		metrics.RecordErrorByComponent("repository", "load")
		return err
	}
	s.snapshot.Store(snap)

	ms := float64(time.Since(start).Nanoseconds()) / 1e6
	metrics.RecordDatasetLoad(len(snap.Teams), len(snap.Events), ms, snap.LoadedAt.Unix())
	return nil
}

// load decodes both sources. Only a document that is not valid JSON, or
// has the wrong top-level shape, fails the load; bad records are reported and
// defaulted or dropped.
func (s *DatasetStore) load(ctx context.Context) (*Snapshot, error) {
	var rawTeams map[string]json.RawMessage
	if err := decode(ctx, s.teams, &rawTeams); err != nil {
		return nil, err
	}
	var rawEvents []json.RawMessage
	if err := decode(ctx, s.events, &rawEvents); err != nil {
		return nil, err
	}
	teams, badTeams := s.decodeTeams(ctx, rawTeams)
	events, badEvents := s.decodeEvents(ctx, rawEvents)

	return &Snapshot{
		Teams:            teams,
		Events:           events,
		MalformedRecords: badTeams + badEvents,
		LoadedAt:         s.now(),
		TeamsSource:      s.teams.Name(),
		EventsSource:     s.events.Name(),
	}, nil
}

func decode(ctx context.Context, src Source, into any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoad, src.Name(), err)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoad, src.Name(), err)
	}
	defer func() { _ = rc.Close() }()

	if err := json.NewDecoder(rc).Decode(into); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, src.Name(), err)
	}
	return nil
}
