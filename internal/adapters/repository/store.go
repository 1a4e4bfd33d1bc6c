// Package repository loads the ranking datasets and publishes them as
// immutable snapshots.
package repository

import (
	"context"
	"time"

	"github.com/okian/ctfboard/internal/domain/model"
)

// Snapshot is one fully decoded pair of datasets. It is never mutated after
// publication.
type Snapshot struct {
	Teams  map[int]model.Team
	Events []model.Event
	// MalformedRecords counts records that were defaulted or dropped.
	MalformedRecords int
	LoadedAt         time.Time
	// Source names where the datasets came from, e.g. "embedded:teams.json".
	TeamsSource  string
	EventsSource string
}

// Dataset returns the snapshot content as a domain dataset.
func (s *Snapshot) Dataset() model.Dataset {
	return model.Dataset{Teams: s.Teams, Events: s.Events}
}

// Store provides read access to the current datasets.
type Store interface {
	// Snapshot returns the latest published snapshot.
	// Returns ErrNotLoaded if no load has succeeded yet.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Reload decodes the sources again and publishes a new snapshot.
	// On failure the previous snapshot stays current.
	Reload(ctx context.Context) error
}
