package repository

import (
	"time"

	"github.com/okian/ctfboard/pkg/logger"
)

// Option applies a configuration option to the DatasetStore.
type Option func(*DatasetStore)

// WithTeamsSource replaces the embedded teams dataset.
func WithTeamsSource(src Source) Option {
	return func(s *DatasetStore) {
		if src != nil {
			s.teams = src
		}
	}
}

// WithEventsSource replaces the embedded events dataset.
func WithEventsSource(src Source) Option {
	return func(s *DatasetStore) {
		if src != nil {
			s.events = src
		}
	}
}

// WithTeamsFile reads teams from path when it is not empty.
func WithTeamsFile(path string) Option {
	return func(s *DatasetStore) {
		if path != "" {
			s.teams = FileSource(path)
		}
	}
}

// WithEventsFile reads events from path when it is not empty.
func WithEventsFile(path string) Option {
	return func(s *DatasetStore) {
		if path != "" {
			s.events = FileSource(path)
		}
	}
}

// WithClock overrides time.Now for LoadedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *DatasetStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger that reports malformed records.
func WithLogger(l logger.Logger) Option {
	return func(s *DatasetStore) {
		if l != nil {
			s.logger = l
		}
	}
}
