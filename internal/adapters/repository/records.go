package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"github.com/okian/ctfboard/internal/domain/model"
	"github.com/okian/ctfboard/pkg/logger"
	"github.com/okian/ctfboard/pkg/metrics"
)

var (
	errNotObject = errors.New("record is not a JSON object")
	errBadTeamID = errors.New("team key is not an integer id")
)

// decodeRecord decodes one record into v. A field of the wrong type keeps
// its zero value and the rest of the record still decodes; the returned
// error then only reports the field. kept is false when the record is not
// an object at all.
func decodeRecord(data json.RawMessage, v any) (kept bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false, errNotObject
	}
	return true, json.Unmarshal(trimmed, v)
}

// decodeTeams decodes the teams mapping one record at a time.
func (s *DatasetStore) decodeTeams(ctx context.Context, raw map[string]json.RawMessage) (map[int]model.Team, int) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	teams := make(map[int]model.Team, len(raw))
	malformed := 0
	for _, key := range keys {
		id, err := strconv.Atoi(key)
		if err != nil {
			malformed++
			s.reportMalformed(ctx, s.teams.Name(), key, false, errBadTeamID)
			continue
		}
		var team model.Team
		kept, err := decodeRecord(raw[key], &team)
		if err != nil {
			malformed++
			s.reportMalformed(ctx, s.teams.Name(), key, kept, err)
			if !kept {
				continue
			}
		}
		teams[id] = team
	}
	return teams, malformed
}

// decodeEvents decodes the events list one record at a time, keeping order.
func (s *DatasetStore) decodeEvents(ctx context.Context, raw []json.RawMessage) ([]model.Event, int) {
	events := make([]model.Event, 0, len(raw))
	malformed := 0
	for i, data := range raw {
		var event model.Event
		kept, err := decodeRecord(data, &event)
		if err != nil {
			malformed++
			s.reportMalformed(ctx, s.events.Name(), strconv.Itoa(i), kept, err)
			if !kept {
				continue
			}
		}
		events = append(events, event)
	}
	return events, malformed
}

func (s *DatasetStore) reportMalformed(ctx context.Context, source, record string, kept bool, err error) {
	action := "dropped"
	if kept {
		action = "defaulted"
	}
	metrics.RecordErrorByComponent("repository", "malformed_record")
	s.logger.Warn(ctx, "malformed dataset record",
		logger.String("source", source),
		logger.String("record", record),
		logger.String("action", action),
		logger.Error(err))
}
