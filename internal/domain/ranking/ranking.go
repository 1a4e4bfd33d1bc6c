// Package ranking builds the three ranking view models from the raw datasets.
//
// The builders are pure: they never mutate their input and return freshly
// allocated rows, so calling them twice on the same input yields deep-equal
// output.
package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/okian/ctfboard/internal/domain/model"
	"github.com/okian/ctfboard/internal/domain/types"
)

// Default ranking constants.
const (
	// DefaultEventWindow is the trailing window of events kept in the CTF ranking.
	DefaultEventWindow = 365 * 24 * time.Hour

	// UnknownUniversity is the placeholder shown for teams without a university.
	UnknownUniversity = "N/A"

	// UnknownCountry is the placeholder shown for universities without a country.
	UnknownCountry = "N/A"
)

// excludedUniversities never form a university group.
var excludedUniversities = map[string]struct{}{
	"":                {},
	"Unknown":         {},
	UnknownUniversity: {},
}

// IsRankedUniversity reports whether a university name forms its own group.
func IsRankedUniversity(name string) bool {
	_, excluded := excludedUniversities[name]
	return !excluded
}

// BuildEventRows returns the events that started within the default trailing
// window before now, ordered by weight then participants, both descending.
func BuildEventRows(events []model.Event, now time.Time) []types.EventRow {
	return BuildEventRowsWithin(events, now, DefaultEventWindow)
}

// BuildEventRowsWithin is BuildEventRows with an explicit window.
// Comparison happens on whole epoch seconds.
func BuildEventRowsWithin(events []model.Event, now time.Time, window time.Duration) []types.EventRow {
	cutoff := now.Add(-window).Unix()

	rows := make([]types.EventRow, 0, len(events))
	for _, e := range events {
		if e.Start.IsZero() || e.Start.Unix() < cutoff {
			continue
		}
		e.Organizers = append([]model.Organizer(nil), e.Organizers...)
		rows = append(rows, e)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Participants > b.Participants
	})
	return rows
}

// ResolveRating picks the rating for currentYear, falling back to the
// previous year, falling back to an empty rating. A null year counts as
// missing.
func ResolveRating(team model.Team, currentYear int) model.Rating {
	if r := team.Rating[currentYear]; r != nil {
		return *r
	}
	if r := team.Rating[currentYear-1]; r != nil {
		return *r
	}
	return model.Rating{}
}

// BuildTeamRows projects every team into a TeamRow using the rating year
// fallback. Rows are ordered by rating points descending, ties by id ascending.
func BuildTeamRows(teams map[int]model.Team, currentYear int) []types.TeamRow {
	ids := make([]int, 0, len(teams))
	for id := range teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	rows := make([]types.TeamRow, 0, len(ids))
	for _, id := range ids {
		team := teams[id]
		rating := ResolveRating(team, currentYear)

		name := team.Name
		if name == "" {
			name = team.PrimaryAlias
		}
		university := team.University
		if university == "" {
			university = UnknownUniversity
		}

		rows = append(rows, types.TeamRow{
			ID:           id,
			Name:         name,
			Country:      team.Country,
			Academic:     team.Academic,
			RatingPoints: sanitizePoints(rating.RatingPoints),
			RatingPlace:  place(rating.RatingPlace),
			CountryPlace: place(rating.CountryPlace),
			University:   university,
		})
	}

	// ids are ascending, so a stable sort keeps ties in id order
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RatingPoints > rows[j].RatingPoints
	})
	return rows
}

// BuildUniversityRows groups team rows by university and aggregates their
// ratings. Rows are ordered by total rating descending, ties by name.
func BuildUniversityRows(teamRows []types.TeamRow) []types.UniversityRow {
	// visit teams in id order so "first seen" does not depend on the rating sort
	ordered := append([]types.TeamRow(nil), teamRows...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	groups := make(map[string]*types.UniversityRow)
	var names []string
	for _, t := range ordered {
		if !IsRankedUniversity(t.University) {
			continue
		}
		g, ok := groups[t.University]
		if !ok {
			country := t.Country
			if country == "" {
				country = UnknownCountry
			}
			g = &types.UniversityRow{University: t.University, Country: country}
			groups[t.University] = g
			names = append(names, t.University)
		}
		g.Teams = append(g.Teams, types.UniversityTeam{ID: t.ID, Name: t.Name, Rating: t.RatingPoints})
		g.TotalRating += t.RatingPoints
		g.TopRating = math.Max(g.TopRating, t.RatingPoints)
	}

	rows := make([]types.UniversityRow, 0, len(names))
	for _, name := range names {
		g := groups[name]
		g.TeamCount = len(g.Teams)
		g.AvgRating = g.TotalRating / float64(g.TeamCount)
		sort.SliceStable(g.Teams, func(i, j int) bool {
			return g.Teams[i].Rating > g.Teams[j].Rating
		})
		rows = append(rows, *g)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalRating != rows[j].TotalRating {
			return rows[i].TotalRating > rows[j].TotalRating
		}
		return rows[i].University < rows[j].University
	})
	return rows
}

// TopTeams returns at most n member teams of a university, best first.
func TopTeams(row types.UniversityRow, n int) []types.UniversityTeam {
	if n > len(row.Teams) {
		n = len(row.Teams)
	}
	if n < 0 {
		n = 0
	}
	return row.Teams[:n]
}

func sanitizePoints(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// place copies an optional place; zero means unranked.
func place(p *int) *int {
	if p == nil || *p == 0 {
		return nil
	}
	v := *p
	return &v
}
