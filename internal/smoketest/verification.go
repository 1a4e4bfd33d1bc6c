package smoketest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/ctfboard/internal/domain/ranking"
	"github.com/okian/ctfboard/internal/domain/types"
)

// ErrViolation marks a broken ranking invariant.
var ErrViolation = errors.New("invariant violated")

type violations []error

func (v *violations) add(format string, args ...any) {
	*v = append(*v, fmt.Errorf("%w: "+format, append([]any{ErrViolation}, args...)...))
}

func (v violations) err() error { return errors.Join(v...) }

// verifyPagination checks the page arithmetic of a crawled view.
func verifyPagination(first Page, pages, rows int) error {
	var v violations
	want := 1
	if first.TotalRows > 0 {
		want = (first.TotalRows + first.PageSize - 1) / first.PageSize
	}
	if first.PageCount != want {
		v.add("%s: page_count %d, want %d for %d rows of %d", first.View, first.PageCount, want, first.TotalRows, first.PageSize)
	}
	if pages != first.PageCount {
		v.add("%s: fetched %d pages, want %d", first.View, pages, first.PageCount)
	}
	if rows != first.TotalRows {
		v.add("%s: pages concatenate to %d rows, want %d", first.View, rows, first.TotalRows)
	}
	return v.err()
}

// verifyTeams checks that every team appears once, ratings are non-negative
// and rows are ordered by rating desc, then id asc.
func verifyTeams(rows []types.TeamRow) error {
	var v violations
	seen := make(map[int]bool, len(rows))
	for i, r := range rows {
		if seen[r.ID] {
			v.add("team %d listed twice", r.ID)
		}
		seen[r.ID] = true
		if r.RatingPoints < 0 || math.IsNaN(r.RatingPoints) {
			v.add("team %d has rating %v", r.ID, r.RatingPoints)
		}
		if r.University == "" {
			v.add("team %d has an empty university", r.ID)
		}
		if i == 0 {
			continue
		}
		prev := rows[i-1]
		if prev.RatingPoints < r.RatingPoints ||
			(prev.RatingPoints == r.RatingPoints && prev.ID > r.ID) {
			v.add("teams %d and %d out of order", prev.ID, r.ID)
		}
	}
	return v.err()
}

// verifyEvents checks the trailing window and the weight, participants order.
func verifyEvents(rows []types.EventRow, now time.Time, window time.Duration) error {
	var v violations
	cutoff := now.Add(-window - clockSkew)
	for i, e := range rows {
		if e.Start.IsZero() {
			v.add("event %d has no start", e.ID)
		} else if e.Start.Before(cutoff) {
			v.add("event %d started %s, before the window", e.ID, e.Start.Format(time.RFC3339))
		}
		if i == 0 {
			continue
		}
		prev := rows[i-1]
		if prev.Weight < e.Weight ||
			(prev.Weight == e.Weight && prev.Participants < e.Participants) {
			v.add("events %d and %d out of order", prev.ID, e.ID)
		}
	}
	return v.err()
}

// verifyUniversities checks exclusions, aggregates, membership and order
// against the crawled team rankings.
func verifyUniversities(unis []types.UniversityRow, teams []types.TeamRow) error {
	var v violations
	byID := make(map[int]types.TeamRow, len(teams))
	ranked := 0
	for _, t := range teams {
		byID[t.ID] = t
		if ranking.IsRankedUniversity(t.University) {
			ranked++
		}
	}

	members := 0
	for i, u := range unis {
		if !ranking.IsRankedUniversity(u.University) {
			v.add("excluded university %q listed", u.University)
		}
		if u.TeamCount != len(u.Teams) || u.TeamCount == 0 {
			v.add("%s: teamCount %d with %d teams", u.University, u.TeamCount, len(u.Teams))
		}
		members += len(u.Teams)

		var total, top float64
		for _, m := range u.Teams {
			t, ok := byID[m.ID]
			switch {
			case !ok:
				v.add("%s: member %d missing from team rankings", u.University, m.ID)
			case t.University != u.University:
				v.add("%s: member %d belongs to %q", u.University, m.ID, t.University)
			}
			total += m.Rating
			top = math.Max(top, m.Rating)
		}
		if !near(total, u.TotalRating) {
			v.add("%s: totalRating %v, members sum to %v", u.University, u.TotalRating, total)
		}
		if u.TeamCount > 0 && !near(u.TotalRating/float64(u.TeamCount), u.AvgRating) {
			v.add("%s: avgRating %v inconsistent", u.University, u.AvgRating)
		}
		if !near(top, u.TopRating) {
			v.add("%s: topRating %v, best member %v", u.University, u.TopRating, top)
		}

		if i > 0 {
			prev := unis[i-1]
			if prev.TotalRating < u.TotalRating ||
				(prev.TotalRating == u.TotalRating && prev.University > u.University) {
				v.add("universities %q and %q out of order", prev.University, u.University)
			}
		}
	}
	if members != ranked {
		v.add("universities list %d member teams, %d teams have a ranked university", members, ranked)
	}
	return v.err()
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
