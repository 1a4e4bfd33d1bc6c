// Package types contains the render-ready view models shared across layers.
package types

import "github.com/okian/ctfboard/internal/domain/model"

// View names a ranking view.
type View string

const (
	ViewTeams        View = "teams"
	ViewEvents       View = "ctfs"
	ViewUniversities View = "universities"
)

// Views lists every view in navigation order.
var Views = []View{ViewUniversities, ViewTeams, ViewEvents}

// Valid reports whether v names a known view.
func (v View) Valid() bool {
	switch v {
	case ViewTeams, ViewEvents, ViewUniversities:
		return true
	}
	return false
}

// TeamRow is one line of the team rankings.
type TeamRow struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Country      string  `json:"country"`
	Academic     bool    `json:"academic"`
	RatingPoints float64 `json:"rating_points"`
	RatingPlace  *int    `json:"rating_place"`
	CountryPlace *int    `json:"country_place"`
	University   string  `json:"university"`
}

// UniversityTeam is a member team listed under a university.
type UniversityTeam struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// UniversityRow is one line of the university rankings.
type UniversityRow struct {
	University  string           `json:"university"`
	Country     string           `json:"country"`
	Teams       []UniversityTeam `json:"teams"`
	TotalRating float64          `json:"totalRating"`
	AvgRating   float64          `json:"avgRating"`
	TopRating   float64          `json:"topRating"`
	TeamCount   int              `json:"teamCount"`
}

// EventRow is one line of the CTF event rankings.
type EventRow = model.Event
