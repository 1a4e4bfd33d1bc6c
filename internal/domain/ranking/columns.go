package ranking

import (
	"strings"
	"time"

	"github.com/okian/ctfboard/internal/domain/table"
	"github.com/okian/ctfboard/internal/domain/types"
)

// Column ids double as the JSON keys of the row types.
const (
	ColRatingPlace  = "rating_place"
	ColName         = "name"
	ColUniversity   = "university"
	ColCountry      = "country"
	ColRatingPoints = "rating_points"
	ColCountryPlace = "country_place"

	ColTitle        = "title"
	ColStart        = "start"
	ColFormat       = "format"
	ColParticipants = "participants"
	ColWeight       = "weight"
	ColDuration     = "duration"
	ColLocation     = "location"
	ColOrganizers   = "organizers"

	ColTeamCount   = "teamCount"
	ColTotalRating = "totalRating"
	ColAvgRating   = "avgRating"
	ColTopRating   = "topRating"
	ColTeams       = "teams"
)

func optionalText(s string) table.Value {
	if s == "" {
		return table.Value{}
	}
	return table.Text(s)
}

// TeamTable is the column set of the team rankings.
var TeamTable = table.New(
	table.Column[types.TeamRow]{
		ID: ColRatingPlace, Header: "Rank",
		Value: func(r types.TeamRow) table.Value { return table.OptionalInt(r.RatingPlace) },
		Text:  func(r types.TeamRow) string { return table.OptionalInt(r.RatingPlace).String() },
	},
	table.Column[types.TeamRow]{
		ID: ColName, Header: "Team Name",
		Value: func(r types.TeamRow) table.Value { return optionalText(r.Name) },
		Text:  func(r types.TeamRow) string { return r.Name },
	},
	table.Column[types.TeamRow]{
		ID: ColUniversity, Header: "University",
		Value: func(r types.TeamRow) table.Value { return table.Text(r.University) },
		Text:  func(r types.TeamRow) string { return r.University },
	},
	table.Column[types.TeamRow]{
		ID: ColCountry, Header: "Country",
		Value: func(r types.TeamRow) table.Value { return optionalText(r.Country) },
		Text:  func(r types.TeamRow) string { return r.Country },
	},
	table.Column[types.TeamRow]{
		ID: ColRatingPoints, Header: "Rating Points",
		Value: func(r types.TeamRow) table.Value { return table.Number(r.RatingPoints) },
		Text:  func(r types.TeamRow) string { return table.Number(r.RatingPoints).String() },
	},
	table.Column[types.TeamRow]{
		ID: ColCountryPlace, Header: "Country Rank",
		Value: func(r types.TeamRow) table.Value { return table.OptionalInt(r.CountryPlace) },
		Text:  func(r types.TeamRow) string { return table.OptionalInt(r.CountryPlace).String() },
	},
)

// EventTable is the column set of the CTF event rankings.
var EventTable = table.New(
	table.Column[types.EventRow]{
		ID: ColTitle, Header: "CTF Name",
		Value: func(e types.EventRow) table.Value { return optionalText(e.Title) },
		Text:  func(e types.EventRow) string { return e.Title },
	},
	table.Column[types.EventRow]{
		ID: ColStart, Header: "Date",
		Value: func(e types.EventRow) table.Value {
			if e.Start.IsZero() {
				return table.Value{}
			}
			return table.Number(float64(e.Start.Unix()))
		},
		Text: func(e types.EventRow) string {
			if e.Start.IsZero() {
				return ""
			}
			return e.Start.Format(time.RFC3339)
		},
	},
	table.Column[types.EventRow]{
		ID: ColFormat, Header: "Format",
		Value: func(e types.EventRow) table.Value { return optionalText(e.Format) },
		Text:  func(e types.EventRow) string { return e.Format },
	},
	table.Column[types.EventRow]{
		ID: ColParticipants, Header: "Participants",
		Value: func(e types.EventRow) table.Value { return table.Int(e.Participants) },
		Text:  func(e types.EventRow) string { return table.Int(e.Participants).String() },
	},
	table.Column[types.EventRow]{
		ID: ColWeight, Header: "Weight",
		Value: func(e types.EventRow) table.Value { return table.Number(e.Weight) },
		Text:  func(e types.EventRow) string { return table.Number(e.Weight).String() },
	},
	table.Column[types.EventRow]{
		ID: ColDuration, Header: "Duration",
		Value: func(e types.EventRow) table.Value { return table.Int(e.Duration.Days*24 + e.Duration.Hours) },
	},
	table.Column[types.EventRow]{
		ID: ColLocation, Header: "Location",
		Value: func(e types.EventRow) table.Value { return table.Text(EventLocation(e)) },
		Text:  func(e types.EventRow) string { return e.Location },
	},
	table.Column[types.EventRow]{
		ID: ColOrganizers, Header: "Organizers",
		Text: func(e types.EventRow) string {
			if len(e.Organizers) == 0 {
				return ""
			}
			return OrganizerNames(e)
		},
	},
)

// UniversityTable is the column set of the university rankings.
var UniversityTable = table.New(
	table.Column[types.UniversityRow]{
		ID: ColUniversity, Header: "University",
		Value: func(u types.UniversityRow) table.Value { return table.Text(u.University) },
		Text:  func(u types.UniversityRow) string { return u.University },
	},
	table.Column[types.UniversityRow]{
		ID: ColCountry, Header: "Country",
		Value: func(u types.UniversityRow) table.Value { return table.Text(u.Country) },
		Text:  func(u types.UniversityRow) string { return u.Country },
	},
	table.Column[types.UniversityRow]{
		ID: ColTeamCount, Header: "Teams",
		Value: func(u types.UniversityRow) table.Value { return table.Int(u.TeamCount) },
		Text:  func(u types.UniversityRow) string { return table.Int(u.TeamCount).String() },
	},
	table.Column[types.UniversityRow]{
		ID: ColTotalRating, Header: "Total Rating",
		Value: func(u types.UniversityRow) table.Value { return table.Number(u.TotalRating) },
		Text:  func(u types.UniversityRow) string { return table.Number(u.TotalRating).String() },
	},
	table.Column[types.UniversityRow]{
		ID: ColAvgRating, Header: "Avg Rating",
		Value: func(u types.UniversityRow) table.Value { return table.Number(u.AvgRating) },
		Text:  func(u types.UniversityRow) string { return table.Number(u.AvgRating).String() },
	},
	table.Column[types.UniversityRow]{
		ID: ColTopRating, Header: "Top Team Rating",
		Value: func(u types.UniversityRow) table.Value { return table.Number(u.TopRating) },
		Text:  func(u types.UniversityRow) string { return table.Number(u.TopRating).String() },
	},
	table.Column[types.UniversityRow]{ID: ColTeams, Header: "Top Teams"},
)

// EventLocation is "Online" unless the event is onsite with a known location.
func EventLocation(e types.EventRow) string {
	if e.Onsite && e.Location != "" {
		return e.Location
	}
	return "Online"
}

// OrganizerNames joins organizer names with ", ", or "N/A" when there are none.
func OrganizerNames(e types.EventRow) string {
	if len(e.Organizers) == 0 {
		return "N/A"
	}
	names := make([]string, len(e.Organizers))
	for i, o := range e.Organizers {
		names[i] = o.Name
	}
	return strings.Join(names, ", ")
}
