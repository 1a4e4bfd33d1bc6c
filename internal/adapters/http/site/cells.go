package site

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/okian/ctfboard/internal/domain/model"
	"github.com/okian/ctfboard/internal/domain/ranking"
	"github.com/okian/ctfboard/internal/domain/types"
)

const (
	teamURL    = "https://ctftime.org/team/%d"
	flagURL    = "https://flagcdn.com/16x12/%s.png"
	topTeams   = 3
	dateLayout = "Jan 2, 2006"
)

var teamCells = map[string]func(types.TeamRow) template.HTML{
	ranking.ColRatingPlace:  func(r types.TeamRow) template.HTML { return place(r.RatingPlace) },
	ranking.ColName:         func(r types.TeamRow) template.HTML { return teamLink(r.ID, r.Name) },
	ranking.ColCountry:      func(r types.TeamRow) template.HTML { return country(r.Country) },
	ranking.ColRatingPoints: func(r types.TeamRow) template.HTML { return rating(r.RatingPoints) },
	ranking.ColCountryPlace: func(r types.TeamRow) template.HTML { return place(r.CountryPlace) },
}

var eventCells = map[string]func(types.EventRow) template.HTML{
	ranking.ColTitle: func(e types.EventRow) template.HTML {
		if !safeURL(e.CTFtimeURL) {
			return text(e.Title)
		}
		return anchor(e.CTFtimeURL, e.Title)
	},
	ranking.ColStart: func(e types.EventRow) template.HTML {
		if e.Start.IsZero() {
			return "N/A"
		}
		return text(e.Start.Format(dateLayout))
	},
	ranking.ColWeight: func(e types.EventRow) template.HTML {
		return template.HTML(fmt.Sprintf(`<span class="badge %s">%.2f</span>`, weightClass(e.Weight), e.Weight)) //nolint:gosec // numeric content
	},
	ranking.ColDuration: func(e types.EventRow) template.HTML { return text(duration(e.Duration)) },
	ranking.ColLocation: func(e types.EventRow) template.HTML { return text(ranking.EventLocation(e)) },
	ranking.ColOrganizers: func(e types.EventRow) template.HTML {
		return text(ranking.OrganizerNames(e))
	},
}

var universityCells = map[string]func(types.UniversityRow) template.HTML{
	ranking.ColCountry:     func(u types.UniversityRow) template.HTML { return country(u.Country) },
	ranking.ColTotalRating: func(u types.UniversityRow) template.HTML { return rating(u.TotalRating) },
	ranking.ColAvgRating:   func(u types.UniversityRow) template.HTML { return rating(u.AvgRating) },
	ranking.ColTopRating:   func(u types.UniversityRow) template.HTML { return rating(u.TopRating) },
	ranking.ColTeams: func(u types.UniversityRow) template.HTML {
		var b strings.Builder
		for i, t := range ranking.TopTeams(u, topTeams) {
			if i > 0 {
				b.WriteString("<br>")
			}
			b.WriteString(string(teamLink(t.ID, t.Name)))
			fmt.Fprintf(&b, " (%.2f)", t.Rating)
		}
		return template.HTML(b.String()) //nolint:gosec // parts are escaped
	},
}

func text(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s)) //nolint:gosec // escaped
}

func anchor(href, label string) template.HTML {
	return template.HTML(fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, //nolint:gosec // escaped
		template.HTMLEscapeString(href), template.HTMLEscapeString(label)))
}

func teamLink(id int, name string) template.HTML {
	return anchor(fmt.Sprintf(teamURL, id), name)
}

func place(p *int) template.HTML {
	if p == nil {
		return "N/A"
	}
	return template.HTML(strconv.Itoa(*p)) //nolint:gosec // numeric content
}

func rating(v float64) template.HTML {
	return template.HTML(fmt.Sprintf("%.2f", v)) //nolint:gosec // numeric content
}

func country(code string) template.HTML {
	if len(code) != 2 {
		if code == "" {
			return "N/A"
		}
		return text(code)
	}
	cc := strings.ToLower(code)
	return template.HTML(fmt.Sprintf(`<img class="flag" src="%s" alt="%s" width="16" height="12"> %s`, //nolint:gosec // escaped
		template.HTMLEscapeString(fmt.Sprintf(flagURL, cc)), template.HTMLEscapeString(code), template.HTMLEscapeString(code)))
}

func weightClass(w float64) string {
	switch {
	case w >= 50:
		return "weight-high"
	case w >= 25:
		return "weight-mid"
	}
	return "weight-low"
}

func duration(d model.Duration) string {
	if d.Days > 0 {
		return fmt.Sprintf("%dd %dh", d.Days, d.Hours)
	}
	return fmt.Sprintf("%dh", d.Hours)
}

func safeURL(u string) bool {
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")
}
