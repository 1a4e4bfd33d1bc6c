package model

// Team is an academic CTF team record keyed by its CTFtime id.
type Team struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	PrimaryAlias string          `json:"primary_alias"`
	Country      string          `json:"country"`
	University   string          `json:"university"`
	Academic     bool            `json:"academic"`
	Rating       map[int]*Rating `json:"rating"` // year -> rating; nil for a null year
}

// Rating is a team's CTFtime rating for one calendar year.
type Rating struct {
	RatingPoints    float64 `json:"rating_points"`
	RatingPlace     *int    `json:"rating_place"`
	CountryPlace    *int    `json:"country_place"`
	OrganizerPoints float64 `json:"organizer_points"`
}

// Dataset is the immutable pair of collections every view is built from.
type Dataset struct {
	Teams  map[int]Team
	Events []Event
}
