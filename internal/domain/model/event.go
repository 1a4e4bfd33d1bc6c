// Package model contains the dataset records decoded at startup and passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Event is a CTF event as published by CTFtime.
type Event struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	URL          string      `json:"url"`
	CTFtimeURL   string      `json:"ctftime_url"`
	Start        Timestamp   `json:"start"`
	Finish       Timestamp   `json:"finish"`
	Format       string      `json:"format"`
	Participants int         `json:"participants"`
	Weight       float64     `json:"weight"` // competitive importance, primary ranking key
	Duration     Duration    `json:"duration"`
	Onsite       bool        `json:"onsite"`
	Location     string      `json:"location"`
	Organizers   []Organizer `json:"organizers"`
}

// Duration is the advertised length of an event.
type Duration struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
}

// Organizer is a team organizing an event.
type Organizer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Timestamp is a time that decodes leniently: anything that is not a valid
// RFC 3339 string leaves the zero time instead of failing the whole dataset.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if json.Unmarshal(data, &s) != nil {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
