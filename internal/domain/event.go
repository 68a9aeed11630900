package domain

import (
	"strconv"
	"time"
)

// UnknownPlace is shown when the feed omits the place description.
const UnknownPlace = "ไม่ทราบตำแหน่ง"

// FeedEvent is a single feature as decoded from the seismic feed. The numeric
// fields are pointers because the feed may omit or null any of them.
type FeedEvent struct {
	ID         string
	Place      string
	Magnitude  *float64
	TimeMillis *int64
	Lat        *float64
	Lon        *float64
}

// SeismicEvent is a complete, immutable earthquake record.
type SeismicEvent struct {
	ID         string  `json:"id"`
	Place      string  `json:"place"`
	Magnitude  float64 `json:"magnitude"`
	TimeMillis int64   `json:"time_ms"` // epoch milliseconds, UTC
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// OccurredAt returns the event time as a UTC time.Time.
func (e SeismicEvent) OccurredAt() time.Time {
	return time.UnixMilli(e.TimeMillis).UTC()
}

// Candidate is a SeismicEvent that passed dedup, completeness, and country
// checks and is eligible for the current batch.
type Candidate struct {
	Event         SeismicEvent
	Country       string
	CountrySource string // "text" or "reverse"
}

// Complete converts a FeedEvent into a SeismicEvent. It returns an
// *IncompleteEventError naming every missing field when the id or any of
// magnitude, time, latitude, or longitude is absent. An event without an id
// can never be marked sent.
func (f FeedEvent) Complete() (SeismicEvent, error) {
	var missing []string
	if f.ID == "" {
		missing = append(missing, "id")
	}
	if f.Magnitude == nil {
		missing = append(missing, "magnitude")
	}
	if f.TimeMillis == nil {
		missing = append(missing, "time")
	}
	if f.Lat == nil {
		missing = append(missing, "latitude")
	}
	if f.Lon == nil {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		return SeismicEvent{}, &IncompleteEventError{EventID: f.ID, Place: f.Place, Missing: missing}
	}

	place := f.Place
	if place == "" {
		place = UnknownPlace
	}

	return SeismicEvent{
		ID:         f.ID,
		Place:      place,
		Magnitude:  *f.Magnitude,
		TimeMillis: *f.TimeMillis,
		Lat:        *f.Lat,
		Lon:        *f.Lon,
	}, nil
}

// FormatMagnitude renders a magnitude the way the feed reports it: shortest
// representation, no trailing zeros ("4.5", "5", "3.25").
func FormatMagnitude(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
