package models

import "time"

type EventSource string

const (
	EventSourceSeismic EventSource = "seismic"
	EventSourceWeather EventSource = "weather"
)

// Event is one normalized observation from a feed, before filtering.
// Events are immutable and never persisted; they only live for the
// duration of a single poll cycle.
type Event struct {
	Source     EventSource
	ExternalID string // source-assigned ID; empty for continuous weather readings
	Latitude   float64
	Longitude  float64
	Magnitude  float64 // Richter magnitude for seismic events
	Condition  int     // WMO weather code for weather events
	ObservedAt time.Time
}
