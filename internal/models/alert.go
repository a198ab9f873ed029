package models

import "time"

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// rank orders severities for comparisons; unknown values rank lowest.
func (s Severity) rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

func (s Severity) AtLeast(min Severity) bool {
	return s.rank() >= min.rank()
}

func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return Severity(s), true
	default:
		return "", false
	}
}

type AlertType string

const (
	AlertTypeEarthquake    AlertType = "earthquake"
	AlertTypeWeatherHazard AlertType = "weather_hazard"
)

func ParseAlertType(s string) (AlertType, bool) {
	switch AlertType(s) {
	case AlertTypeEarthquake, AlertTypeWeatherHazard:
		return AlertType(s), true
	default:
		return "", false
	}
}

// Alert is the deduplicated, classified notification surfaced to clients.
// At most one live Alert exists per DedupKey; a later event mapping to the
// same key refreshes GeneratedAt/ExpiresAt instead of creating a duplicate.
type Alert struct {
	DedupKey    string    `json:"dedup_key"`
	Severity    Severity  `json:"severity"`
	Type        AlertType `json:"type"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Message     string    `json:"message"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
