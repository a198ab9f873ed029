// Package generator turns normalized feed events into alerts: spatial
// filtering against the monitored region, severity classification, and
// deterministic dedup-key computation.
package generator

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/safeahead/hazard-alerts/internal/config"
	"github.com/safeahead/hazard-alerts/internal/geo"
	"github.com/safeahead/hazard-alerts/internal/models"
)

// wmoSeverity maps WMO weather codes to alert severity. Codes not listed
// are benign and produce no alert.
var wmoSeverity = map[int]models.Severity{
	// thunderstorms
	95: models.SeverityCritical,
	96: models.SeverityCritical,
	99: models.SeverityCritical,
	// heavy rain / freezing rain / heavy snow / violent showers
	65: models.SeverityWarning,
	67: models.SeverityWarning,
	75: models.SeverityWarning,
	82: models.SeverityWarning,
	86: models.SeverityWarning,
	// moderate precipitation
	61: models.SeverityInfo,
	63: models.SeverityInfo,
	66: models.SeverityInfo,
	71: models.SeverityInfo,
	73: models.SeverityInfo,
	80: models.SeverityInfo,
	81: models.SeverityInfo,
	85: models.SeverityInfo,
}

var wmoDescription = map[int]string{
	61: "light rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "light snowfall",
	73: "moderate snowfall",
	75: "heavy snowfall",
	80: "light rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "light snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

// Generator is a pure per-event function over an immutable region and
// alert policy; it holds no mutable state and is safe to share.
type Generator struct {
	region config.RegionConfig
	alerts config.AlertsConfig
	clock  clockwork.Clock
}

func New(region config.RegionConfig, alerts config.AlertsConfig, clock clockwork.Clock) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Generator{
		region: region,
		alerts: alerts,
		clock:  clock,
	}
}

// GenerateBatch applies Generate to each event and collects the results.
func (g *Generator) GenerateBatch(events []models.Event) []models.Alert {
	alerts := make([]models.Alert, 0, len(events))
	for _, ev := range events {
		if a, ok := g.Generate(ev); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// Generate maps one event to zero or one alert. An event outside the
// monitored region, or below the actionable severity floor, produces none.
func (g *Generator) Generate(ev models.Event) (models.Alert, bool) {
	dist := geo.DistanceKm(ev.Latitude, ev.Longitude, g.region.CenterLat, g.region.CenterLon)
	if dist > g.region.RadiusKm {
		return models.Alert{}, false
	}

	var (
		severity models.Severity
		typ      models.AlertType
		message  string
		ok       bool
	)
	switch ev.Source {
	case models.EventSourceSeismic:
		typ = models.AlertTypeEarthquake
		severity, ok = g.classifySeismic(ev.Magnitude)
		message = fmt.Sprintf("M%.1f earthquake %.0f km from monitor center", ev.Magnitude, dist)
	case models.EventSourceWeather:
		typ = models.AlertTypeWeatherHazard
		severity, ok = wmoSeverity[ev.Condition]
		message = fmt.Sprintf("%s observed in monitored region (WMO code %d)", describeCondition(ev.Condition), ev.Condition)
	default:
		return models.Alert{}, false
	}
	if !ok {
		return models.Alert{}, false
	}

	now := g.clock.Now().UTC()
	return models.Alert{
		DedupKey:    g.dedupKey(ev, typ),
		Severity:    severity,
		Type:        typ,
		Latitude:    ev.Latitude,
		Longitude:   ev.Longitude,
		Message:     message,
		GeneratedAt: now,
		ExpiresAt:   now.Add(g.alerts.TTL),
	}, true
}

func (g *Generator) classifySeismic(mag float64) (models.Severity, bool) {
	switch {
	case mag >= g.alerts.SeismicCritMag:
		return models.SeverityCritical, true
	case mag >= g.alerts.SeismicWarnMag:
		return models.SeverityWarning, true
	case mag >= g.alerts.SeismicMinMag:
		return models.SeverityInfo, true
	default:
		return "", false
	}
}

// dedupKey is the deterministic identity used to collapse repeated events
// into one alert. Events with a source-assigned ID key on it directly;
// continuous readings without one key on a geohash cell plus time window,
// so near-duplicate observations of the same ongoing condition merge.
func (g *Generator) dedupKey(ev models.Event, typ models.AlertType) string {
	if ev.ExternalID != "" {
		return fmt.Sprintf("%s:%s", ev.Source, ev.ExternalID)
	}
	return fmt.Sprintf("%s:%s:%s:%s",
		ev.Source,
		typ,
		geo.Cell(ev.Latitude, ev.Longitude, g.alerts.GeohashPrecision),
		geo.TimeBucket(ev.ObservedAt, g.alerts.TimeBucket),
	)
}

func describeCondition(code int) string {
	if desc, ok := wmoDescription[code]; ok {
		return desc
	}
	return "hazardous weather"
}
