package query

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safeahead/hazard-alerts/internal/cache"
	"github.com/safeahead/hazard-alerts/internal/models"
)

var base = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func seededService(t *testing.T) *Service {
	t.Helper()
	c := cache.New(clockwork.NewFakeClockAt(base))
	for i, a := range []models.Alert{
		{DedupKey: "seismic:eq-1", Severity: models.SeverityWarning, Type: models.AlertTypeEarthquake},
		{DedupKey: "seismic:eq-2", Severity: models.SeverityCritical, Type: models.AlertTypeEarthquake},
		{DedupKey: "weather:storm", Severity: models.SeverityCritical, Type: models.AlertTypeWeatherHazard},
	} {
		a.GeneratedAt = base.Add(time.Duration(i) * time.Minute)
		a.ExpiresAt = a.GeneratedAt.Add(time.Hour)
		c.Upsert(a)
	}
	return NewService(c)
}

func TestListAlerts_NewestFirst(t *testing.T) {
	svc := seededService(t)

	alerts := svc.ListAlerts(Filter{})
	require.Len(t, alerts, 3)
	assert.Equal(t, "weather:storm", alerts[0].DedupKey)
	assert.Equal(t, "seismic:eq-2", alerts[1].DedupKey)
	assert.Equal(t, "seismic:eq-1", alerts[2].DedupKey)
}

func TestListAlerts_SeverityFilter(t *testing.T) {
	svc := seededService(t)

	critical := models.SeverityCritical
	alerts := svc.ListAlerts(Filter{Severity: &critical})
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, models.SeverityCritical, a.Severity)
	}
}

func TestListAlerts_TypeFilter(t *testing.T) {
	svc := seededService(t)

	typ := models.AlertTypeWeatherHazard
	alerts := svc.ListAlerts(Filter{Type: &typ})
	require.Len(t, alerts, 1)
	assert.Equal(t, "weather:storm", alerts[0].DedupKey)
}

func TestListAlerts_Limit(t *testing.T) {
	svc := seededService(t)

	alerts := svc.ListAlerts(Filter{Limit: 2})
	require.Len(t, alerts, 2)
	assert.Equal(t, "weather:storm", alerts[0].DedupKey)
}

func TestListAlerts_CombinedFilters(t *testing.T) {
	svc := seededService(t)

	critical := models.SeverityCritical
	typ := models.AlertTypeEarthquake
	alerts := svc.ListAlerts(Filter{Severity: &critical, Type: &typ})
	require.Len(t, alerts, 1)
	assert.Equal(t, "seismic:eq-2", alerts[0].DedupKey)
}
