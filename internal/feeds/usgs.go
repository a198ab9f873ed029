package feeds

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/safeahead/hazard-alerts/internal/models"
)

type usgsResponse struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   usgsGeometry   `json:"geometry"`
}
type usgsProperties struct {
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
	Time  int64    `json:"time"` // unix millis
}
type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

// USGSSource fetches recent earthquakes from the USGS GeoJSON summary feed.
type USGSSource struct {
	url    string
	client *http.Client
}

func NewUSGSSource(url string, timeout time.Duration) *USGSSource {
	return &USGSSource{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *USGSSource) Name() string {
	return "usgs"
}

func (s *USGSSource) Fetch(ctx context.Context) ([]models.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fetchErr(s.Name(), "error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fetchErr(s.Name(), "error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(s.Name(), "unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data usgsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fetchErr(s.Name(), "error decoding resp.Body: %w", err)
	}

	events := make([]models.Event, 0, len(data.Features))
	for _, f := range data.Features {
		// A bad record drops that record only, never the batch.
		if f.ID == "" || len(f.Geometry.Coordinates) < 2 || f.Properties.Mag == nil {
			slog.Warn("skipping malformed USGS feature", "id", f.ID)
			continue
		}
		events = append(events, models.Event{
			Source:     models.EventSourceSeismic,
			ExternalID: f.ID,
			Longitude:  f.Geometry.Coordinates[0],
			Latitude:   f.Geometry.Coordinates[1],
			Magnitude:  *f.Properties.Mag,
			ObservedAt: time.UnixMilli(f.Properties.Time).UTC(),
		})
	}

	return events, nil
}
