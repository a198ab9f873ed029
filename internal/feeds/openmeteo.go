package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/safeahead/hazard-alerts/internal/models"
)

type openMeteoResponse struct {
	Latitude       float64           `json:"latitude"`
	Longitude      float64           `json:"longitude"`
	CurrentWeather *openMeteoCurrent `json:"current_weather"`
}

type openMeteoCurrent struct {
	WeatherCode *int   `json:"weathercode"` // WMO code
	Time        string `json:"time"`        // "2006-01-02T15:04"
}

const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoSource fetches the current weather condition at the monitored
// region's center. Open-Meteo readings carry no stable per-reading ID, so
// downstream dedup identity comes from spatial/temporal bucketing instead.
type OpenMeteoSource struct {
	url    string
	lat    float64
	lon    float64
	client *http.Client
}

func NewOpenMeteoSource(baseURL string, lat, lon float64, timeout time.Duration) *OpenMeteoSource {
	return &OpenMeteoSource{
		url: baseURL,
		lat: lat,
		lon: lon,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *OpenMeteoSource) Name() string {
	return "open-meteo"
}

func (s *OpenMeteoSource) Fetch(ctx context.Context) ([]models.Event, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fetchErr(s.Name(), "invalid feed URL: %w", err)
	}
	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%.4f", s.lat))
	q.Set("longitude", fmt.Sprintf("%.4f", s.lon))
	q.Set("current_weather", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
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

	var data openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fetchErr(s.Name(), "error decoding resp.Body: %w", err)
	}

	// The current_weather block is the whole payload here; without it (or
	// its required fields) there is nothing to salvage.
	if data.CurrentWeather == nil {
		return nil, fetchErr(s.Name(), "response missing current_weather")
	}
	if data.CurrentWeather.WeatherCode == nil {
		return nil, fetchErr(s.Name(), "current_weather missing weathercode")
	}

	observedAt, err := time.Parse(openMeteoTimeLayout, data.CurrentWeather.Time)
	if err != nil {
		return nil, fetchErr(s.Name(), "invalid current_weather time %q: %w", data.CurrentWeather.Time, err)
	}

	return []models.Event{{
		Source:     models.EventSourceWeather,
		Latitude:   data.Latitude,
		Longitude:  data.Longitude,
		Condition:  *data.CurrentWeather.WeatherCode,
		ObservedAt: observedAt.UTC(),
	}}, nil
}
