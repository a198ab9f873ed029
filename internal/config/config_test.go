package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Region.CenterLat != 12.9716 || cfg.Region.CenterLon != 77.5946 {
		t.Errorf("unexpected default region center: %f, %f", cfg.Region.CenterLat, cfg.Region.CenterLon)
	}
	if cfg.Region.RadiusKm != 500 {
		t.Errorf("expected default radius 500, got %f", cfg.Region.RadiusKm)
	}
	if cfg.Poller.Interval != time.Minute {
		t.Errorf("expected default poll interval 1m, got %s", cfg.Poller.Interval)
	}
	if cfg.Alerts.TTL != 30*time.Minute {
		t.Errorf("expected default TTL 30m, got %s", cfg.Alerts.TTL)
	}
	if cfg.Alerts.GeohashPrecision != 4 {
		t.Errorf("expected default geohash precision 4, got %d", cfg.Alerts.GeohashPrecision)
	}
	if !cfg.Sources.USGSEnabled || !cfg.Sources.OpenMeteoEnabled {
		t.Error("expected both sources enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MONITOR_RADIUS_KM", "250.5")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("ALERT_TTL", "1h")
	t.Setenv("USGS_ENABLED", "false")
	t.Setenv("SEISMIC_MIN_MAG", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Region.RadiusKm != 250.5 {
		t.Errorf("expected radius 250.5, got %f", cfg.Region.RadiusKm)
	}
	if cfg.Poller.Interval != 30*time.Second {
		t.Errorf("expected poll interval 30s, got %s", cfg.Poller.Interval)
	}
	if cfg.Alerts.TTL != time.Hour {
		t.Errorf("expected TTL 1h, got %s", cfg.Alerts.TTL)
	}
	if cfg.Sources.USGSEnabled {
		t.Error("expected USGS disabled")
	}
	if cfg.Alerts.SeismicMinMag != 2.5 {
		t.Errorf("expected seismic min 2.5, got %f", cfg.Alerts.SeismicMinMag)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("POLL_INTERVAL", "soon")
	t.Setenv("USGS_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected fallback port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Poller.Interval != time.Minute {
		t.Errorf("expected fallback interval 1m, got %s", cfg.Poller.Interval)
	}
	if !cfg.Sources.USGSEnabled {
		t.Error("expected fallback USGS enabled")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port too large", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"latitude out of range", "MONITOR_CENTER_LAT", "91"},
		{"longitude out of range", "MONITOR_CENTER_LON", "181"},
		{"zero radius", "MONITOR_RADIUS_KM", "0"},
		{"sub-second poll interval", "POLL_INTERVAL", "500ms"},
		{"negative fetch timeout", "FETCH_TIMEOUT", "-1s"},
		{"geohash precision too high", "GEOHASH_PRECISION", "13"},
		{"zero time bucket", "TIME_BUCKET", "-5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_TTLShorterThanInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "10m")
	t.Setenv("ALERT_TTL", "5m")

	if _, err := Load(); err == nil {
		t.Error("expected error when TTL is shorter than the poll interval")
	}
}

func TestLoad_UnorderedSeismicThresholds(t *testing.T) {
	t.Setenv("SEISMIC_WARNING_MAG", "7.0")
	t.Setenv("SEISMIC_CRITICAL_MAG", "5.0")

	if _, err := Load(); err == nil {
		t.Error("expected error for unordered seismic thresholds")
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() returned error: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8080" {
		t.Errorf("unexpected default backend URL: %s", cfg.BackendURL)
	}
	if cfg.SyncTimeout != 5*time.Second {
		t.Errorf("expected default sync timeout 5s, got %s", cfg.SyncTimeout)
	}
}

func TestLoadClient_InvalidSyncTimeout(t *testing.T) {
	t.Setenv("SYNC_TIMEOUT", "-2s")

	if _, err := LoadClient(); err == nil {
		t.Error("expected error for negative sync timeout")
	}
}
