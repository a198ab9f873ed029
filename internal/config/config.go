package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Region  RegionConfig
	Poller  PollerConfig
	Sources SourcesConfig
	Alerts  AlertsConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
}

// RegionConfig is the monitored geographic region: a center coordinate and
// a radius in kilometers. Read-only after startup.
type RegionConfig struct {
	CenterLat float64
	CenterLon float64
	RadiusKm  float64
}

type PollerConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
}

type SourcesConfig struct {
	USGSEnabled      bool
	USGSURL          string
	OpenMeteoEnabled bool
	OpenMeteoURL     string
}

// AlertsConfig governs alert identity and lifetime: TTL-based eviction,
// geohash/time bucketing for weather readings without stable IDs, and the
// seismic severity thresholds.
type AlertsConfig struct {
	TTL              time.Duration
	GeohashPrecision uint
	TimeBucket       time.Duration
	SeismicMinMag    float64
	SeismicWarnMag   float64
	SeismicCritMag   float64
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 5),
		},
		Region: RegionConfig{
			CenterLat: getEnvFloat("MONITOR_CENTER_LAT", 12.9716),
			CenterLon: getEnvFloat("MONITOR_CENTER_LON", 77.5946),
			RadiusKm:  getEnvFloat("MONITOR_RADIUS_KM", 500),
		},
		Poller: PollerConfig{
			Interval:     getEnvDuration("POLL_INTERVAL", time.Minute),
			FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		},
		Sources: SourcesConfig{
			USGSEnabled:      getEnvBool("USGS_ENABLED", true),
			USGSURL:          getEnv("USGS_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"),
			OpenMeteoEnabled: getEnvBool("OPENMETEO_ENABLED", true),
			OpenMeteoURL:     getEnv("OPENMETEO_URL", "https://api.open-meteo.com/v1/forecast"),
		},
		Alerts: AlertsConfig{
			TTL:              getEnvDuration("ALERT_TTL", 30*time.Minute),
			GeohashPrecision: uint(getEnvInt("GEOHASH_PRECISION", 4)),
			TimeBucket:       getEnvDuration("TIME_BUCKET", 30*time.Minute),
			SeismicMinMag:    getEnvFloat("SEISMIC_MIN_MAG", 3.0),
			SeismicWarnMag:   getEnvFloat("SEISMIC_WARNING_MAG", 4.0),
			SeismicCritMag:   getEnvFloat("SEISMIC_CRITICAL_MAG", 6.0),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Region.CenterLat < -90 || c.Region.CenterLat > 90 {
		return fmt.Errorf("invalid monitor center latitude: %f", c.Region.CenterLat)
	}
	if c.Region.CenterLon < -180 || c.Region.CenterLon > 180 {
		return fmt.Errorf("invalid monitor center longitude: %f", c.Region.CenterLon)
	}
	if c.Region.RadiusKm <= 0 {
		return fmt.Errorf("monitor radius must be positive, got %f", c.Region.RadiusKm)
	}

	if c.Poller.Interval < time.Second {
		return fmt.Errorf("poll interval must be at least 1 second")
	}
	if c.Poller.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	if c.Alerts.TTL < c.Poller.Interval {
		return fmt.Errorf("alert TTL (%s) must not be shorter than the poll interval (%s)", c.Alerts.TTL, c.Poller.Interval)
	}
	if c.Alerts.GeohashPrecision < 1 || c.Alerts.GeohashPrecision > 12 {
		return fmt.Errorf("geohash precision must be between 1 and 12, got %d", c.Alerts.GeohashPrecision)
	}
	if c.Alerts.TimeBucket <= 0 {
		return fmt.Errorf("time bucket must be positive")
	}
	if !(c.Alerts.SeismicMinMag <= c.Alerts.SeismicWarnMag && c.Alerts.SeismicWarnMag <= c.Alerts.SeismicCritMag) {
		return fmt.Errorf("seismic thresholds must be ordered: min <= warning <= critical")
	}

	return nil
}

// ClientConfig is the configuration surface of the disconnected client.
type ClientConfig struct {
	BackendURL  string
	CachePath   string
	SyncTimeout time.Duration
	LogLevel    string
}

func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),
		CachePath:   getEnv("CACHE_PATH", "./data/hazard-client.db"),
		SyncTimeout: getEnvDuration("SYNC_TIMEOUT", 5*time.Second),
		LogLevel:    getEnv("LOG_LEVEL", "warn"),
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend URL must not be empty")
	}
	if cfg.SyncTimeout <= 0 {
		return nil, fmt.Errorf("sync timeout must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
