package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/quake-alert-service/internal/domain"
)

// Geocoder providers.
const (
	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
	GeocoderNone      = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Seismic feed.
	FeedURL          string
	FeedLimit        int
	FeedMinMagnitude float64
	FeedTimeout      time.Duration

	PollInterval time.Duration
	RunOnStart   bool

	// LINE Messaging API.
	LineToken        string
	LineAPIEndpoint  string
	BroadcastTimeout time.Duration

	// Reverse geocoding configuration.
	GeocoderProvider   string
	NominatimURL       string
	NominatimUserAgent string
	GeocodeTimeout     time.Duration
	GeocodeCacheSize   int
	GeocodeRateLimit   float64 // requests per second
	MapboxToken        string

	// Dedup store. A non-empty DedupRedisURL selects Redis over the file.
	SentIDsFile   string
	DedupRedisURL string
	DedupRedisKey string

	TargetCountries []string
	DisplayLocation *time.Location

	// Optional alert stream. Empty KafkaBrokers disables it.
	KafkaBrokers    []string
	KafkaAlertTopic string
}

// Load reads configuration from environment variables, applying defaults where
// unset. Variables from a .env file in the working directory are loaded first
// without overriding the real environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parseDuration("FEED_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("POLL_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	broadcastTimeout, err := parseDuration("BROADCAST_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	feedLimit, err := parsePositiveInt("FEED_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	geocodeCacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	minMagnitude, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("FEED_MIN_MAGNITUDE", "3"), 64)
	if err != nil || minMagnitude < 0 {
		return nil, errors.New("invalid FEED_MIN_MAGNITUDE")
	}
	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GEOCODE_RATE_LIMIT", "1"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid GEOCODE_RATE_LIMIT")
	}

	location, err := time.LoadLocation(sharedcfg.EnvOrDefault("DISPLAY_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}

	countries := domain.DefaultTargetCountries
	if path := os.Getenv("TARGET_COUNTRIES_FILE"); path != "" {
		countries, err = loadCountries(path)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FeedURL:          sharedcfg.EnvOrDefault("FEED_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query"),
		FeedLimit:        feedLimit,
		FeedMinMagnitude: minMagnitude,
		FeedTimeout:      feedTimeout,

		PollInterval: pollInterval,
		RunOnStart:   os.Getenv("RUN_ON_START") == "true",

		LineToken:        os.Getenv("LINE_CHANNEL_TOKEN"),
		LineAPIEndpoint:  sharedcfg.EnvOrDefault("LINE_API_ENDPOINT", "https://api.line.me"),
		BroadcastTimeout: broadcastTimeout,

		GeocoderProvider:   strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", GeocoderNominatim)),
		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "QuakeAlertBot/1.0"),
		GeocodeTimeout:     geocodeTimeout,
		GeocodeCacheSize:   geocodeCacheSize,
		GeocodeRateLimit:   rateLimit,
		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),

		SentIDsFile:   sharedcfg.EnvOrDefault("SENT_IDS_FILE", "sent_quake_ids.txt"),
		DedupRedisURL: os.Getenv("DEDUP_REDIS_URL"),
		DedupRedisKey: sharedcfg.EnvOrDefault("DEDUP_REDIS_KEY", "quake-alert:sent-ids"),

		TargetCountries: countries,
		DisplayLocation: location,

		KafkaBrokers:    sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "earthquake-alerts"),
	}

	if cfg.LineToken == "" {
		return nil, errors.New("LINE_CHANNEL_TOKEN is required")
	}
	switch cfg.GeocoderProvider {
	case GeocoderNominatim, GeocoderNone:
	case GeocoderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER_PROVIDER %q", cfg.GeocoderProvider)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the alert stream is configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

type countriesFile struct {
	Countries []string `yaml:"countries"`
}

// loadCountries reads a YAML document of the form:
//
//	countries:
//	  - thailand
//	  - myanmar
func loadCountries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read TARGET_COUNTRIES_FILE: %w", err)
	}
	var f countriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse TARGET_COUNTRIES_FILE: %w", err)
	}
	if len(f.Countries) == 0 {
		return nil, errors.New("TARGET_COUNTRIES_FILE lists no countries")
	}
	return f.Countries, nil
}
