package domain

import (
	"context"
	"log/slog"
	"time"
)

// Country resolution sources.
const (
	SourceText    = "text"    // resolved from the place description
	SourceReverse = "reverse" // resolved by reverse geocoding
	SourceFailed  = "failed"  // geocoder returned an error
	SourceNone    = "none"    // nothing resolved
)

// CountryResolver derives a country for an event, trying the cheap textual
// heuristic first and falling back to reverse geocoding.
type CountryResolver struct {
	targets  CountrySet
	geocoder Geocoder
	timeout  time.Duration
	logger   *slog.Logger
}

// NewCountryResolver creates a resolver. Pass a nil geocoder to disable the
// coordinate fallback. A non-positive timeout leaves the call bounded only by
// the caller's context.
func NewCountryResolver(targets CountrySet, geocoder Geocoder, timeout time.Duration, logger *slog.Logger) *CountryResolver {
	return &CountryResolver{
		targets:  targets,
		geocoder: geocoder,
		timeout:  timeout,
		logger:   logger,
	}
}

// Targets returns the configured target set.
func (r *CountryResolver) Targets() CountrySet { return r.targets }

// Resolve returns the lowercased country for the place or coordinates and the
// source that produced it. Geocoding failures degrade to an empty country.
func (r *CountryResolver) Resolve(ctx context.Context, place string, lat, lon float64) (country, source string) {
	if c := CountryFromPlace(place); c != "" && r.targets.Contains(c) {
		return c, SourceText
	}

	if r.geocoder == nil {
		return "", SourceNone
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err := r.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		r.logger.Warn("reverse geocoding failed",
			"place", place,
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return "", SourceFailed
	}

	country = normalizeCountry(result.Country)
	if country == "" {
		return "", SourceNone
	}
	return country, SourceReverse
}
