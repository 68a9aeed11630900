package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result   GeocodingResult
	err      error
	calls    int
	lastLat  float64
	lastLon  float64
	deadline bool
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error) {
	m.calls++
	m.lastLat, m.lastLon = lat, lon
	_, m.deadline = ctx.Deadline()
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func aseanTargets() CountrySet {
	return NewCountrySet(DefaultTargetCountries...)
}

// --- tests ---

func TestResolve_TextPathSkipsGeocoder(t *testing.T) {
	geo := &mockGeocoder{}
	r := NewCountryResolver(aseanTargets(), geo, 10*time.Second, discardLogger())

	country, source := r.Resolve(context.Background(), "10km NE of Chiang Mai, Thailand", 18.9, 99.0)

	assert.Equal(t, "thailand", country)
	assert.Equal(t, SourceText, source)
	assert.Equal(t, 0, geo.calls)
}

func TestResolve_FallbackToReverseGeocode(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{Country: "Myanmar"}}
	r := NewCountryResolver(aseanTargets(), geo, 10*time.Second, discardLogger())

	country, source := r.Resolve(context.Background(), "Unknown Region", 21.9, 96.1)

	assert.Equal(t, "myanmar", country)
	assert.Equal(t, SourceReverse, source)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, 21.9, geo.lastLat)
	assert.Equal(t, 96.1, geo.lastLon)
	assert.True(t, geo.deadline, "geocode call should be time-bounded")
}

func TestResolve_NonTargetSuffixFallsBack(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{Country: "Japan"}}
	r := NewCountryResolver(aseanTargets(), geo, time.Second, discardLogger())

	country, source := r.Resolve(context.Background(), "50 km S of Tokyo, Japan", 35.0, 139.0)

	assert.Equal(t, "japan", country)
	assert.Equal(t, SourceReverse, source)
	assert.Equal(t, 1, geo.calls)
	assert.False(t, r.Targets().Contains(country))
}

func TestResolve_GeocodeError_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("rate limited")}
	r := NewCountryResolver(aseanTargets(), geo, time.Second, discardLogger())

	country, source := r.Resolve(context.Background(), "Banda Sea", -6.5, 129.0)

	assert.Empty(t, country)
	assert.Equal(t, SourceFailed, source)
}

func TestResolve_GeocodeEmptyResult(t *testing.T) {
	geo := &mockGeocoder{}
	r := NewCountryResolver(aseanTargets(), geo, time.Second, discardLogger())

	country, source := r.Resolve(context.Background(), "South China Sea", 12.0, 114.0)

	assert.Empty(t, country)
	assert.Equal(t, SourceNone, source)
}

func TestResolve_NilGeocoder(t *testing.T) {
	r := NewCountryResolver(aseanTargets(), nil, time.Second, discardLogger())

	country, source := r.Resolve(context.Background(), "Banda Sea", -6.5, 129.0)
	assert.Empty(t, country)
	assert.Equal(t, SourceNone, source)

	country, source = r.Resolve(context.Background(), "Mindanao, Philippines", 7.0, 125.0)
	assert.Equal(t, "philippines", country)
	assert.Equal(t, SourceText, source)
}
