package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/quake-alert-service/internal/domain"
)

// maxErrorBody bounds how much of a failed response is kept in a FetchError.
const maxErrorBody = 512

// Client fetches recent earthquakes from the USGS FDSN event service.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	limit        int
	minMagnitude float64
	logger       *slog.Logger
}

// NewClient creates a feed client returning at most limit events of at least
// minMagnitude per call.
func NewClient(baseURL string, limit int, minMagnitude float64, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:      baseURL,
		limit:        limit,
		minMagnitude: minMagnitude,
		logger:       logger,
	}
}

// FetchRecent returns the most recent events in feed order, newest first.
// It fails with *domain.FetchError when the feed is unreachable or answers
// with a non-200 status, and *domain.ParseError when the body is not GeoJSON.
func (c *Client) FetchRecent(ctx context.Context) ([]domain.FeedEvent, error) {
	params := url.Values{
		"format":       {"geojson"},
		"orderby":      {"time"},
		"limit":        {strconv.Itoa(c.limit)},
		"minmagnitude": {strconv.FormatFloat(c.minMagnitude, 'f', -1, 64)},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: c.baseURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.FetchError{URL: c.baseURL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, &domain.ParseError{Err: err}
	}

	events := make([]domain.FeedEvent, 0, len(fc.Features))
	for _, f := range fc.Features {
		events = append(events, f.toFeedEvent())
	}

	c.logger.Debug("feed fetched", "events", len(events))
	return events, nil
}

// USGS GeoJSON response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
	Geometry   *geometry  `json:"geometry"`
}

type properties struct {
	Place *string  `json:"place"`
	Mag   *float64 `json:"mag"`
	Time  *int64   `json:"time"` // epoch ms
}

type geometry struct {
	Coordinates []*float64 `json:"coordinates"` // [lon, lat, depth]
}

func (f feature) toFeedEvent() domain.FeedEvent {
	ev := domain.FeedEvent{
		ID:         f.ID,
		Magnitude:  f.Properties.Mag,
		TimeMillis: f.Properties.Time,
	}
	if f.Properties.Place != nil {
		ev.Place = *f.Properties.Place
	}
	if f.Geometry != nil {
		if len(f.Geometry.Coordinates) > 0 {
			ev.Lon = f.Geometry.Coordinates[0]
		}
		if len(f.Geometry.Coordinates) > 1 {
			ev.Lat = f.Geometry.Coordinates[1]
		}
	}
	return ev
}
