package domain

import (
	"fmt"
	"strings"
)

// FetchError reports that the seismic feed could not be retrieved: a
// transport failure, a timeout, or a non-200 response.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch feed %s: status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a feed response body that is not the expected GeoJSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IncompleteEventError reports a feed event lacking a required numeric field.
type IncompleteEventError struct {
	EventID string
	Place   string
	Missing []string
}

func (e *IncompleteEventError) Error() string {
	return fmt.Sprintf("event %s is missing %s", e.EventID, strings.Join(e.Missing, ", "))
}

// BroadcastError reports a non-200 answer from the messaging API, or a
// request that never got one.
type BroadcastError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *BroadcastError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("broadcast: status %d: %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("broadcast: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("broadcast: %v", e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }
