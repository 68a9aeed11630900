package domain

import "time"

// CycleReport summarises one polling cycle.
type CycleReport struct {
	ID        string    `json:"cycle_id"`
	StartedAt time.Time `json:"started_at"`
	Fetched   int       `json:"fetched"`
	Notified  int       `json:"notified"`
	Deferred  int       `json:"deferred"`
	Broadcast bool      `json:"broadcast"`
	Error     string    `json:"error,omitempty"`
}
