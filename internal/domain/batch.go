package domain

import "time"

const (
	// BatchWindow is the maximum distance between an event and the batch anchor.
	BatchWindow = 20 * time.Minute

	// MaxBatchSize is the carousel limit of the messaging API.
	MaxBatchSize = 10
)

// Batch is the set of events notified together in one cycle.
type Batch struct {
	// Anchor is the epoch-ms time of the first candidate of the cycle.
	Anchor int64
	// Events are included in the notification, in discovery order.
	Events []Candidate
	// Deferred candidates fell outside the window or over the size cap. They
	// are not marked sent and stay eligible for a later cycle.
	Deferred []Candidate
}

// Empty reports whether the batch has nothing to notify.
func (b Batch) Empty() bool { return len(b.Events) == 0 }

// BuildBatch groups candidates into a single notification. The first
// candidate anchors the window; any later candidate whose time differs from
// the anchor by more than window, in either direction, is deferred, as is
// everything past maxSize.
func BuildBatch(candidates []Candidate, window time.Duration, maxSize int) Batch {
	if len(candidates) == 0 {
		return Batch{}
	}

	windowMillis := window.Milliseconds()
	b := Batch{Anchor: candidates[0].Event.TimeMillis}

	for _, c := range candidates {
		if absMillis(c.Event.TimeMillis-b.Anchor) > windowMillis || len(b.Events) >= maxSize {
			b.Deferred = append(b.Deferred, c)
			continue
		}
		b.Events = append(b.Events, c)
	}
	return b
}

func absMillis(d int64) int64 {
	if d < 0 {
		return -d
	}
	return d
}
