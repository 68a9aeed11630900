package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/couchcryptid/quake-alert-service/internal/domain"
	"github.com/couchcryptid/quake-alert-service/internal/flex"
	"github.com/couchcryptid/quake-alert-service/internal/observability"
)

// DefaultInterval is the time between two polling cycles.
const DefaultInterval = 5 * time.Minute

// FeedClient returns the most recent seismic events.
type FeedClient interface {
	FetchRecent(ctx context.Context) ([]domain.FeedEvent, error)
}

// SentStore remembers which events were already notified.
type SentStore interface {
	Load(ctx context.Context) (map[string]struct{}, error)
	Save(ctx context.Context, id string) error
}

// CountryResolver derives the country of an event.
type CountryResolver interface {
	Resolve(ctx context.Context, place string, lat, lon float64) (country, source string)
	Targets() domain.CountrySet
}

// Broadcaster delivers a message to every subscriber.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *messaging_api.FlexMessage) error
}

// AlertPublisher receives every batch that was broadcast.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.Candidate, notifiedAt time.Time) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRunOnStart runs one cycle as soon as Run is called instead of waiting
// for the first tick.
func WithRunOnStart(enabled bool) Option {
	return func(p *Pipeline) { p.runOnStart = enabled }
}

// WithPublisher mirrors each broadcast batch to an alert stream.
func WithPublisher(pub AlertPublisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// Pipeline runs the fetch, filter, batch, and broadcast cycle on a fixed
// interval.
type Pipeline struct {
	feed        FeedClient
	store       SentStore
	resolver    CountryResolver
	formatter   *flex.Formatter
	broadcaster Broadcaster
	publisher   AlertPublisher
	logger      *slog.Logger
	metrics     *observability.Metrics

	clock      clockwork.Clock
	interval   time.Duration
	runOnStart bool
	ready      atomic.Bool
	last       atomic.Pointer[domain.CycleReport]
}

// New creates a Pipeline with the given stages and observability.
func New(
	feed FeedClient,
	store SentStore,
	resolver CountryResolver,
	formatter *flex.Formatter,
	broadcaster Broadcaster,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		feed:        feed,
		store:       store,
		resolver:    resolver,
		formatter:   formatter,
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		interval:    DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a cycle has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no polling cycle has completed yet")
	}
	return nil
}

// LastCycle returns the report of the most recent cycle, if any has run.
func (p *Pipeline) LastCycle() (domain.CycleReport, bool) {
	r := p.last.Load()
	if r == nil {
		return domain.CycleReport{}, false
	}
	return *r, true
}

// Run executes a cycle on every tick until the context is cancelled. Cycles
// never overlap and a failed cycle does not stop the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval, "run_on_start", p.runOnStart)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if p.runOnStart {
		p.runOnce(ctx)
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.runOnce(ctx)
		}
	}
}

func (p *Pipeline) runOnce(ctx context.Context) {
	start := p.clock.Now()
	report, err := p.RunCycle(ctx)
	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		report.Error = err.Error()
		p.last.Store(&report)
		p.metrics.CyclesTotal.WithLabelValues(cycleOutcome(err)).Inc()
		p.logger.Error("cycle failed", "cycle_id", report.ID, "error", err)
		return
	}

	p.last.Store(&report)
	p.metrics.CyclesTotal.WithLabelValues("success").Inc()
	p.ready.Store(true)
	p.logger.Info("cycle complete",
		"cycle_id", report.ID,
		"fetched", report.Fetched,
		"notified", report.Notified,
		"deferred", report.Deferred,
	)
}

// RunCycle fetches the feed once, selects new events in the target
// countries, marks them sent, and broadcasts them. Only a store load or feed
// failure is returned as an error; a failed broadcast is logged and the
// events stay marked.
func (p *Pipeline) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	report := domain.CycleReport{ID: uuid.NewString(), StartedAt: p.clock.Now()}
	logger := p.logger.With("cycle_id", report.ID)

	sent, err := p.store.Load(ctx)
	if err != nil {
		return report, &storeError{err: err}
	}

	feed, err := p.feed.FetchRecent(ctx)
	if err != nil {
		return report, err
	}
	report.Fetched = len(feed)
	p.metrics.EventsFetched.Add(float64(len(feed)))

	candidates := p.selectCandidates(ctx, logger, feed, sent)

	batch := domain.BuildBatch(candidates, domain.BatchWindow, domain.MaxBatchSize)
	report.Deferred = len(batch.Deferred)
	for _, c := range batch.Deferred {
		p.metrics.EventsSkipped.WithLabelValues("deferred").Inc()
		logger.Debug("event deferred to a later cycle",
			"event_id", c.Event.ID,
			"place", c.Event.Place,
			"anchor_ms", batch.Anchor,
		)
	}

	alerts := p.markSent(ctx, logger, batch.Events)
	if len(alerts) == 0 {
		logger.Debug("no new earthquakes in target countries")
		return report, nil
	}
	report.Notified = len(alerts)

	events := make([]domain.SeismicEvent, len(alerts))
	for i, a := range alerts {
		events[i] = a.Event
	}
	msg, ok := p.formatter.Message(events)
	if !ok {
		return report, nil
	}

	if err := p.broadcaster.Broadcast(ctx, msg); err != nil {
		p.metrics.BroadcastErrors.Inc()
		logger.Error("broadcast failed", "events", len(alerts), "error", err)
		return report, nil
	}
	report.Broadcast = true
	p.metrics.AlertsNotified.Add(float64(len(alerts)))
	logger.Info("earthquake alert sent", "events", len(alerts), "alt_text", msg.AltText)

	if p.publisher != nil {
		if err := p.publisher.PublishAlerts(ctx, alerts, p.clock.Now()); err != nil {
			logger.Warn("publish alerts failed", "error", err)
		}
	}
	return report, nil
}

// selectCandidates keeps the feed order and drops events already sent,
// incomplete, or outside the target countries.
func (p *Pipeline) selectCandidates(ctx context.Context, logger *slog.Logger, feed []domain.FeedEvent, sent map[string]struct{}) []domain.Candidate {
	targets := p.resolver.Targets()
	seen := make(map[string]struct{}, len(feed))
	var candidates []domain.Candidate

	for _, fe := range feed {
		if _, ok := sent[fe.ID]; ok {
			p.metrics.EventsSkipped.WithLabelValues("already_sent").Inc()
			continue
		}
		if _, ok := seen[fe.ID]; ok {
			p.metrics.EventsSkipped.WithLabelValues("already_sent").Inc()
			continue
		}
		seen[fe.ID] = struct{}{}

		event, err := fe.Complete()
		if err != nil {
			p.metrics.EventsSkipped.WithLabelValues("incomplete").Inc()
			logger.Warn("skipping incomplete event", "event_id", fe.ID, "place", fe.Place, "error", err)
			continue
		}

		country, source := p.resolver.Resolve(ctx, event.Place, event.Lat, event.Lon)
		if !targets.Contains(country) {
			p.metrics.EventsSkipped.WithLabelValues("not_target").Inc()
			logger.Debug("event outside target countries",
				"event_id", event.ID,
				"place", event.Place,
				"country", country,
				"country_source", source,
			)
			continue
		}

		candidates = append(candidates, domain.Candidate{
			Event:         event,
			Country:       country,
			CountrySource: source,
		})
	}
	return candidates
}

// markSent saves every included event before anything is dispatched. An
// event whose save fails is left out of the notification.
func (p *Pipeline) markSent(ctx context.Context, logger *slog.Logger, included []domain.Candidate) []domain.Candidate {
	marked := make([]domain.Candidate, 0, len(included))
	for _, c := range included {
		if err := p.store.Save(ctx, c.Event.ID); err != nil {
			p.metrics.EventsSkipped.WithLabelValues("store_error").Inc()
			logger.Error("mark event sent failed", "event_id", c.Event.ID, "error", err)
			continue
		}
		marked = append(marked, c)
	}
	return marked
}

type storeError struct {
	err error
}

func (e *storeError) Error() string { return fmt.Sprintf("load sent ids: %v", e.err) }

func (e *storeError) Unwrap() error { return e.err }

func cycleOutcome(err error) string {
	var fetchErr *domain.FetchError
	var parseErr *domain.ParseError
	var storeErr *storeError
	switch {
	case errors.As(err, &fetchErr):
		return "fetch_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &storeErr):
		return "store_error"
	default:
		return "error"
	}
}
