package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/quake-alert-service/internal/adapter/geocache"
	"github.com/couchcryptid/quake-alert-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/quake-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-alert-service/internal/adapter/line"
	"github.com/couchcryptid/quake-alert-service/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-alert-service/internal/adapter/nominatim"
	"github.com/couchcryptid/quake-alert-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-alert-service/internal/config"
	"github.com/couchcryptid/quake-alert-service/internal/domain"
	"github.com/couchcryptid/quake-alert-service/internal/flex"
	"github.com/couchcryptid/quake-alert-service/internal/observability"
	"github.com/couchcryptid/quake-alert-service/internal/pipeline"
	"github.com/couchcryptid/quake-alert-service/internal/store"
)

type sentStore interface {
	pipeline.SentStore
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	geocoder := newGeocoder(cfg, metrics, logger)
	resolver := domain.NewCountryResolver(
		domain.NewCountrySet(cfg.TargetCountries...),
		geocoder,
		cfg.GeocodeTimeout,
		logger,
	)

	sent, err := newSentStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open dedup store", "error", err)
		os.Exit(1)
	}

	feed := usgs.NewClient(cfg.FeedURL, cfg.FeedLimit, cfg.FeedMinMagnitude, cfg.FeedTimeout, logger)
	broadcaster, err := line.NewClient(cfg.LineToken, cfg.LineAPIEndpoint, cfg.BroadcastTimeout, logger)
	if err != nil {
		logger.Error("failed to create LINE client", "error", err)
		os.Exit(1)
	}

	opts := []pipeline.Option{
		pipeline.WithInterval(cfg.PollInterval),
		pipeline.WithRunOnStart(cfg.RunOnStart),
	}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("alert stream enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	}

	p := pipeline.New(feed, sent, resolver, flex.NewFormatter(cfg.DisplayLocation), broadcaster, logger, metrics, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	if err := sent.Close(); err != nil {
		logger.Error("dedup store close error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newGeocoder returns the configured reverse geocoder behind an LRU cache, or
// nil when coordinate fallback is disabled.
func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	var client domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.GeocoderMapbox:
		client = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
	case config.GeocoderNominatim:
		client = nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, cfg.GeocodeRateLimit, metrics, logger)
	default:
		logger.Info("reverse geocoding disabled")
		return nil
	}
	logger.Info("reverse geocoding enabled",
		"provider", cfg.GeocoderProvider,
		"cache_size", cfg.GeocodeCacheSize,
		"timeout", cfg.GeocodeTimeout,
	)
	return geocache.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
}

func newSentStore(cfg *config.Config, logger *slog.Logger) (sentStore, error) {
	if cfg.DedupRedisURL != "" {
		rs, err := store.NewRedisStore(cfg.DedupRedisURL, cfg.DedupRedisKey)
		if err != nil {
			return nil, err
		}
		logger.Info("dedup store: redis", "key", cfg.DedupRedisKey)
		return rs, nil
	}
	logger.Info("dedup store: file", "path", cfg.SentIDsFile)
	return store.NewFileStore(cfg.SentIDsFile), nil
}
