package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-alert-service/internal/config"
	"github.com/couchcryptid/quake-alert-service/internal/domain"
)

// Writer publishes notified earthquakes to a Kafka topic so other services
// can consume the alert history.
// It implements pipeline.AlertPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured alert topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// AlertRecord is the JSON value of each published message.
type AlertRecord struct {
	domain.SeismicEvent
	Country       string    `json:"country"`
	CountrySource string    `json:"country_source"`
	NotifiedAt    time.Time `json:"notified_at"`
}

// PublishAlerts writes one message per notified event in a single
// WriteMessages call.
func (w *Writer) PublishAlerts(ctx context.Context, alerts []domain.Candidate, notifiedAt time.Time) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(alerts))
	for i := range alerts {
		msg, err := serializeToMessage(alerts[i], notifiedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish alerts: %w", err)
	}
	w.logger.Debug("alerts published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a notified event into a Kafka message keyed by
// event ID, so redeliveries of one event land on one partition.
func serializeToMessage(alert domain.Candidate, notifiedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(AlertRecord{
		SeismicEvent:  alert.Event,
		Country:       alert.Country,
		CountrySource: alert.CountrySource,
		NotifiedAt:    notifiedAt.UTC(),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.Event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "country", Value: []byte(alert.Country)},
			{Key: "notified_at", Value: []byte(notifiedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
