package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/pkg/models"
)

// FeedbackStream publishes accepted feedback events for downstream
// consumers (analytics, offline model training). Publishing is best-effort;
// a broker outage never blocks feedback recording.
type FeedbackStream struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

func NewFeedbackStream(cfg *config.Config, logger *logrus.Logger) *FeedbackStream {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}

	return &FeedbackStream{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topics.FeedbackEvents,
			Balancer:     &kafka.Hash{}, // Key by user for per-user ordering
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		logger: logger,
	}
}

func (s *FeedbackStream) Publish(ctx context.Context, event *models.FeedbackEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback event: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: payload,
		Time:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to publish feedback event: %w", err)
	}

	return nil
}

func (s *FeedbackStream) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
