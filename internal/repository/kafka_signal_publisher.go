package repository

import (
	"context"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaSignalPublisher publishes validated signals onto the signal topic.
// Messages are keyed by routing key "signal.<ticker>" (slashes folded to
// underscores) so downstream consumers can partition and filter per ticker,
// and carry a priority header: 2 for VERY_STRONG signals, 1 otherwise.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, s *models.Signal) error {
	priority := "1"
	if s.Strength == models.StrengthVeryStrong {
		priority = "2"
	}
	return p.producer.PublishWithHeaders(ctx, p.topic,
		[]byte(routingKey(s.Ticker)),
		map[string]interface{}{
			"type":      "trading_signal",
			"signal":    s,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		},
		[]pkgkafka.Header{{Key: "priority", Value: priority}},
	)
}

func routingKey(ticker string) string {
	return "signal." + strings.ReplaceAll(ticker, "/", "_")
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)
