package repository

import (
	"context"
	"time"

	"TiltGuard/internal/domain/models"
	"TiltGuard/internal/domain/repository"
	pkgkafka "TiltGuard/pkg/kafka"
)

// KafkaAuditPublisher emits intervention band transitions to the audit
// topic. Best-effort by contract: callers log failures and move on.
type KafkaAuditPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAuditPublisher(producer *pkgkafka.Producer, topic string) repository.AuditPublisher {
	return &KafkaAuditPublisher{producer: producer, topic: topic}
}

func (p *KafkaAuditPublisher) PublishTransition(ctx context.Context, traderID string, from, to models.InterventionState, score float64) error {
	return p.producer.Publish(ctx, p.topic, []byte(traderID), map[string]interface{}{
		"trader_id": traderID,
		"from":      from.Band.String(),
		"to":        to.Band.String(),
		"score":     score,
		"ts":        time.Now().UTC().Unix(),
	})
}

func (p *KafkaAuditPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopAuditPublisher is used when Kafka is disabled.
type NoopAuditPublisher struct{}

func (NoopAuditPublisher) PublishTransition(context.Context, string, models.InterventionState, models.InterventionState, float64) error {
	return nil
}

func (NoopAuditPublisher) Close() error { return nil }

var _ repository.AuditPublisher = NoopAuditPublisher{}
