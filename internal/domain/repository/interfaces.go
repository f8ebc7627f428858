package repository

import (
	"context"

	"TiltGuard/internal/domain/models"
)

// TradeLedger reads and stores trader action events. Read is a pure read:
// ascending by timestamp, restartable, empty result is not an error.
type TradeLedger interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Read(ctx context.Context, traderID, ticker string, lb models.Lookback) ([]models.TradeEvent, error)
	Store(ctx context.Context, e *models.TradeEvent) error
	StoreBatch(ctx context.Context, events []*models.TradeEvent) error
	Health(ctx context.Context) error // ping
	Close() error
}

// StateStore keeps the per-trader InterventionState, overwritten on each
// classification. The engine serializes access per trader; the store
// itself only needs atomic get/put.
type StateStore interface {
	Get(ctx context.Context, traderID string) (models.InterventionState, bool, error)
	Put(ctx context.Context, traderID string, st models.InterventionState) error
}

// AuditPublisher emits intervention band transitions for the audit
// collaborator. Best-effort: failures are logged, never surfaced.
type AuditPublisher interface {
	PublishTransition(ctx context.Context, traderID string, from, to models.InterventionState, score float64) error
	Close() error
}

// Metrics records engine observability signals.
type Metrics interface {
	RecordAnalysis(ticker string, score float64)
	RecordIntervention(band string)
	RecordEnrichmentFallback(reason string)
	RecordError(kind string)
	RecordLastPrice(ticker string, price float64)
	RecordLatency(op string, seconds float64)
}
