package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TiltGuard/internal/domain/models"
	domrepo "TiltGuard/internal/domain/repository"
	pkgkafka "TiltGuard/pkg/kafka"
)

// EventsIngestHandler consumes trader action events from Kafka and writes
// them to the ledger. This is the only write path into the ledger.
type EventsIngestHandler struct {
	topic   string
	ledger  domrepo.TradeLedger
	metrics domrepo.Metrics
}

func NewEventsIngestHandler(topic string, ledger domrepo.TradeLedger, metrics domrepo.Metrics) *EventsIngestHandler {
	return &EventsIngestHandler{topic: topic, ledger: ledger, metrics: metrics}
}

func (h *EventsIngestHandler) Topic() string { return h.topic }

// incoming message schema: {trader_id, ticker, action, price, qty, pnl?, note?, ts}
func (h *EventsIngestHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		TraderID string   `json:"trader_id"`
		Ticker   string   `json:"ticker"`
		Action   string   `json:"action"`
		Price    float64  `json:"price"`
		Qty      int64    `json:"qty"`
		PnL      *float64 `json:"pnl,omitempty"`
		Note     string   `json:"note,omitempty"`
		TS       int64    `json:"ts"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	action, err := models.ParseActionKind(m.Action)
	if err != nil {
		h.metrics.RecordError("consumer_action")
		return err
	}
	if m.TraderID == "" || m.Ticker == "" {
		h.metrics.RecordError("consumer_fields")
		return fmt.Errorf("event missing trader_id or ticker")
	}
	if m.TS > 1e11 { // ms
		m.TS = m.TS / 1000
	}

	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.TS, 0)).Seconds())

	start := time.Now()
	err = h.ledger.Store(ctx, &models.TradeEvent{
		Timestamp:   time.Unix(m.TS, 0).UTC(),
		TraderID:    m.TraderID,
		Ticker:      m.Ticker,
		Action:      action,
		Price:       m.Price,
		Quantity:    m.Qty,
		RealizedPnL: m.PnL,
		Note:        m.Note,
	})
	h.metrics.RecordLatency("ledger_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}

	return nil
}

var _ pkgkafka.MessageHandler = (*EventsIngestHandler)(nil)
