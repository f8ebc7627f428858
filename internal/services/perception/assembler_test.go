package perception

import (
	"errors"
	"testing"
	"time"

	"TiltGuard/internal/domain/models"
)

func pnl(v float64) *float64 { return &v }

func snap() models.MarketSnapshot {
	return models.MarketSnapshot{
		Ticker:       "NVDA",
		CurrentPrice: 500,
		Trend:        models.TrendFlat,
		Volatility:   0.01,
		CapturedAt:   time.Now(),
	}
}

func event(offset time.Duration, action models.ActionKind, qty int64) models.TradeEvent {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.TradeEvent{
		Timestamp: base.Add(offset),
		TraderID:  "t1",
		Ticker:    "NVDA",
		Action:    action,
		Price:     500,
		Quantity:  qty,
	}
}

func TestAssembleEmptyWindow(t *testing.T) {
	_, err := Assemble(snap(), nil, "")
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestActionRateTrailingMinute(t *testing.T) {
	events := []models.TradeEvent{
		event(-5*time.Minute, models.ActionBuy, 10),
		event(-50*time.Second, models.ActionBuy, 10),
		event(-20*time.Second, models.ActionCancel, 0),
		event(0, models.ActionBuy, 10),
	}
	frame, err := Assemble(snap(), events, "")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := frame.Signals.ActionRateLastMinute; got != 3 {
		t.Fatalf("expected rate 3, got %d", got)
	}
}

func TestPendingActionCounts(t *testing.T) {
	events := []models.TradeEvent{
		event(0, models.ActionBuy, 10),
	}
	frame, err := Assemble(snap(), events, models.ActionCancel)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := frame.Signals.ActionRateLastMinute; got != 2 {
		t.Fatalf("expected rate 2 with pending, got %d", got)
	}
	// one cancel (pending) over one placed order
	if got := frame.Signals.CancelToPlaceRatio; got != 1.0 {
		t.Fatalf("expected ratio 1.0, got %v", got)
	}
}

func TestCancelRatioNoPlacements(t *testing.T) {
	events := []models.TradeEvent{
		event(-10*time.Second, models.ActionCancel, 0),
		event(0, models.ActionCancel, 0),
	}
	frame, err := Assemble(snap(), events, "")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := frame.Signals.CancelToPlaceRatio; got != 2.0 {
		t.Fatalf("expected denominator floor of 1, got %v", got)
	}
}

func TestLossStreakSkipsNonClosing(t *testing.T) {
	ev := func(offset time.Duration, p *float64) models.TradeEvent {
		e := event(offset, models.ActionSell, 10)
		e.RealizedPnL = p
		return e
	}
	events := []models.TradeEvent{
		ev(-5*time.Minute, pnl(50)),
		ev(-4*time.Minute, pnl(-20)),
		event(-3*time.Minute, models.ActionCheck, 0), // no pnl, skipped
		ev(-2*time.Minute, pnl(-10)),
		event(-time.Minute, models.ActionModify, 0), // skipped
	}
	frame, err := Assemble(snap(), events, "")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := frame.Signals.LossStreak; got != 2 {
		t.Fatalf("expected streak 2, got %d", got)
	}
}

func TestSizeEscalationNeedsSixOpenings(t *testing.T) {
	events := []models.TradeEvent{
		event(-4*time.Minute, models.ActionBuy, 10),
		event(-3*time.Minute, models.ActionBuy, 10),
		event(-2*time.Minute, models.ActionBuy, 10),
		event(-time.Minute, models.ActionBuy, 20),
	}
	frame, err := Assemble(snap(), events, "")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := frame.Signals.SizeEscalationFactor; got != 1.0 {
		t.Fatalf("expected neutral factor with <6 openings, got %v", got)
	}
}

func TestSizeEscalationDoubling(t *testing.T) {
	events := []models.TradeEvent{
		event(-6*time.Minute, models.ActionBuy, 10),
		event(-5*time.Minute, models.ActionBuy, 10),
		event(-4*time.Minute, models.ActionBuy, 10),
		event(-3*time.Minute, models.ActionBuy, 20),
		event(-2*time.Minute, models.ActionBuy, 20),
		event(-time.Minute, models.ActionBuy, 20),
	}
	frame, err := Assemble(snap(), events, "")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := frame.Signals.SizeEscalationFactor; got != 2.0 {
		t.Fatalf("expected factor 2.0, got %v", got)
	}
}

func TestNeutralFrame(t *testing.T) {
	frame := NeutralFrame(snap(), models.ActionBuy)
	if frame.Signals != models.NeutralSignals() {
		t.Fatalf("expected neutral signals, got %+v", frame.Signals)
	}
	if frame.PendingAction != models.ActionBuy {
		t.Fatalf("pending action dropped")
	}
	if frame.View().WindowSize != 0 {
		t.Fatalf("expected empty window")
	}
}
