package profile

import (
	"testing"
	"time"

	"TiltGuard/internal/domain/models"
	"TiltGuard/pkg/config"
)

func newProfiler() *Profiler {
	var cfg config.EngineConfig
	cfg.Defaults()
	return New(cfg)
}

func closed(pnl float64, note string) models.TradeEvent {
	return models.TradeEvent{
		Timestamp:   time.Now(),
		TraderID:    "t1",
		Ticker:      "NVDA",
		Action:      models.ActionSell,
		Price:       500,
		Quantity:    10,
		RealizedPnL: &pnl,
		Note:        note,
	}
}

func TestProfileEmptyWindow(t *testing.T) {
	prof := newProfiler().Profile(nil)
	if prof.TotalTrades != 0 || prof.DominantBias != "" {
		t.Fatalf("empty window should yield zero profile, got %+v", prof)
	}
}

func TestProfileWinLossStats(t *testing.T) {
	events := []models.TradeEvent{
		closed(100, ""),
		closed(200, ""),
		closed(-50, ""),
		closed(-30, ""),
		{Action: models.ActionCheck}, // not a closed trade
	}
	prof := newProfiler().Profile(events)
	if prof.TotalTrades != 4 {
		t.Fatalf("expected 4 closed trades, got %d", prof.TotalTrades)
	}
	if prof.WinRate != 50 {
		t.Fatalf("expected win rate 50, got %v", prof.WinRate)
	}
	if prof.AvgWin != 150 {
		t.Fatalf("expected avg win 150, got %v", prof.AvgWin)
	}
	if prof.AvgLoss != -40 {
		t.Fatalf("expected avg loss -40, got %v", prof.AvgLoss)
	}
	if prof.RiskReward != 3.75 {
		t.Fatalf("expected risk/reward 3.75, got %v", prof.RiskReward)
	}
}

func TestRevengeSignals(t *testing.T) {
	// a loss beyond the floor followed by another loss counts once per pair
	events := []models.TradeEvent{
		closed(-150, ""),
		closed(-20, ""),
		closed(-150, ""),
		closed(-10, ""),
		closed(-150, ""),
		closed(-5, ""),
		closed(50, ""),
	}
	prof := newProfiler().Profile(events)
	if prof.RevengeSignals != 3 {
		t.Fatalf("expected 3 revenge signals, got %d", prof.RevengeSignals)
	}
	if prof.DominantBias != models.BiasLossAversionRevenge {
		t.Fatalf("expected revenge bias, got %v", prof.DominantBias)
	}
}

func TestSmallLossesAreNotRevenge(t *testing.T) {
	events := []models.TradeEvent{
		closed(-50, ""),
		closed(-50, ""),
		closed(-50, ""),
		closed(300, ""),
		closed(300, ""),
		closed(300, ""),
	}
	prof := newProfiler().Profile(events)
	if prof.RevengeSignals != 0 {
		t.Fatalf("losses under the floor should not count, got %d", prof.RevengeSignals)
	}
}

func TestFomoNotesMatchCaseInsensitive(t *testing.T) {
	events := []models.TradeEvent{
		closed(100, "felt pure fomo on this one"),
		closed(100, "Rushed the entry"),
		closed(100, "PANIC close"),
		closed(100, "revenge trade after the stop-out"),
		closed(100, "clean setup"),
	}
	prof := newProfiler().Profile(events)
	if prof.FomoTrades != 4 {
		t.Fatalf("expected 4 fomo-tagged trades, got %d", prof.FomoTrades)
	}
	if prof.DominantBias != models.BiasFomoOvertrading {
		t.Fatalf("expected fomo bias, got %v", prof.DominantBias)
	}
}

func TestPoorEdgeBias(t *testing.T) {
	events := []models.TradeEvent{
		closed(100, ""),
		closed(-30, ""),
		closed(-30, ""),
		closed(-30, ""),
	}
	prof := newProfiler().Profile(events)
	if prof.DominantBias != models.BiasPoorEdgeExecution {
		t.Fatalf("win rate %v should classify as poor edge, got %v", prof.WinRate, prof.DominantBias)
	}
}

func TestCuttingWinnersBias(t *testing.T) {
	events := []models.TradeEvent{
		closed(20, ""),
		closed(20, ""),
		closed(20, ""),
		closed(-30, ""),
	}
	prof := newProfiler().Profile(events)
	if prof.DominantBias != models.BiasCuttingWinnersEarly {
		t.Fatalf("risk/reward %v should classify as cutting winners, got %v", prof.RiskReward, prof.DominantBias)
	}
}

func TestDisciplinedTrader(t *testing.T) {
	events := []models.TradeEvent{
		closed(100, ""),
		closed(120, ""),
		closed(90, ""),
		closed(-40, ""),
	}
	prof := newProfiler().Profile(events)
	if prof.DominantBias != models.BiasDisciplinedTrader {
		t.Fatalf("expected disciplined trader, got %v", prof.DominantBias)
	}
}
