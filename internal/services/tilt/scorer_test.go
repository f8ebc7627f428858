package tilt

import (
	"strings"
	"testing"

	"TiltGuard/internal/domain/models"
	"TiltGuard/pkg/config"
)

func defaultScorer() *Scorer {
	var cfg config.EngineConfig
	cfg.Defaults()
	return NewScorer(cfg)
}

func frameWith(sig models.DerivedSignals, vol float64) models.PerceptionFrame {
	return models.PerceptionFrame{
		Market:  models.MarketSnapshot{Ticker: "NVDA", CurrentPrice: 500, Trend: models.TrendFlat, Volatility: vol},
		Signals: sig,
	}
}

func TestScoreNeutralIsLow(t *testing.T) {
	s := defaultScorer()
	got := s.Score(frameWith(models.NeutralSignals(), 0))
	if got.Score != 0 {
		t.Fatalf("expected score 0 for neutral signals, got %v", got.Score)
	}
	if !strings.Contains(got.Rationale, "no elevated behavioral signals") {
		t.Fatalf("unexpected rationale %q", got.Rationale)
	}
}

func TestScoreEmptyHistoryUnderOne(t *testing.T) {
	// an empty window leaves only market volatility in play
	s := defaultScorer()
	got := s.Score(frameWith(models.NeutralSignals(), 0.05))
	if got.Score > 1.0 {
		t.Fatalf("empty-history score should not exceed 1.0, got %v", got.Score)
	}
}

func TestScoreHotStreakBreachesCritical(t *testing.T) {
	// rapid churn: burst of orders, every order cancelled, three losses in a row
	s := defaultScorer()
	sig := models.DerivedSignals{
		ActionRateLastMinute: 10,
		CancelToPlaceRatio:   1.0,
		LossStreak:           3,
		SizeEscalationFactor: 1.0,
	}
	got := s.Score(frameWith(sig, 0))
	if got.Score <= 6 {
		t.Fatalf("expected score above 6, got %v", got.Score)
	}
}

func TestScoreSaturatesAtTen(t *testing.T) {
	s := defaultScorer()
	sig := models.DerivedSignals{
		ActionRateLastMinute: 100,
		CancelToPlaceRatio:   5.0,
		LossStreak:           50,
		SizeEscalationFactor: 10,
	}
	got := s.Score(frameWith(sig, 1.0))
	if got.Score > 10 {
		t.Fatalf("score must be clipped to 10, got %v", got.Score)
	}
	if got.Score != 10 {
		t.Fatalf("fully saturated signals should hit 10, got %v", got.Score)
	}
}

func TestScoreMonotoneInLossStreak(t *testing.T) {
	s := defaultScorer()
	prev := -1.0
	for streak := 0; streak <= 6; streak++ {
		sig := models.NeutralSignals()
		sig.LossStreak = streak
		got := s.Score(frameWith(sig, 0))
		if got.Score < prev {
			t.Fatalf("score decreased at streak %d: %v < %v", streak, got.Score, prev)
		}
		prev = got.Score
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := defaultScorer()
	sig := models.DerivedSignals{ActionRateLastMinute: 7, CancelToPlaceRatio: 0.5, LossStreak: 2, SizeEscalationFactor: 1.5}
	a := s.Score(frameWith(sig, 0.02))
	b := s.Score(frameWith(sig, 0.02))
	if a.Score != b.Score || a.Rationale != b.Rationale {
		t.Fatalf("same frame produced different assessments: %+v vs %+v", a, b)
	}
}

func TestRationaleNamesTopContributors(t *testing.T) {
	s := defaultScorer()
	sig := models.NeutralSignals()
	sig.LossStreak = 5
	sig.CancelToPlaceRatio = 1.0
	got := s.Score(frameWith(sig, 0))
	if !strings.Contains(got.Rationale, "consecutive losing trades") {
		t.Fatalf("rationale missing loss streak: %q", got.Rationale)
	}
	if !strings.Contains(got.Rationale, "cancel-to-order ratio") {
		t.Fatalf("rationale missing cancel ratio: %q", got.Rationale)
	}
}

func TestTopContributorsTieBreakByOrder(t *testing.T) {
	contributions := []models.SignalContribution{
		{Name: SignalVolatility, Weighted: 1.0},
		{Name: SignalActionRate, Weighted: 1.0},
	}
	top := TopContributors(contributions, 1)
	if len(top) != 1 || top[0].Name != SignalActionRate {
		t.Fatalf("declaration order should win ties, got %+v", top)
	}
}
