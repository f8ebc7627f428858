package insight

import (
	"strings"
	"testing"

	"TiltGuard/internal/domain/models"
)

func TestSynthesizeFullContext(t *testing.T) {
	frame := models.PerceptionFrame{
		Market: models.MarketSnapshot{
			Ticker:        "NVDA",
			CurrentPrice:  512.34,
			PriceChange1d: -2.1,
			Trend:         models.TrendDown,
			Volatility:    0.021,
		},
		Window: []models.TradeEvent{{Action: models.ActionBuy}},
	}
	tilt := models.TiltAssessment{Score: 7.2, Rationale: "Tilt score 7.2/10, driven by a run of consecutive losing trades."}
	iv := models.InterventionState{Band: models.BandCritical, Title: "Tilt warning", Message: "Step away."}
	prof := models.TraderProfile{TotalTrades: 12, DominantBias: models.BiasLossAversionRevenge}

	got := Synthesize(frame, tilt, iv, prof)
	for _, want := range []string{"NVDA is at 512.34", "trending down", tilt.Rationale, "loss aversion revenge", "Tilt warning"} {
		if !strings.Contains(got, want) {
			t.Fatalf("insight missing %q: %s", want, got)
		}
	}
}

func TestSynthesizeMissingMarket(t *testing.T) {
	got := Synthesize(models.PerceptionFrame{}, models.TiltAssessment{Score: 0.5}, models.InterventionState{}, models.TraderProfile{})
	if !strings.Contains(got, "Market context is unavailable") {
		t.Fatalf("expected market fallback clause: %s", got)
	}
	if !strings.Contains(got, "No intervention is active.") {
		t.Fatalf("expected no-intervention clause: %s", got)
	}
}

func TestSynthesizeDisciplinedOmitsBias(t *testing.T) {
	prof := models.TraderProfile{TotalTrades: 20, DominantBias: models.BiasDisciplinedTrader}
	got := Synthesize(models.PerceptionFrame{}, models.TiltAssessment{}, models.InterventionState{}, prof)
	if strings.Contains(got, "disciplined trader pattern") {
		t.Fatalf("disciplined bias should not be called out: %s", got)
	}
}

func TestSynthesizeEmptyWindowClause(t *testing.T) {
	got := Synthesize(models.PerceptionFrame{}, models.TiltAssessment{Score: 1.0}, models.InterventionState{}, models.TraderProfile{})
	if !strings.Contains(got, "not enough recent trading activity") {
		t.Fatalf("expected empty-window clause: %s", got)
	}
}
