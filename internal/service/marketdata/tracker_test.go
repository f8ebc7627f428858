package marketdata

import (
	"testing"
	"time"

	"TiltGuard/internal/domain/models"
)

func tick(ticker string, price float64, offset time.Duration) Tick {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Tick{Ticker: ticker, Price: price, Time: base.Add(offset)}
}

func TestSnapshotUnknownTicker(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Snapshot("NVDA"); ok {
		t.Fatalf("expected miss for unseen ticker")
	}
}

func TestSnapshotIgnoresBadTicks(t *testing.T) {
	tr := NewTracker()
	tr.Update(Tick{Ticker: "", Price: 100})
	tr.Update(Tick{Ticker: "NVDA", Price: 0})
	if _, ok := tr.Snapshot("NVDA"); ok {
		t.Fatalf("bad ticks must not create state")
	}
}

func TestSnapshotTrendUp(t *testing.T) {
	tr := NewTracker()
	tr.Update(tick("NVDA", 100, 0))
	tr.Update(tick("NVDA", 101, time.Minute))
	tr.Update(tick("NVDA", 102, 2*time.Minute))

	snap, ok := tr.Snapshot("NVDA")
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if snap.CurrentPrice != 102 {
		t.Fatalf("expected last price 102, got %v", snap.CurrentPrice)
	}
	if snap.Trend != models.TrendUp {
		t.Fatalf("expected up trend on +2%%, got %v", snap.Trend)
	}
	if snap.PriceChange1d <= 0 {
		t.Fatalf("expected positive daily change, got %v", snap.PriceChange1d)
	}
	if snap.Volatility <= 0 {
		t.Fatalf("expected positive volatility on moving prices, got %v", snap.Volatility)
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("tracker snapshot failed validation: %v", err)
	}
}

func TestSnapshotFlatWithinEpsilon(t *testing.T) {
	tr := NewTracker()
	tr.Update(tick("NVDA", 100, 0))
	tr.Update(tick("NVDA", 100.05, time.Minute))
	tr.Update(tick("NVDA", 100.02, 2*time.Minute))

	snap, ok := tr.Snapshot("NVDA")
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if snap.Trend != models.TrendFlat {
		t.Fatalf("a 0.02%% move should be flat, got %v", snap.Trend)
	}
}

func TestSnapshotTrendDown(t *testing.T) {
	tr := NewTracker()
	tr.Update(tick("NVDA", 100, 0))
	tr.Update(tick("NVDA", 98, time.Minute))
	tr.Update(tick("NVDA", 95, 2*time.Minute))

	snap, _ := tr.Snapshot("NVDA")
	if snap.Trend != models.TrendDown {
		t.Fatalf("expected down trend on -5%%, got %v", snap.Trend)
	}
}

func TestTrackerBoundsWindow(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < maxTicksPerTicker+500; i++ {
		tr.Update(tick("NVDA", 100, time.Duration(i)*time.Second))
	}
	tr.mu.RLock()
	n := len(tr.m["NVDA"].ticks)
	tr.mu.RUnlock()
	if n != maxTicksPerTicker {
		t.Fatalf("window not bounded: %d ticks", n)
	}
}

func TestTickersAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Update(tick("NVDA", 100, 0))
	tr.Update(tick("TSLA", 200, 0))

	nv, _ := tr.Snapshot("NVDA")
	ts, _ := tr.Snapshot("TSLA")
	if nv.CurrentPrice != 100 || ts.CurrentPrice != 200 {
		t.Fatalf("tickers leaked into each other: %v / %v", nv.CurrentPrice, ts.CurrentPrice)
	}
}
