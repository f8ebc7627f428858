package marketdata

import (
	"math"
	"sync"
	"time"

	"TiltGuard/internal/domain/models"
)

const (
	maxTicksPerTicker = 2048
	trendEpsilon      = 0.001 // 0.1% move counts as a trend
)

// Tick is one observed trade print from the market stream.
type Tick struct {
	Ticker string
	Price  float64
	Time   time.Time
}

type tickerStats struct {
	ticks []Tick // ascending by time, bounded ring
}

// Tracker keeps a rolling per-ticker window of stream ticks and derives
// snapshots from it: last price, daily change, coarse trend, and a
// stddev-of-returns volatility proxy.
type Tracker struct {
	mu sync.RWMutex
	m  map[string]*tickerStats
}

func NewTracker() *Tracker {
	return &Tracker{m: make(map[string]*tickerStats)}
}

// Update appends one tick, dropping the oldest past the window bound.
func (t *Tracker) Update(tick Tick) {
	if tick.Ticker == "" || tick.Price <= 0 {
		return
	}
	t.mu.Lock()
	st, ok := t.m[tick.Ticker]
	if !ok {
		st = &tickerStats{}
		t.m[tick.Ticker] = st
	}
	st.ticks = append(st.ticks, tick)
	if len(st.ticks) > maxTicksPerTicker {
		st.ticks = st.ticks[len(st.ticks)-maxTicksPerTicker:]
	}
	t.mu.Unlock()
}

// Snapshot derives a MarketSnapshot for ticker, or ok=false when the
// tracker has not seen it yet.
func (t *Tracker) Snapshot(ticker string) (models.MarketSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.m[ticker]
	if !ok || len(st.ticks) == 0 {
		return models.MarketSnapshot{}, false
	}

	last := st.ticks[len(st.ticks)-1]
	dayAgo := last.Time.Add(-24 * time.Hour)
	ref := st.ticks[0]
	for _, tk := range st.ticks {
		if !tk.Time.Before(dayAgo) {
			ref = tk
			break
		}
	}

	change := 0.0
	if ref.Price > 0 {
		change = (last.Price - ref.Price) / ref.Price * 100
	}

	snap := models.MarketSnapshot{
		Ticker:        ticker,
		CurrentPrice:  last.Price,
		PriceChange1d: change,
		Trend:         trendOf(change),
		Volatility:    volatility(st.ticks),
		CapturedAt:    last.Time.UTC(),
	}
	return snap, true
}

func trendOf(changePct float64) models.Trend {
	switch {
	case changePct > trendEpsilon*100:
		return models.TrendUp
	case changePct < -trendEpsilon*100:
		return models.TrendDown
	default:
		return models.TrendFlat
	}
}

// volatility is the standard deviation of tick-to-tick returns.
func volatility(ticks []Tick) float64 {
	if len(ticks) < 3 {
		return 0
	}
	rets := make([]float64, 0, len(ticks)-1)
	for i := 1; i < len(ticks); i++ {
		prev, cur := ticks[i-1].Price, ticks[i].Price
		if prev <= 0 || cur <= 0 {
			continue
		}
		rets = append(rets, math.Log(cur/prev))
	}
	if len(rets) < 2 {
		return 0
	}
	var sum, sum2 float64
	for _, r := range rets {
		sum += r
		sum2 += r * r
	}
	n := float64(len(rets))
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
