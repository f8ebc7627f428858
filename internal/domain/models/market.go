package models

import (
	"fmt"
	"time"
)

// Trend is the coarse direction of a ticker.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// MarketSnapshot is the minimal market shape the engine consumes. It is
// supplied fresh per analysis call and never cached beyond one request.
type MarketSnapshot struct {
	Ticker        string    `json:"ticker"`
	CurrentPrice  float64   `json:"current_price"`
	PriceChange1d float64   `json:"price_change_1d"`
	Trend         Trend     `json:"trend"`
	Volatility    float64   `json:"volatility"`
	CapturedAt    time.Time `json:"captured_at"`
}

// Validate fails fast on a malformed upstream payload instead of letting
// zero values propagate into scoring.
func (m MarketSnapshot) Validate() error {
	if m.Ticker == "" {
		return fmt.Errorf("market snapshot: ticker is required")
	}
	if m.CurrentPrice <= 0 {
		return fmt.Errorf("market snapshot %s: non-positive price %v", m.Ticker, m.CurrentPrice)
	}
	if m.Volatility < 0 {
		return fmt.Errorf("market snapshot %s: negative volatility %v", m.Ticker, m.Volatility)
	}
	switch m.Trend {
	case TrendUp, TrendDown, TrendFlat:
	default:
		return fmt.Errorf("market snapshot %s: unknown trend %q", m.Ticker, m.Trend)
	}
	return nil
}
