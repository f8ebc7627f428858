package marketdata

import (
	"context"
	"fmt"
	"time"

	"TiltGuard/internal/domain/models"
	"TiltGuard/pkg/config"
	xhttp "TiltGuard/pkg/http"
)

// HTTPClient fetches market snapshots from the market-data collaborator.
// Any transport or payload problem surfaces as ErrUpstreamUnavailable so
// the caller can tell "data source down" apart from bad input.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

func NewHTTPClient(cfg *config.Config) *HTTPClient {
	timeout := cfg.MarketData.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: cfg.MarketData.BaseURL,
		apiKey:  cfg.MarketData.APIKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type snapshotResp struct {
	Ticker        string  `json:"ticker"`
	CurrentPrice  float64 `json:"current_price"`
	PriceChange1d float64 `json:"price_change_1d"`
	Trend         string  `json:"trend"`
	Volatility    float64 `json:"volatility"`
	CapturedAt    string  `json:"captured_at"` // RFC3339 or unix seconds
}

// Snapshot fetches and validates one snapshot. Never cached.
func (c *HTTPClient) Snapshot(ctx context.Context, ticker string) (models.MarketSnapshot, error) {
	if c.baseURL == "" {
		return models.MarketSnapshot{}, fmt.Errorf("%w: market data not configured", models.ErrUpstreamUnavailable)
	}

	var raw snapshotResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/snapshot",
		QueryParams: map[string][]string{
			"ticker": {ticker},
			"token":  {c.apiKey},
		},
	}, &raw)
	if err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("%w: snapshot %s: %v", models.ErrUpstreamUnavailable, ticker, err)
	}

	snap := models.MarketSnapshot{
		Ticker:        raw.Ticker,
		CurrentPrice:  raw.CurrentPrice,
		PriceChange1d: raw.PriceChange1d,
		Trend:         models.Trend(raw.Trend),
		Volatility:    raw.Volatility,
		CapturedAt:    xhttp.ParseTimeDefault(raw.CapturedAt, time.Now()).UTC(),
	}
	if err := snap.Validate(); err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	return snap, nil
}
