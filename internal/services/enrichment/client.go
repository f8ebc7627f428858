package enrichment

import (
	"context"
	"fmt"
	"time"

	icache "TiltGuard/internal/service/cache"

	"TiltGuard/internal/domain/models"
	domsvc "TiltGuard/internal/domain/service"
	"TiltGuard/pkg/config"
	xhttp "TiltGuard/pkg/http"
)

const defaultTimeout = 2 * time.Second

// HTTPEnricher asks an external language service to rewrite a tilt
// rationale into richer text. Best-effort: every failure path is the
// caller's cue to fall back to the deterministic rationale.
type HTTPEnricher struct {
	baseURL string
	client  *xhttp.Client
	cache   icache.BytesCache
	ttl     time.Duration
}

func NewHTTPEnricher(cfg *config.Config, cache icache.BytesCache) *HTTPEnricher {
	timeout := cfg.Enrichment.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPEnricher{
		baseURL: cfg.Enrichment.BaseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:   cache,
		ttl:     5 * time.Minute,
	}
}

type elaborateReq struct {
	Score   float64            `json:"score"`
	Signals map[string]float64 `json:"signals"`
}

type elaborateResp struct {
	Text string `json:"text"`
}

// Elaborate posts the top signals and score to the enrichment service.
// Responses are cached briefly keyed by the score band and signal mix so
// repeated analyses of the same situation do not refire the language call.
func (e *HTTPEnricher) Elaborate(ctx context.Context, contributions []models.SignalContribution, score float64) (string, error) {
	if e.baseURL == "" {
		return "", fmt.Errorf("enrichment not configured")
	}

	key := cacheKey(contributions, score)
	if e.cache != nil {
		if b, ok, err := e.cache.GetBytes(key); err == nil && ok {
			return string(b), nil
		}
	}

	signals := make(map[string]float64, len(contributions))
	for _, c := range contributions {
		signals[c.Name] = c.Weighted
	}

	var resp elaborateResp
	err := e.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     e.baseURL + "/elaborate",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    elaborateReq{Score: score, Signals: signals},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("post /elaborate: %w", err)
	}
	if resp.Text == "" {
		return "", fmt.Errorf("empty enrichment response")
	}

	if e.cache != nil {
		_ = e.cache.SetBytes(key, []byte(resp.Text), e.ttl)
	}
	return resp.Text, nil
}

// cacheKey buckets the score to one decimal so near-identical assessments
// share a cache entry.
func cacheKey(contributions []models.SignalContribution, score float64) string {
	key := fmt.Sprintf("enrich:%.1f", score)
	for _, c := range contributions {
		key += fmt.Sprintf(":%s=%.2f", c.Name, c.Weighted)
	}
	return key
}

var _ domsvc.TextEnrichment = (*HTTPEnricher)(nil)
