package service

import (
	"context"

	"TiltGuard/internal/domain/models"
)

// MarketData supplies a fresh snapshot per analysis call.
type MarketData interface {
	Snapshot(ctx context.Context, ticker string) (models.MarketSnapshot, error)
}

// TextEnrichment optionally rewrites a deterministic rationale into richer
// language. Best-effort and timeout-bounded: callers fall back silently.
type TextEnrichment interface {
	Elaborate(ctx context.Context, contributions []models.SignalContribution, score float64) (string, error)
}

// TiltScorer computes the behavioral risk score for one frame.
type TiltScorer interface {
	Score(frame models.PerceptionFrame) models.TiltAssessment
}
