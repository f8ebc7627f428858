package tilt

import (
	"fmt"
	"strings"

	"TiltGuard/internal/domain/models"
	domsvc "TiltGuard/internal/domain/service"
	"TiltGuard/pkg/config"
)

// Signal names in declaration order. Rationale tie-breaking depends on
// this order staying stable.
const (
	SignalActionRate     = "action_rate"
	SignalCancelRatio    = "cancel_ratio"
	SignalLossStreak     = "loss_streak"
	SignalSizeEscalation = "size_escalation"
	SignalVolatility     = "volatility"
)

var signalOrder = []string{
	SignalActionRate,
	SignalCancelRatio,
	SignalLossStreak,
	SignalSizeEscalation,
	SignalVolatility,
}

var signalPhrases = map[string]string{
	SignalActionRate:     "a rapid burst of actions in the last minute",
	SignalCancelRatio:    "a high cancel-to-order ratio",
	SignalLossStreak:     "a run of consecutive losing trades",
	SignalSizeEscalation: "escalating position sizes",
	SignalVolatility:     "elevated market volatility",
}

// Scorer computes the tilt score as a weighted linear combination of
// normalized signals, clipped to [0,10]. Weights and normalization caps
// come from configuration so the policy stays auditable signal-by-signal.
// All weights are non-negative and every normalization is monotone, so the
// score is monotonically non-decreasing in each raw signal.
type Scorer struct {
	cfg config.EngineConfig
}

func NewScorer(cfg config.EngineConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score assesses one perception frame. Deterministic: no I/O, no clock.
func (s *Scorer) Score(frame models.PerceptionFrame) models.TiltAssessment {
	w := s.cfg.Weights
	caps := s.cfg.Caps
	sig := frame.Signals

	contributions := []models.SignalContribution{
		contribution(SignalActionRate, w.ActionRate, norm(float64(sig.ActionRateLastMinute), caps.ActionRate)),
		contribution(SignalCancelRatio, w.CancelRatio, clamp01(sig.CancelToPlaceRatio)),
		contribution(SignalLossStreak, w.LossStreak, norm(float64(sig.LossStreak), caps.LossStreak)),
		contribution(SignalSizeEscalation, w.SizeEscalation, norm(sig.SizeEscalationFactor-1, caps.SizeEscalation-1)),
		contribution(SignalVolatility, w.Volatility, norm(frame.Market.Volatility, caps.Volatility)),
	}

	score := 0.0
	for _, c := range contributions {
		score += c.Weighted
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	return models.TiltAssessment{
		Score:         score,
		Rationale:     rationale(score, contributions),
		Contributions: contributions,
	}
}

func contribution(name string, weight, value float64) models.SignalContribution {
	return models.SignalContribution{
		Name:     name,
		Weight:   weight,
		Value:    value,
		Weighted: weight * value,
	}
}

// norm maps v into [0,1], saturating at limit.
func norm(v, limit float64) float64 {
	if limit <= 0 || v <= 0 {
		return 0
	}
	if v >= limit {
		return 1
	}
	return v / limit
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TopContributors returns the top-n contributions by absolute weighted
// value, ties broken by signal declaration order.
func TopContributors(contributions []models.SignalContribution, n int) []models.SignalContribution {
	ordered := make([]models.SignalContribution, 0, len(contributions))
	for _, name := range signalOrder {
		for _, c := range contributions {
			if c.Name == name {
				ordered = append(ordered, c)
			}
		}
	}
	// stable selection: declaration order wins ties
	out := make([]models.SignalContribution, 0, n)
	used := make(map[string]bool, n)
	for len(out) < n && len(out) < len(ordered) {
		best := -1
		for i, c := range ordered {
			if used[c.Name] {
				continue
			}
			if best < 0 || abs(c.Weighted) > abs(ordered[best].Weighted) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		used[ordered[best].Name] = true
		out = append(out, ordered[best])
	}
	return out
}

// rationale names the top-2 contributing signals in natural language. It
// is the deterministic fallback when no enrichment pass runs.
func rationale(score float64, contributions []models.SignalContribution) string {
	top := TopContributors(contributions, 2)
	if len(top) == 0 || (len(top) > 0 && top[0].Weighted == 0) {
		return fmt.Sprintf("Tilt score %.1f/10: no elevated behavioral signals in the current window.", score)
	}
	phrases := make([]string, 0, len(top))
	for _, c := range top {
		if c.Weighted == 0 {
			continue
		}
		phrases = append(phrases, signalPhrases[c.Name])
	}
	return fmt.Sprintf("Tilt score %.1f/10, driven by %s.", score, strings.Join(phrases, " and "))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

var _ domsvc.TiltScorer = (*Scorer)(nil)
