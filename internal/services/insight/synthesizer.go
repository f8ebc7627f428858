package insight

import (
	"fmt"
	"strings"

	"TiltGuard/internal/domain/models"
)

// Synthesize composes a single human-readable insight from the perception
// frame, the tilt assessment, the intervention and the trader profile.
// This text is purely advisory: the function never fails, substituting a
// neutral clause for anything missing.
func Synthesize(frame models.PerceptionFrame, tilt models.TiltAssessment, iv models.InterventionState, profile models.TraderProfile) string {
	var b strings.Builder

	b.WriteString(marketClause(frame.Market))
	b.WriteString(" ")
	b.WriteString(behaviorClause(frame, tilt))

	if profile.TotalTrades > 0 && profile.DominantBias != "" && profile.DominantBias != models.BiasDisciplinedTrader {
		b.WriteString(fmt.Sprintf(" This echoes your %s pattern (%d trades on record).",
			strings.ToLower(strings.ReplaceAll(string(profile.DominantBias), "_", " ")), profile.TotalTrades))
	}

	switch iv.Band {
	case models.BandNone:
		b.WriteString(" No intervention is active.")
	default:
		title := iv.Title
		if title == "" {
			title = iv.Band.String()
		}
		b.WriteString(fmt.Sprintf(" Active intervention: %s. %s", title, iv.Message))
	}

	return b.String()
}

func marketClause(m models.MarketSnapshot) string {
	if m.Ticker == "" || m.CurrentPrice <= 0 {
		return "Market context is unavailable for this analysis."
	}
	dir := "flat"
	switch m.Trend {
	case models.TrendUp:
		dir = "trending up"
	case models.TrendDown:
		dir = "trending down"
	}
	return fmt.Sprintf("%s is at %.2f, %s (%.1f%% over the last day, volatility %.4f).",
		m.Ticker, m.CurrentPrice, dir, m.PriceChange1d, m.Volatility)
}

func behaviorClause(frame models.PerceptionFrame, tilt models.TiltAssessment) string {
	if len(frame.Window) == 0 {
		return fmt.Sprintf("There is not enough recent trading activity to profile behavior; tilt is %.1f/10 by default.", tilt.Score)
	}
	r := tilt.Rationale
	if r == "" {
		r = fmt.Sprintf("Tilt score %.1f/10.", tilt.Score)
	}
	return r
}
