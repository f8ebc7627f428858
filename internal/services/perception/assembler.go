package perception

import (
	"fmt"
	"time"

	"TiltGuard/internal/domain/models"
)

const rateWindow = 60 * time.Second

// Assemble merges a market snapshot with the recent action window into a
// PerceptionFrame. Pure and deterministic, no I/O. The derived-signal
// formulas are fixed so results are reproducible across runs.
//
// A pending action (the action the trader is about to take, if the caller
// supplied one) counts toward the action rate and the cancel/place tallies
// but is not part of the stored window.
func Assemble(snapshot models.MarketSnapshot, events []models.TradeEvent, pending models.ActionKind) (models.PerceptionFrame, error) {
	if len(events) == 0 {
		return models.PerceptionFrame{}, fmt.Errorf("%w: empty trade window", models.ErrInsufficientData)
	}

	frame := models.PerceptionFrame{
		Market:        snapshot,
		Window:        events,
		PendingAction: pending,
		Signals: models.DerivedSignals{
			ActionRateLastMinute: actionRate(events, pending),
			CancelToPlaceRatio:   cancelToPlaceRatio(events, pending),
			LossStreak:           lossStreak(events),
			SizeEscalationFactor: sizeEscalation(events),
		},
	}
	return frame, nil
}

// NeutralFrame is the frame the engine substitutes when the window is
// empty: all signals at their neutral defaults, so an empty history yields
// a usable low-confidence assessment instead of blocking.
func NeutralFrame(snapshot models.MarketSnapshot, pending models.ActionKind) models.PerceptionFrame {
	return models.PerceptionFrame{
		Market:        snapshot,
		Signals:       models.NeutralSignals(),
		PendingAction: pending,
	}
}

// actionRate counts events within the trailing 60s of the latest event's
// timestamp. The pending action, if any, counts as one more.
func actionRate(events []models.TradeEvent, pending models.ActionKind) int {
	latest := events[len(events)-1].Timestamp
	cutoff := latest.Add(-rateWindow)
	n := 0
	for _, e := range events {
		if !e.Timestamp.Before(cutoff) {
			n++
		}
	}
	if pending != "" {
		n++
	}
	return n
}

// cancelToPlaceRatio is count(CANCEL) / max(1, count(BUY)+count(SELL))
// over the window.
func cancelToPlaceRatio(events []models.TradeEvent, pending models.ActionKind) float64 {
	cancels, places := 0, 0
	for _, e := range events {
		switch {
		case e.Action == models.ActionCancel:
			cancels++
		case e.Action.IsOpening():
			places++
		}
	}
	switch {
	case pending == models.ActionCancel:
		cancels++
	case pending.IsOpening():
		places++
	}
	if places < 1 {
		places = 1
	}
	return float64(cancels) / float64(places)
}

// lossStreak is the length of the trailing run of closing events with
// negative realized PnL.
func lossStreak(events []models.TradeEvent) int {
	streak := 0
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if !e.IsClosing() {
			continue
		}
		if *e.RealizedPnL < 0 {
			streak++
			continue
		}
		break
	}
	return streak
}

// sizeEscalation is the mean quantity of the last 3 opening actions over
// the mean quantity of the preceding 3, or 1.0 with insufficient history.
func sizeEscalation(events []models.TradeEvent) float64 {
	var openings []int64
	for _, e := range events {
		if e.Action.IsOpening() {
			openings = append(openings, e.Quantity)
		}
	}
	if len(openings) < 6 {
		return 1.0
	}
	recent := openings[len(openings)-3:]
	prior := openings[len(openings)-6 : len(openings)-3]
	priorMean := mean(prior)
	if priorMean == 0 {
		return 1.0
	}
	return mean(recent) / priorMean
}

func mean(xs []int64) float64 {
	var sum int64
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}
