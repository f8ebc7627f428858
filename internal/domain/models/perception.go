package models

// DerivedSignals are the behavioral signals computed from one trade window.
// Formulas are fixed for reproducibility; see the perception assembler.
type DerivedSignals struct {
	ActionRateLastMinute int     `json:"action_rate_last_minute"`
	CancelToPlaceRatio   float64 `json:"cancel_to_place_ratio"`
	LossStreak           int     `json:"loss_streak"`
	SizeEscalationFactor float64 `json:"size_escalation_factor"`
}

// NeutralSignals are the defaults substituted when the window is empty.
func NeutralSignals() DerivedSignals {
	return DerivedSignals{SizeEscalationFactor: 1.0}
}

// PerceptionFrame is the merged point-in-time view of market and recent
// trader behavior. Built fresh per request, never persisted.
type PerceptionFrame struct {
	Market        MarketSnapshot `json:"market"`
	Window        []TradeEvent   `json:"-"`
	Signals       DerivedSignals `json:"signals"`
	PendingAction ActionKind     `json:"pending_action,omitempty"`
}

// PerceptionView is the trimmed frame shape embedded in an AnalysisResult.
type PerceptionView struct {
	Market        MarketSnapshot `json:"market"`
	Signals       DerivedSignals `json:"signals"`
	WindowSize    int            `json:"window_size"`
	PendingAction ActionKind     `json:"pending_action,omitempty"`
}

// View trims the frame for display.
func (f PerceptionFrame) View() PerceptionView {
	return PerceptionView{
		Market:        f.Market,
		Signals:       f.Signals,
		WindowSize:    len(f.Window),
		PendingAction: f.PendingAction,
	}
}
