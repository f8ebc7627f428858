package models

import (
	"fmt"
	"time"
)

// ActionKind is the kind of action a trader took on the platform.
type ActionKind string

const (
	ActionBuy    ActionKind = "BUY"
	ActionSell   ActionKind = "SELL"
	ActionCancel ActionKind = "CANCEL"
	ActionModify ActionKind = "MODIFY"
	ActionCheck  ActionKind = "CHECK"
)

// ParseActionKind validates a raw action string.
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(s) {
	case ActionBuy, ActionSell, ActionCancel, ActionModify, ActionCheck:
		return ActionKind(s), nil
	default:
		return "", fmt.Errorf("unknown action kind %q", s)
	}
}

// IsOpening reports whether the action places an order.
func (a ActionKind) IsOpening() bool {
	return a == ActionBuy || a == ActionSell
}

// TradeEvent is one immutable ledger record of a trader action.
// RealizedPnL is set only on closing actions.
type TradeEvent struct {
	Timestamp   time.Time  `json:"timestamp"`
	TraderID    string     `json:"trader_id"`
	Ticker      string     `json:"ticker"`
	Action      ActionKind `json:"action"`
	Price       float64    `json:"price"`
	Quantity    int64      `json:"quantity"`
	RealizedPnL *float64   `json:"realized_pnl,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// IsClosing reports whether the event carries a realized PnL.
func (e TradeEvent) IsClosing() bool { return e.RealizedPnL != nil }

// Lookback selects the ledger window: either the last Count events or
// everything inside the trailing Window. Exactly one must be positive.
type Lookback struct {
	Count  int
	Window time.Duration
}

// Validate checks the lookback per the ledger contract.
func (l Lookback) Validate() error {
	if l.Count < 0 || l.Window < 0 {
		return fmt.Errorf("%w: lookback must be positive", ErrInvalidRange)
	}
	if l.Count == 0 && l.Window == 0 {
		return fmt.Errorf("%w: lookback count or window required", ErrInvalidRange)
	}
	if l.Count > 0 && l.Window > 0 {
		return fmt.Errorf("%w: lookback count and window are exclusive", ErrInvalidRange)
	}
	return nil
}
