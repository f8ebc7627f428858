package models

// Requests for the behavioral HTTP endpoints. Defined in domain for
// consistency and reuse.

type AnalyzeRequest struct {
	TraderID       string `query:"trader_id" json:"trader_id" validate:"required"`
	Ticker         string `query:"ticker" json:"ticker" validate:"required"`
	UserAction     string `query:"user_action" json:"user_action" validate:"omitempty,oneof=BUY SELL CANCEL MODIFY CHECK"`
	LookbackN      int    `query:"lookback_n" json:"lookback_n" default:"50" validate:"gte=0,lte=5000"`
	LookbackWindow string `query:"lookback_window" json:"lookback_window" validate:"omitempty"`
}

type ProfileRequest struct {
	TraderID string `query:"trader_id" json:"trader_id" validate:"required"`
	Ticker   string `query:"ticker" json:"ticker" validate:"required"`
	N        int    `query:"n" json:"n" default:"200" validate:"gte=1,lte=5000"`
}
