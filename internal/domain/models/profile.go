package models

// BiasKind classifies the dominant behavioral bias of a trader.
type BiasKind string

const (
	BiasLossAversionRevenge BiasKind = "LOSS_AVERSION_REVENGE"
	BiasFomoOvertrading     BiasKind = "FOMO_OVERTRADING"
	BiasPoorEdgeExecution   BiasKind = "POOR_EDGE_EXECUTION"
	BiasCuttingWinnersEarly BiasKind = "CUTTING_WINNERS_EARLY"
	BiasDisciplinedTrader   BiasKind = "DISCIPLINED_TRADER"
)

// TraderProfile summarizes a trader's historical behavior.
type TraderProfile struct {
	TotalTrades    int      `json:"total_trades"`
	WinRate        float64  `json:"win_rate"` // percent
	AvgWin         float64  `json:"avg_win"`
	AvgLoss        float64  `json:"avg_loss"`
	RevengeSignals int      `json:"revenge_signals"`
	FomoTrades     int      `json:"fomo_trades"`
	RiskReward     float64  `json:"risk_reward_ratio"`
	DominantBias   BiasKind `json:"dominant_bias"`
}
