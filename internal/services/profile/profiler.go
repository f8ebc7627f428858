package profile

import (
	"strings"

	"TiltGuard/internal/domain/models"
	"TiltGuard/pkg/config"
)

// Profiler summarizes a trader's closed trades into behavioral metrics
// and classifies the dominant bias. Pure function of the event window.
type Profiler struct {
	revengeLossFloor float64
	fomoKeywords     []string
}

func New(cfg config.EngineConfig) *Profiler {
	return &Profiler{
		revengeLossFloor: cfg.RevengeLossFloor,
		fomoKeywords:     cfg.FomoKeywords,
	}
}

// Profile computes the trader profile over the given window. An empty
// window yields a zero profile with DISCIPLINED_TRADER left unset.
func (p *Profiler) Profile(events []models.TradeEvent) models.TraderProfile {
	var prof models.TraderProfile
	var pnls []float64
	var sumWin, sumLoss float64
	var wins, losses int

	for _, e := range events {
		if e.Note != "" && p.matchesFomo(e.Note) {
			prof.FomoTrades++
		}
		if !e.IsClosing() {
			continue
		}
		pnl := *e.RealizedPnL
		pnls = append(pnls, pnl)
		prof.TotalTrades++
		if pnl > 0 {
			wins++
			sumWin += pnl
		} else if pnl < 0 {
			losses++
			sumLoss += pnl
		}
	}

	if prof.TotalTrades == 0 {
		return prof
	}

	prof.WinRate = float64(wins) / float64(prof.TotalTrades) * 100
	if wins > 0 {
		prof.AvgWin = sumWin / float64(wins)
	}
	if losses > 0 {
		prof.AvgLoss = sumLoss / float64(losses)
	}

	// Revenge pattern: a meaningful loss immediately followed by another loss.
	for i := 1; i < len(pnls); i++ {
		if pnls[i-1] < -p.revengeLossFloor && pnls[i] < 0 {
			prof.RevengeSignals++
		}
	}

	if prof.AvgLoss != 0 {
		prof.RiskReward = abs(prof.AvgWin / prof.AvgLoss)
	}

	prof.DominantBias = p.classifyBias(prof)
	return prof
}

// classifyBias picks the dominant bias, most dangerous first.
func (p *Profiler) classifyBias(prof models.TraderProfile) models.BiasKind {
	switch {
	case prof.RevengeSignals > 2:
		return models.BiasLossAversionRevenge
	case prof.FomoTrades > 3:
		return models.BiasFomoOvertrading
	case prof.WinRate < 40:
		return models.BiasPoorEdgeExecution
	case prof.RiskReward != 0 && prof.RiskReward < 1.5:
		return models.BiasCuttingWinnersEarly
	default:
		return models.BiasDisciplinedTrader
	}
}

func (p *Profiler) matchesFomo(note string) bool {
	lower := strings.ToLower(note)
	for _, kw := range p.fomoKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
