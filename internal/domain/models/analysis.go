package models

import "time"

// AnalysisResult is the composed output of one analyze call. Owned by the
// engine for the request lifetime; the caller owns the returned copy.
type AnalysisResult struct {
	TraderID        string            `json:"trader_id"`
	Ticker          string            `json:"ticker"`
	Timestamp       time.Time         `json:"timestamp"`
	Perception      PerceptionView    `json:"perception"`
	Tilt            TiltAssessment    `json:"tilt"`
	Intervention    InterventionState `json:"intervention"`
	Profile         TraderProfile     `json:"profile"`
	CombinedInsight string            `json:"combined_insight"`
}

// InterventionStats aggregates classifier output since process start.
type InterventionStats struct {
	Total            int64      `json:"total"`
	SoftNudges       int64      `json:"soft_nudges"`
	CriticalWarnings int64      `json:"critical_warnings"`
	HardLocks        int64      `json:"hard_locks"`
	LastIntervention *time.Time `json:"last_intervention,omitempty"`
}
