package models

// SignalContribution is one signal's share of a tilt score.
type SignalContribution struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Value    float64 `json:"value"`    // normalized signal value in [0,1]
	Weighted float64 `json:"weighted"` // Weight * Value
}

// TiltAssessment is the scored behavioral risk for one perception frame.
type TiltAssessment struct {
	Score         float64              `json:"score"` // in [0,10]
	Rationale     string               `json:"rationale"`
	Contributions []SignalContribution `json:"contributing_signals"`
}
