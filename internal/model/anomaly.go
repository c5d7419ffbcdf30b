package model

// Anomaly kinds
const (
	AnomalyOutlier         = "outlier"
	AnomalyTrendBreak      = "trend_break"
	AnomalyPhaseTransition = "phase_transition"
	AnomalyWaterStress     = "water_stress"
)

// Growth phases derived from NDVI bands
const (
	PhaseEstablishment   = "establishment"
	PhaseActiveGrowth    = "active_growth"
	PhaseFullDevelopment = "full_development"
	PhaseMaturation      = "maturation"
)

// Anomaly one temporal signal on a per-index monthly series
type Anomaly struct {
	Index      string  `json:"index"`
	Period     string  `json:"period"` // YYYY-MM
	Kind       string  `json:"kind"`
	Magnitude  float64 `json:"magnitude"`
	Confidence float64 `json:"confidence"`
	Detail     string  `json:"detail,omitempty"` // phase names, severity notes
}
