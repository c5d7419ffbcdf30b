package model

// Cause kinds emitted by the cross-index reasoner
const (
	CauseWaterStress    = "water_stress"
	CauseCanopyLoss     = "canopy_loss"
	CauseEmergenceLag   = "emergence_lag"
	CauseSenescence     = "senescence"
	CauseSensorArtifact = "sensor_artifact"
	CauseInconclusive   = "inconclusive"
)

// Cause one probable-cause assessment for a period
type Cause struct {
	Period     string  `json:"period"` // YYYY-MM
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	Supporting []int   `json:"supporting"` // indexes into the bundle anomaly list
}
