package model

// MonthlyAggregate per-index statistics for one parcel-month
type MonthlyAggregate struct {
	ParcelID        string  `json:"parcel_id"`
	Period          string  `json:"period"` // YYYY-MM
	Index           string  `json:"index"`  // ndvi/ndmi/savi
	Mean            float64 `json:"mean"`
	P10             float64 `json:"p10"`
	P50             float64 `json:"p50"`
	P90             float64 `json:"p90"`
	Std             float64 `json:"std"`
	ValidFraction   float64 `json:"valid_fraction"`
	NAcquisitions   int     `json:"n_acquisitions"`
	BestAcquisition string  `json:"best_acquisition"` // view id of the best scene
}

// Data-quality grades per acquisition
const (
	QualityExcellent  = "excellent"
	QualityGood       = "good"
	QualityAcceptable = "acceptable"
	QualityPoor       = "poor"
)

// AcquisitionQuality per-scene quality assessment for the technical appendix
type AcquisitionQuality struct {
	ViewID        string  `json:"view_id"`
	Date          string  `json:"date"`
	Sensor        string  `json:"sensor"`
	CloudFraction float64 `json:"cloud_fraction"`
	ValidFraction float64 `json:"valid_fraction"`
	Grade         string  `json:"grade"`
	Used          bool    `json:"used"` // survived the drop rules
}

// GradeQuality maps valid-pixel share and cloud fraction to a grade
func GradeQuality(validFraction, cloudFraction float64) string {
	switch {
	case validFraction >= 0.90 && cloudFraction <= 0.10:
		return QualityExcellent
	case validFraction >= 0.75 && cloudFraction <= 0.25:
		return QualityGood
	case validFraction >= 0.60 && cloudFraction <= 0.50:
		return QualityAcceptable
	default:
		return QualityPoor
	}
}
