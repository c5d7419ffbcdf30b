package model

// Note a recovered degradation recorded on the bundle
type Note struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// DiagnosisBundle the complete outcome of one diagnosis run.
// Field values are canonically ordered before serialization; identical
// inputs must serialize to identical bytes, so GeneratedAt is derived
// from the newest acquisition rather than the wall clock.
type DiagnosisBundle struct {
	Fingerprint string               `json:"fingerprint"`
	ParcelID    string               `json:"parcel_id"`
	Window      Window               `json:"window"`
	GeneratedAt string               `json:"generated_at"`
	Parcel      Parcel               `json:"parcel"`
	Aggregates  []MonthlyAggregate   `json:"aggregates"`
	Quality     []AcquisitionQuality `json:"quality"`
	Anomalies   []Anomaly            `json:"anomalies"`
	Causes      []Cause              `json:"causes"`
	Zones       []CriticalZone       `json:"zones"`
	Legal       []LegalFinding       `json:"legal"`
	Climate     []ClimateMonthly     `json:"climate"`
	KPIs        KPISet               `json:"kpis"`
	// ReferenceKPIs previous-period figures, present only when the
	// report asks for a comparison and the reference window has data
	ReferenceKPIs *KPISet           `json:"reference_kpis,omitempty"`
	Artifacts     map[string]string `json:"artifacts"` // name -> relative path
	Notes         []Note            `json:"notes"`
}

// ErrorRecord written to the output directory on fatal failure
type ErrorRecord struct {
	ParcelID string            `json:"parcel_id"`
	Window   string            `json:"window"`
	Kind     string            `json:"kind"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
	FailedAt string            `json:"failed_at"`
}
