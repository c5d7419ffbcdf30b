package model

// ParcelDiagnoseJob diagnosis job message (normalized envelope)
type ParcelDiagnoseJob struct {
	Payload ParcelDiagnosePayload `json:"payload"`
}

// ParcelDiagnosePayload job payload
type ParcelDiagnosePayload struct {
	Data ParcelDiagnoseData `json:"data"`
}

// ParcelDiagnoseData job data layer
type ParcelDiagnoseData struct {
	RequestID  string `json:"request_id"`  // request id for tracing
	OrgID      string `json:"org_id"`      // organisation id
	ActionType string `json:"action_type"` // fixed value "parcel_diagnose"
	ID         string `json:"id"`          // parcel id

	Data ParcelDiagnoseBusinessData `json:"data"`
}

// ParcelDiagnoseBusinessData diagnosis job parameters
type ParcelDiagnoseBusinessData struct {
	ParcelID string `json:"parcel_id"`
	Window   string `json:"window"`  // YYYY-MM:YYYY-MM
	OutDir   string `json:"out_dir"` // artifact directory for this run
}
