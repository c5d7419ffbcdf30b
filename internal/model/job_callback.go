package model

// ParcelDiagnoseCallback diagnosis callback message (normalized)
type ParcelDiagnoseCallback struct {
	RequestID   string  `json:"request_id"`
	ParcelID    string  `json:"parcel_id"`
	Window      string  `json:"window"`
	Status      string  `json:"status"` // SUCCESS / FAILED
	Fingerprint string  `json:"fingerprint,omitempty"`
	KPIs        *KPISet `json:"kpis,omitempty"`
	Error       string  `json:"error,omitempty"`
	ProcessedAt int64   `json:"processed_at"` // unix timestamp
}

// Callback status constants
const (
	CallbackStatusSuccess = "SUCCESS"
	CallbackStatusFailed  = "FAILED"
)
