package response

import (
	"agrotech/diagnosis/internal/domains/common/job"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/errorutil"
)

// DiagnosisResult outcome of one parcel diagnosis (implements ResultI)
type DiagnosisResult struct {
	ParcelID    string           `json:"parcel_id"`
	Window      string           `json:"window"`
	Status      string           `json:"status"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	KPIs        *model.KPISet    `json:"kpis,omitempty"`
	Error       *errorutil.Error `json:"error,omitempty"`
}

const (
	DiagnosisStatusSuccess = "SUCCESS"
	DiagnosisStatusFailed  = "FAILED"
)

// NewDiagnosisResult creates an empty result
func NewDiagnosisResult() *DiagnosisResult {
	return &DiagnosisResult{}
}

// Set implements ResultI
func (r *DiagnosisResult) Set(meta *job.Meta, err error) {
	if r.ParcelID == "" {
		r.ParcelID = meta.ID
	}
	if err != nil {
		r.Status = DiagnosisStatusFailed
		r.Error = errorutil.Wrap(err)
	} else {
		r.Status = DiagnosisStatusSuccess
	}
}

// GetStatus implements ResultI
func (r *DiagnosisResult) GetStatus() string {
	return r.Status
}
