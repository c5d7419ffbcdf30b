package response

import (
	"agrotech/diagnosis/internal/domains/common/job"
	"agrotech/diagnosis/pkg/errorutil"
)

// ResultI business result boundary
type ResultI interface {
	// Set stamps the metadata and error onto the result
	Set(meta *job.Meta, err error)

	// GetStatus reports the outcome status
	GetStatus() string
}

// Response unified handler response
type Response struct {
	Error     *errorutil.Error `json:"error"`
	Result    ResultI          `json:"result"`
	Processed bool             `json:"processed"`
	Meta      interface{}      `json:"meta"`
}

// WrapResponse fills the response from a result and error
func (r *Response) WrapResponse(result ResultI, meta *job.Meta, err error) {
	result.Set(meta, err)

	if err == nil {
		r.Processed = true
	} else {
		r.Error = errorutil.Wrap(err)
	}
	r.Meta = meta
	r.Result = result
}
