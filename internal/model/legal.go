package model

// Legal finding kinds
const (
	LegalEvaluated        = "evaluated"
	LegalLayerUnavailable = "layer_unavailable"
	LegalLayerInvalid     = "layer_invalid"
)

// LegalFeature one intersecting feature with its attribute snapshot
type LegalFeature struct {
	AreaHa     float64           `json:"area_ha"`
	Attributes map[string]string `json:"attributes"`
}

// LegalFinding overlay result for one legal layer
type LegalFinding struct {
	Layer        string            `json:"layer"`
	Kind         string            `json:"kind"`
	Confidence   string            `json:"confidence"` // high/medium/low
	LayerVersion string            `json:"layer_version,omitempty"`
	Intersects   bool              `json:"intersects"`
	AreaHa       float64           `json:"area_ha"`
	Fraction     float64           `json:"fraction"` // of parcel area
	Features     []LegalFeature    `json:"features,omitempty"`
	Setbacks     map[string]string `json:"setbacks,omitempty"` // watercourse class -> ok/violated
	Detail       string            `json:"detail,omitempty"`
}
