package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/internal/sources"
	"agrotech/diagnosis/pkg/config"
)

// fingerprintInput the identity of a diagnosis: same parcel geometry,
// same frozen acquisition set, same thresholds and same layer catalog
// versions always fingerprint the same.
type fingerprintInput struct {
	ParcelID      string                 `json:"parcel_id"`
	Geometry      json.RawMessage        `json:"geometry"`
	Window        string                 `json:"window"`
	ViewIDs       []string               `json:"view_ids"`
	Diagnosis     config.DiagnosisConfig `json:"diagnosis"`
	Report        config.ReportConfig    `json:"report"`
	LayerVersions map[string]string      `json:"layer_versions"`
}

// Fingerprint derives the sha256 identity of one diagnosis run
func Fingerprint(
	parcel *model.Parcel,
	window model.Window,
	set *sources.AcquisitionSet,
	cfg *config.Config,
) (string, error) {
	geom, err := json.Marshal(parcel.Geometry)
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(set.Acquisitions))
	for _, a := range set.Acquisitions {
		ids = append(ids, a.ViewID)
	}
	sort.Strings(ids)

	versions := make(map[string]string, len(cfg.Layers))
	for _, l := range cfg.Layers {
		versions[l.Name] = l.Version
	}

	payload, err := json.Marshal(fingerprintInput{
		ParcelID:      parcel.ID,
		Geometry:      geom,
		Window:        window.String(),
		ViewIDs:       ids,
		Diagnosis:     cfg.Diagnosis,
		Report:        cfg.Report,
		LayerVersions: versions,
	})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
