package legal

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/geoutil"
)

// intersectEpsilonHa below this the layers are considered disjoint
const intersectEpsilonHa = 1e-6

// maxFeatureSnapshots top-N intersecting features kept per finding
const maxFeatureSnapshots = 5

// DefaultSetbacks statutory stream setbacks in metres per
// watercourse class; used when a hydrography layer omits its own
var DefaultSetbacks = map[string]float64{
	"rio_principal":  100,
	"rio_secundario": 50,
	"quebrada":       30,
	"nacimiento":     100,
	"laguna":         30,
	"humedal":        30,
	"canal_riego":    10,
}

// Verify intersects the parcel with every configured layer. Layer
// problems are reported as findings, never as errors; a diagnosis
// cannot fail because of a legal layer. Findings come back ordered
// by layer name.
func Verify(parcel orb.Geometry, parcelAreaHa float64, layers []config.LayerConfig) []model.LegalFinding {
	findings := make([]model.LegalFinding, 0, len(layers))
	for _, layer := range layers {
		findings = append(findings, verifyLayer(parcel, parcelAreaHa, layer))
	}
	sort.Slice(findings, func(a, b int) bool {
		return findings[a].Layer < findings[b].Layer
	})
	return findings
}

func verifyLayer(parcel orb.Geometry, parcelAreaHa float64, layer config.LayerConfig) model.LegalFinding {
	finding := model.LegalFinding{
		Layer:        layer.Name,
		Kind:         model.LegalEvaluated,
		Confidence:   layer.Confidence,
		LayerVersion: layer.Version,
	}
	if finding.Confidence == "" {
		finding.Confidence = "medium"
	}

	data, err := os.ReadFile(layer.Path)
	if err != nil {
		finding.Kind = model.LegalLayerUnavailable
		finding.Detail = fmt.Sprintf("layer file missing: %s", layer.Path)
		return finding
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		finding.Kind = model.LegalLayerInvalid
		finding.Detail = fmt.Sprintf("layer parse failed: %v", err)
		return finding
	}

	parcelBound := parcel.Bound()
	var features []model.LegalFeature
	total := 0.0

	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}

		switch g := f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			// fast bbox reject before exact algebra
			if !parcelBound.Intersects(f.Geometry.Bound()) {
				continue
			}
			clipped, err := geoutil.Intersect(parcel, g)
			if err != nil {
				finding.Kind = model.LegalLayerInvalid
				finding.Detail = fmt.Sprintf("feature geometry invalid: %v", err)
				return finding
			}
			if clipped == nil {
				continue
			}
			areaHa := geoutil.AreaHa(clipped)
			if areaHa <= intersectEpsilonHa {
				continue
			}
			total += areaHa
			features = append(features, model.LegalFeature{
				AreaHa:     round4(areaHa),
				Attributes: snapshotAttrs(f, layer.Attributes),
			})
		case orb.LineString:
			checkSetback(&finding, parcel, g, f, layer)
		case orb.MultiLineString:
			for _, ls := range g {
				checkSetback(&finding, parcel, ls, f, layer)
			}
		}
	}

	// top-N features by intersection area, stable on attribute order
	sort.SliceStable(features, func(a, b int) bool {
		return features[a].AreaHa > features[b].AreaHa
	})
	if len(features) > maxFeatureSnapshots {
		features = features[:maxFeatureSnapshots]
	}

	finding.Features = features
	finding.AreaHa = round4(total)
	finding.Intersects = total > intersectEpsilonHa
	if parcelAreaHa > 0 {
		finding.Fraction = round4(math.Min(total/parcelAreaHa, 1))
	}
	return finding
}

// checkSetback flags watercourses closer than the statutory setback
// for their class. The result lands on the finding as class -> status.
func checkSetback(finding *model.LegalFinding, parcel orb.Geometry, line orb.LineString, f *geojson.Feature, layer config.LayerConfig) {
	class := attrString(f, "class")
	if class == "" {
		class = attrString(f, "tipo")
	}
	if class == "" {
		class = "quebrada"
	}

	setback, ok := layer.Setbacks[class]
	if !ok {
		setback, ok = DefaultSetbacks[class]
		if !ok {
			setback = 30
		}
	}

	dist := geoutil.MinDistanceMeters(parcel, line)
	status := "ok"
	if dist < setback {
		status = fmt.Sprintf("violated (%.0f m < %.0f m)", dist, setback)
		finding.Intersects = true
	}
	if finding.Setbacks == nil {
		finding.Setbacks = make(map[string]string)
	}
	// keep the worst status per class
	if prev, exists := finding.Setbacks[class]; !exists || prev == "ok" {
		finding.Setbacks[class] = status
	}
}

// snapshotAttrs copies the configured attributes off a feature
func snapshotAttrs(f *geojson.Feature, keys []string) map[string]string {
	attrs := make(map[string]string)
	if len(keys) == 0 {
		for k, v := range f.Properties {
			attrs[k] = fmt.Sprintf("%v", v)
		}
		return attrs
	}
	for _, k := range keys {
		if v, ok := f.Properties[k]; ok {
			attrs[k] = fmt.Sprintf("%v", v)
		}
	}
	return attrs
}

func attrString(f *geojson.Feature, key string) string {
	if v, ok := f.Properties[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
