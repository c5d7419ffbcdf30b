package zones

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"agrotech/diagnosis/internal/analysis/indices"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/geoutil"
)

// Severity thresholds on the cluster's median NDVI
const (
	criticalMedianNDVI = 0.25
	moderateMedianNDVI = 0.45

	criticalWaterStressHa = 0.5
	moderateCauseHa       = 0.25
	criticalCanopyLossMag = 0.25
)

var severityWeight = map[string]int{
	model.SeverityCritical: 3,
	model.SeverityModerate: 2,
	model.SeverityMild:     1,
}

// Input frozen inputs for zone classification
type Input struct {
	Clusters  []indices.Cluster
	Causes    []model.Cause
	Anomalies []model.Anomaly
	Parcel    orb.Geometry
	Transform geoutil.Transform
	Language  string // es/en
}

// Classify turns spatial clusters and temporal causes into ranked
// CriticalZones. Ranks are a dense 1..N permutation; rank 1 is the
// single priority zone of the diagnosis.
func Classify(in Input) []model.CriticalZone {
	dominant := DominantCause(in.Causes)

	zones := make([]model.CriticalZone, 0, len(in.Clusters))
	for _, c := range in.Clusters {
		sev := severity(c, in)
		lon, lat := in.Transform.PixelCenter(int(math.Round(c.CentroidCol)), int(math.Round(c.CentroidRow)))

		z := model.CriticalZone{
			Severity:        sev,
			Label:           Label(dominant, in.Language),
			Cause:           dominant,
			AreaHa:          round4(c.AreaHa),
			MedianNDVI:      round4(c.MedianValue),
			CentroidLon:     round6(lon),
			CentroidLat:     round6(lat),
			CentroidCol:     int(math.Round(c.CentroidCol)),
			CentroidRow:     int(math.Round(c.CentroidRow)),
			BBoxPixel:       [4]int{c.MinCol, c.MinRow, c.MaxCol, c.MaxRow},
			Polygon:         zonePolygon(c, in),
			Recommendations: Recommendations(dominant, in.Language),
		}
		zones = append(zones, z)
	}

	sort.SliceStable(zones, func(a, b int) bool {
		wa, wb := severityWeight[zones[a].Severity], severityWeight[zones[b].Severity]
		if wa != wb {
			return wa > wb
		}
		if zones[a].AreaHa != zones[b].AreaHa {
			return zones[a].AreaHa > zones[b].AreaHa
		}
		return zones[a].CentroidLon < zones[b].CentroidLon
	})
	for i := range zones {
		zones[i].Priority = i + 1
	}
	return zones
}

// severity applies the classification rules for one cluster
func severity(c indices.Cluster, in Input) string {
	switch {
	case c.MedianValue <= criticalMedianNDVI:
		return model.SeverityCritical
	case c.AreaHa >= criticalWaterStressHa && hasCause(in.Causes, model.CauseWaterStress):
		return model.SeverityCritical
	case canopyLossAtLeast(in, criticalCanopyLossMag):
		return model.SeverityCritical
	case c.MedianValue <= moderateMedianNDVI:
		return model.SeverityModerate
	case c.AreaHa >= moderateCauseHa && hasSubstantiveCause(in.Causes):
		return model.SeverityModerate
	default:
		return model.SeverityMild
	}
}

// zonePolygon pixel bounding box in geo coordinates, clipped to the
// parcel so zone outlines never leave the parcel boundary.
func zonePolygon(c indices.Cluster, in Input) *geojson.Geometry {
	x0, y0 := in.Transform.PixelToGeo(float64(c.MinCol), float64(c.MinRow))
	x1, y1 := in.Transform.PixelToGeo(float64(c.MaxCol+1), float64(c.MaxRow+1))
	rect := orb.Polygon{orb.Ring{
		{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0},
	}}

	clipped, err := geoutil.Intersect(rect, in.Parcel)
	if err != nil || clipped == nil {
		return geojson.NewGeometry(rect)
	}
	return geojson.NewGeometry(clipped)
}

// DominantCause highest-confidence cause of the window; inconclusive
// only wins when nothing else exists. Ties resolve to the earlier
// period, then the lexicographically smaller kind.
func DominantCause(cs []model.Cause) string {
	best := ""
	bestConf := -1.0
	bestPeriod := ""
	for _, c := range cs {
		if c.Kind == model.CauseInconclusive {
			continue
		}
		if c.Confidence > bestConf ||
			(c.Confidence == bestConf && (c.Period < bestPeriod ||
				(c.Period == bestPeriod && c.Kind < best))) {
			best, bestConf, bestPeriod = c.Kind, c.Confidence, c.Period
		}
	}
	if best == "" {
		return model.CauseInconclusive
	}
	return best
}

func hasCause(cs []model.Cause, kind string) bool {
	for _, c := range cs {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// hasSubstantiveCause any cause other than sensor artifact or
// inconclusive
func hasSubstantiveCause(cs []model.Cause) bool {
	for _, c := range cs {
		if c.Kind != model.CauseSensorArtifact && c.Kind != model.CauseInconclusive {
			return true
		}
	}
	return false
}

// canopyLossAtLeast a canopy-loss cause whose supporting break reaches
// the magnitude floor
func canopyLossAtLeast(in Input, mag float64) bool {
	for _, c := range in.Causes {
		if c.Kind != model.CauseCanopyLoss {
			continue
		}
		for _, i := range c.Supporting {
			if i < len(in.Anomalies) && in.Anomalies[i].Magnitude >= mag {
				return true
			}
		}
	}
	return false
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
func round6(v float64) float64 { return math.Round(v*1000000) / 1000000 }
