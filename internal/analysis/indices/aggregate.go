package indices

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"agrotech/diagnosis/internal/analysis/raster"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/errorutil"
)

// Scene one acquisition with its masked index layers
type Scene struct {
	Acq    model.Acquisition
	Layers map[string]*raster.Masked // by index name
}

// Composite pixel-wise median of the surviving scenes of one month
type Composite struct {
	Index  string
	Period string
	Grid   *raster.Masked
}

// usable applies the scene drop rules for one index layer
func usable(s Scene, index string, cfg config.DiagnosisConfig) bool {
	layer, ok := s.Layers[index]
	if !ok {
		return false
	}
	if layer.ValidFraction() < cfg.MinValidFraction {
		return false
	}
	if s.Acq.CloudFractionAOI > cfg.MaxCloud {
		return false
	}
	return true
}

// MonthlyAggregates computes per-month statistics for one index over the
// window. Months without a surviving scene produce no aggregate. Returns
// the aggregates in period order plus the monthly composites by period.
func MonthlyAggregates(
	parcelID, index string,
	scenes []Scene,
	window model.Window,
	cfg config.DiagnosisConfig,
) ([]model.MonthlyAggregate, map[string]*Composite, error) {
	byPeriod := make(map[string][]Scene)
	for _, s := range scenes {
		period := s.Acq.Period()
		if !window.Contains(period) {
			continue
		}
		if !usable(s, index, cfg) {
			continue
		}
		byPeriod[period] = append(byPeriod[period], s)
	}

	var aggs []model.MonthlyAggregate
	composites := make(map[string]*Composite)
	for _, period := range window.Months() {
		group := byPeriod[period]
		if len(group) == 0 {
			continue
		}

		comp := compose(index, period, group)
		values := comp.Grid.ValidValues()
		if len(values) == 0 {
			continue
		}

		mean, _ := stats.Mean(values)
		p10, _ := stats.Percentile(values, 10)
		p50, _ := stats.Percentile(values, 50)
		p90, _ := stats.Percentile(values, 90)
		std, _ := stats.StandardDeviation(values)

		aggs = append(aggs, model.MonthlyAggregate{
			ParcelID:        parcelID,
			Period:          period,
			Index:           index,
			Mean:            round4(mean),
			P10:             round4(p10),
			P50:             round4(p50),
			P90:             round4(p90),
			Std:             round4(std),
			ValidFraction:   round4(float64(len(values)) / float64(comp.Grid.InsideCount)),
			NAcquisitions:   len(group),
			BestAcquisition: bestScene(group, index).Acq.ViewID,
		})
		composites[period] = comp
	}

	if len(aggs) == 0 {
		return nil, nil, errorutil.Newf(errorutil.KindInsufficientCoverage,
			"no usable %s acquisitions inside window %s", index, window.String())
	}
	return aggs, composites, nil
}

// compose builds the pixel-wise median composite for one month
func compose(index, period string, group []Scene) *Composite {
	ref := group[0].Layers[index]
	out := &raster.Raster{
		Index:     index,
		Width:     ref.Width,
		Height:    ref.Height,
		Data:      make([]float64, ref.Width*ref.Height),
		Transform: ref.Transform,
		CRS:       ref.CRS,
	}
	for i := range out.Data {
		out.Data[i] = math.NaN()
	}

	samples := make([]float64, 0, len(group))
	for row := 0; row < ref.Height; row++ {
		for col := 0; col < ref.Width; col++ {
			i := row*ref.Width + col
			if !ref.Inside[i] {
				continue
			}
			samples = samples[:0]
			for _, s := range group {
				layer := s.Layers[index]
				if layer.Valid(col, row) {
					samples = append(samples, layer.At(col, row))
				}
			}
			if len(samples) > 0 {
				out.Data[i] = median(samples)
			}
		}
	}

	return &Composite{
		Index:  index,
		Period: period,
		Grid:   &raster.Masked{Raster: out, Inside: ref.Inside, InsideCount: ref.InsideCount},
	}
}

// bestScene picks the representative acquisition of a month among the
// survivors: lowest cloud fraction, ties broken by highest valid
// fraction, then latest date, then lexicographic view id.
func bestScene(group []Scene, index string) Scene {
	best := group[0]
	bestVF := best.Layers[index].ValidFraction()
	for _, s := range group[1:] {
		vf := s.Layers[index].ValidFraction()
		switch {
		case s.Acq.CloudFractionAOI < best.Acq.CloudFractionAOI:
			best, bestVF = s, vf
		case s.Acq.CloudFractionAOI == best.Acq.CloudFractionAOI && vf > bestVF:
			best, bestVF = s, vf
		case s.Acq.CloudFractionAOI == best.Acq.CloudFractionAOI && vf == bestVF &&
			(s.Acq.Date > best.Acq.Date ||
				(s.Acq.Date == best.Acq.Date && s.Acq.ViewID < best.Acq.ViewID)):
			best, bestVF = s, vf
		}
	}
	return best
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
