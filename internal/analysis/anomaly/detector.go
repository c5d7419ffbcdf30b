package anomaly

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
)

// madScale scales the median absolute deviation to a stddev-equivalent
const madScale = 1.4826

// confidence component scores; the anomaly confidence is their minimum
const (
	scoreShortSeries     = 0.5 // fewer than 4 months
	scoreLowValid        = 0.6 // valid_fraction below 0.7
	scoreMissingAdjacent = 0.7 // a calendar neighbour month is missing
)

// Detect runs the four temporal checks over one per-index monthly
// series. Aggregates must be in period order.
func Detect(
	index string,
	aggs []model.MonthlyAggregate,
	crop config.CropThresholds,
	cfg config.DiagnosisConfig,
) []model.Anomaly {
	if len(aggs) == 0 {
		return nil
	}

	means := make([]float64, len(aggs))
	for i, a := range aggs {
		means[i] = a.Mean
	}

	var out []model.Anomaly
	out = append(out, outliers(index, aggs, means, cfg)...)
	out = append(out, trendBreaks(index, aggs, means, cfg)...)
	if index == "ndvi" {
		out = append(out, phaseTransitions(index, aggs, means, crop)...)
	}
	if index == "ndmi" {
		out = append(out, waterStress(index, aggs, means, cfg)...)
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Period != out[b].Period {
			return out[a].Period < out[b].Period
		}
		return out[a].Kind < out[b].Kind
	})
	return out
}

// outliers robust z-score against the whole series
func outliers(index string, aggs []model.MonthlyAggregate, means []float64, cfg config.DiagnosisConfig) []model.Anomaly {
	if len(means) < 3 {
		return nil
	}
	med, _ := stats.Median(means)
	mad, _ := stats.MedianAbsoluteDeviation(means)
	if mad == 0 {
		return nil
	}

	var out []model.Anomaly
	for i, v := range means {
		z := (v - med) / (madScale * mad)
		if math.Abs(z) > cfg.OutlierZ {
			detail := "high"
			if z < 0 {
				detail = "low"
			}
			out = append(out, model.Anomaly{
				Index:      index,
				Period:     aggs[i].Period,
				Kind:       model.AnomalyOutlier,
				Magnitude:  round4(math.Abs(z)),
				Confidence: confidence(aggs, i),
				Detail:     detail,
			})
		}
	}
	return out
}

// trendBreaks month-over-month change above the break threshold whose
// sign agrees with the trailing trend
func trendBreaks(index string, aggs []model.MonthlyAggregate, means []float64, cfg config.DiagnosisConfig) []model.Anomaly {
	var out []model.Anomaly
	for i := 2; i < len(means); i++ {
		prev := means[i-1]
		if prev == 0 {
			continue
		}
		delta := (means[i] - prev) / math.Abs(prev)
		if math.Abs(delta) <= cfg.TrendBreakPct {
			continue
		}
		// a flat trailing trend neither confirms nor contradicts
		trailing := means[i-1] - means[i-2]
		if trailing != 0 && (delta > 0) != (trailing > 0) {
			continue
		}
		detail := "up"
		if delta < 0 {
			detail = "down"
		}
		out = append(out, model.Anomaly{
			Index:      index,
			Period:     aggs[i].Period,
			Kind:       model.AnomalyTrendBreak,
			Magnitude:  round4(math.Abs(delta)),
			Confidence: confidence(aggs, i),
			Detail:     detail,
		})
	}
	return out
}

// phaseTransitions growth-phase change between consecutive months
func phaseTransitions(index string, aggs []model.MonthlyAggregate, means []float64, crop config.CropThresholds) []model.Anomaly {
	var out []model.Anomaly
	for i := 1; i < len(means); i++ {
		prev := PhaseOf(means[i-1], crop)
		cur := PhaseOf(means[i], crop)
		if prev == cur {
			continue
		}
		out = append(out, model.Anomaly{
			Index:      index,
			Period:     aggs[i].Period,
			Kind:       model.AnomalyPhaseTransition,
			Magnitude:  round4(math.Abs(means[i] - means[i-1])),
			Confidence: confidence(aggs, i),
			Detail:     prev + "->" + cur,
		})
	}
	return out
}

// waterStress NDMI below the stress threshold; two consecutive months
// escalate to severe
func waterStress(index string, aggs []model.MonthlyAggregate, means []float64, cfg config.DiagnosisConfig) []model.Anomaly {
	var out []model.Anomaly
	for i, v := range means {
		if v >= cfg.WaterStressNDMI {
			continue
		}
		a := model.Anomaly{
			Index:      index,
			Period:     aggs[i].Period,
			Kind:       model.AnomalyWaterStress,
			Magnitude:  round4(cfg.WaterStressNDMI - v),
			Confidence: confidence(aggs, i),
		}
		if i > 0 && means[i-1] < cfg.WaterStressNDMI && adjacentPeriods(aggs[i-1].Period, aggs[i].Period) {
			a.Detail = "severe"
		}
		out = append(out, a)
	}
	return out
}

// PhaseOf classifies an NDVI value into a growth phase for a crop
func PhaseOf(ndvi float64, crop config.CropThresholds) string {
	switch {
	case ndvi < crop.Establishment:
		return model.PhaseEstablishment
	case ndvi < crop.ActiveGrowth:
		return model.PhaseActiveGrowth
	case ndvi < crop.FullDevelopment:
		return model.PhaseFullDevelopment
	default:
		return model.PhaseMaturation
	}
}

// confidence availability-driven score for the anomaly at position i
func confidence(aggs []model.MonthlyAggregate, i int) float64 {
	score := 1.0
	if len(aggs) < 4 {
		score = math.Min(score, scoreShortSeries)
	}
	if aggs[i].ValidFraction < 0.7 {
		score = math.Min(score, scoreLowValid)
	}
	prevOK := i > 0 && adjacentPeriods(aggs[i-1].Period, aggs[i].Period)
	nextOK := i+1 < len(aggs) && adjacentPeriods(aggs[i].Period, aggs[i+1].Period)
	if !prevOK || !nextOK {
		score = math.Min(score, scoreMissingAdjacent)
	}
	return score
}

// adjacentPeriods reports whether b is the calendar month after a
func adjacentPeriods(a, b string) bool {
	ta, err := time.Parse("2006-01", a)
	if err != nil {
		return false
	}
	return ta.AddDate(0, 1, 0).Format("2006-01") == b
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
