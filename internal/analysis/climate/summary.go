package climate

import (
	"math"

	"github.com/montanaflynn/stats"

	"agrotech/diagnosis/internal/model"
)

// Summarize aggregates daily climate records into monthly rows for the
// window. Months without records are skipped. Output is period-ordered.
func Summarize(records []model.ClimateRecord, window model.Window) []model.ClimateMonthly {
	byPeriod := make(map[string][]model.ClimateRecord)
	for _, r := range records {
		if len(r.Date) < 7 {
			continue
		}
		period := r.Date[:7]
		if !window.Contains(period) {
			continue
		}
		byPeriod[period] = append(byPeriod[period], r)
	}

	var out []model.ClimateMonthly
	for _, period := range window.Months() {
		group := byPeriod[period]
		if len(group) == 0 {
			continue
		}

		precip := 0.0
		tMeans := make([]float64, 0, len(group))
		tMax := math.Inf(-1)
		tMin := math.Inf(1)
		for _, r := range group {
			precip += r.PrecipitationMM
			tMeans = append(tMeans, r.TMeanC)
			if r.TMaxC > tMax {
				tMax = r.TMaxC
			}
			if r.TMinC < tMin {
				tMin = r.TMinC
			}
		}
		mean, _ := stats.Mean(tMeans)

		out = append(out, model.ClimateMonthly{
			Period:          period,
			PrecipitationMM: round1(precip),
			TMeanC:          round1(mean),
			TMaxC:           round1(tMax),
			TMinC:           round1(tMin),
			NDays:           len(group),
		})
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
