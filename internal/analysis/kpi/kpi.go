package kpi

import (
	"math"
	"sort"

	"agrotech/diagnosis/internal/analysis/anomaly"
	"agrotech/diagnosis/internal/analysis/zones"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
)

// Trend sign thresholds in percent
const (
	trendUpPct   = 3.0
	trendDownPct = -3.0
)

// efficiencyCeiling the coherence clamp: a parcel with any affected
// area can never report 100% efficiency
const efficiencyCeiling = 99.7

// Input frozen inputs for the KPI computation. NDVISeries must already
// exclude aggregates below the valid-fraction floor.
type Input struct {
	Window            model.Window
	NDVISeries        []model.MonthlyAggregate
	Zones             []model.CriticalZone
	Causes            []model.Cause
	Anomalies         []model.Anomaly
	ParcelAreaHa      float64
	GoodStateFraction float64 // parcel pixels with NDVI>0.5 and SAVI>0.4
	Crop              config.CropThresholds
	Language          string
	SpecialFocus      string
}

// Compute derives the unified KPI set. Every number that appears on a
// downstream surface comes from here; nothing recomputes these.
func Compute(in Input) model.KPISet {
	k := model.KPISet{}

	if len(in.NDVISeries) >= 2 {
		first := in.NDVISeries[0].Mean
		last := in.NDVISeries[len(in.NDVISeries)-1].Mean
		if first != 0 {
			k.TrendPct = round2((last - first) / math.Abs(first) * 100)
		}
	}
	switch {
	case k.TrendPct > trendUpPct:
		k.TrendSign = "up"
	case k.TrendPct < trendDownPct:
		k.TrendSign = "down"
	default:
		k.TrendSign = "stable"
	}

	for _, z := range in.Zones {
		k.AffectedAreaHa += z.AreaHa
		if in.ParcelAreaHa > 0 {
			pct := z.AreaHa / in.ParcelAreaHa * 100
			switch z.Severity {
			case model.SeverityCritical:
				k.CriticalPct += pct
			case model.SeverityModerate:
				k.ModeratePct += pct
			case model.SeverityMild:
				k.MildPct += pct
			}
		}
		if z.Severity == model.SeverityCritical {
			k.CriticalZones++
		}
	}
	// affected fraction is by definition the sum of the severity bands
	k.AffectedPct = k.CriticalPct + k.ModeratePct + k.MildPct
	k.CriticalPct = round2(k.CriticalPct)
	k.ModeratePct = round2(k.ModeratePct)
	k.MildPct = round2(k.MildPct)
	k.AffectedPct = round2(k.AffectedPct)
	k.AffectedAreaHa = round2(k.AffectedAreaHa)

	k.EfficiencyPct = round2(in.GoodStateFraction * 100)
	if k.AffectedPct > 0 && k.EfficiencyPct > efficiencyCeiling {
		k.EfficiencyPct = efficiencyCeiling
	}

	k.DominantCause = zones.DominantCause(in.Causes)
	k.DominantSeverity = dominantSeverity(in.Zones)

	if len(in.NDVISeries) > 0 {
		k.PhaseAtEnd = anomaly.PhaseOf(in.NDVISeries[len(in.NDVISeries)-1].Mean, in.Crop)
	}

	k.WaterStressMonths = waterStressMonths(in.Anomalies)

	k.HeadlineTag, k.Headline = headline(k, in)
	return k
}

// dominantSeverity severity of the rank-1 zone; "none" without zones
func dominantSeverity(zs []model.CriticalZone) string {
	for _, z := range zs {
		if z.Priority == 1 {
			return z.Severity
		}
	}
	return "none"
}

func waterStressMonths(anomalies []model.Anomaly) []string {
	seen := make(map[string]bool)
	var months []string
	for _, a := range anomalies {
		if a.Kind == model.AnomalyWaterStress && !seen[a.Period] {
			seen[a.Period] = true
			months = append(months, a.Period)
		}
	}
	sort.Strings(months)
	return months
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
