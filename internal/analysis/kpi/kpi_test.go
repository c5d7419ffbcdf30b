package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
)

var generalCrop = config.CropThresholds{
	Low: 0.35, Establishment: 0.40, ActiveGrowth: 0.65, FullDevelopment: 0.75,
}

func agg(period string, mean float64) model.MonthlyAggregate {
	return model.MonthlyAggregate{Period: period, Mean: mean, ValidFraction: 0.95}
}

func baseInput() Input {
	return Input{
		Window: model.Window{From: "2024-05", To: "2024-07"},
		NDVISeries: []model.MonthlyAggregate{
			agg("2024-05", 0.60), agg("2024-06", 0.62), agg("2024-07", 0.61),
		},
		ParcelAreaHa:      10,
		GoodStateFraction: 0.92,
		Crop:              generalCrop,
		Language:          "es",
	}
}

func TestComputeTrendSign(t *testing.T) {
	in := baseInput()

	k := Compute(in)
	assert.Equal(t, "stable", k.TrendSign)
	assert.InDelta(t, 1.67, k.TrendPct, 0.01)

	in.NDVISeries = []model.MonthlyAggregate{agg("2024-05", 0.50), agg("2024-07", 0.60)}
	k = Compute(in)
	assert.Equal(t, "up", k.TrendSign)
	assert.InDelta(t, 20.0, k.TrendPct, 0.01)

	in.NDVISeries = []model.MonthlyAggregate{agg("2024-05", 0.60), agg("2024-07", 0.50)}
	k = Compute(in)
	assert.Equal(t, "down", k.TrendSign)

	in.NDVISeries = in.NDVISeries[:1]
	k = Compute(in)
	assert.Equal(t, "stable", k.TrendSign)
	assert.Zero(t, k.TrendPct)
}

func TestComputeSeverityBands(t *testing.T) {
	in := baseInput()
	in.Zones = []model.CriticalZone{
		{Priority: 1, Severity: model.SeverityCritical, AreaHa: 1.0},
		{Priority: 2, Severity: model.SeverityModerate, AreaHa: 0.5},
		{Priority: 3, Severity: model.SeverityMild, AreaHa: 0.5},
	}

	k := Compute(in)
	assert.InDelta(t, 10.0, k.CriticalPct, 0.01)
	assert.InDelta(t, 5.0, k.ModeratePct, 0.01)
	assert.InDelta(t, 5.0, k.MildPct, 0.01)
	assert.InDelta(t, 20.0, k.AffectedPct, 0.01)
	assert.InDelta(t, 2.0, k.AffectedAreaHa, 0.01)
	assert.Equal(t, 1, k.CriticalZones)
	assert.Equal(t, model.SeverityCritical, k.DominantSeverity)
}

func TestComputeEfficiencyCeiling(t *testing.T) {
	in := baseInput()
	in.GoodStateFraction = 1.0
	in.Zones = []model.CriticalZone{
		{Priority: 1, Severity: model.SeverityMild, AreaHa: 0.1},
	}

	k := Compute(in)
	assert.Equal(t, 99.7, k.EfficiencyPct)

	// without affected area the raw value stands
	in.Zones = nil
	k = Compute(in)
	assert.Equal(t, 100.0, k.EfficiencyPct)
}

func TestComputeHealthyHeadline(t *testing.T) {
	k := Compute(baseInput())
	assert.Equal(t, "stable_healthy", k.HeadlineTag)
	assert.Contains(t, k.Headline, "estable")
	assert.Equal(t, "none", k.DominantSeverity)
	assert.Equal(t, model.PhaseActiveGrowth, k.PhaseAtEnd)
}

func TestComputeHeadlineEnglish(t *testing.T) {
	in := baseInput()
	in.Language = "en"
	k := Compute(in)
	assert.Equal(t, "The field remains stable and healthy across the window.", k.Headline)
}

func TestComputeWaterStressOverride(t *testing.T) {
	in := baseInput()
	in.Anomalies = []model.Anomaly{
		{Index: "ndmi", Period: "2024-06", Kind: model.AnomalyWaterStress},
		{Index: "ndmi", Period: "2024-07", Kind: model.AnomalyWaterStress, Detail: "severe"},
	}
	in.Causes = []model.Cause{
		{Period: "2024-06", Kind: model.CauseWaterStress, Confidence: 0.9},
	}

	k := Compute(in)
	assert.Equal(t, "water_stress", k.HeadlineTag)
	assert.Equal(t, []string{"2024-06", "2024-07"}, k.WaterStressMonths)
	assert.Equal(t, model.CauseWaterStress, k.DominantCause)
}

func TestComputeSpecialFocusOverride(t *testing.T) {
	in := baseInput()
	in.SpecialFocus = model.CauseCanopyLoss
	in.Causes = []model.Cause{
		{Period: "2024-06", Kind: model.CauseCanopyLoss, Confidence: 0.75},
	}

	k := Compute(in)
	assert.Equal(t, model.CauseCanopyLoss, k.HeadlineTag)
	// no canned sentence for the focus tag, the table text stands in
	assert.Contains(t, k.Headline, "estable")
}

func TestComputeSpecialFocusIgnoredWithoutCause(t *testing.T) {
	in := baseInput()
	in.SpecialFocus = model.CauseCanopyLoss

	k := Compute(in)
	assert.Equal(t, "stable_healthy", k.HeadlineTag)
}

func TestComputeCriticalDecline(t *testing.T) {
	in := baseInput()
	in.NDVISeries = []model.MonthlyAggregate{agg("2024-05", 0.60), agg("2024-07", 0.45)}
	in.Zones = []model.CriticalZone{
		{Priority: 1, Severity: model.SeverityCritical, AreaHa: 1.0},
	}

	k := Compute(in)
	require.Equal(t, "down", k.TrendSign)
	assert.Equal(t, "critical_decline", k.HeadlineTag)
}
