package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
)

var testCfg = config.DiagnosisConfig{
	OutlierZ:        3.0,
	TrendBreakPct:   0.15,
	WaterStressNDMI: 0.20,
}

var generalCrop = config.CropThresholds{
	Low: 0.35, Establishment: 0.40, ActiveGrowth: 0.65, FullDevelopment: 0.75,
}

func agg(period string, mean, vf float64) model.MonthlyAggregate {
	return model.MonthlyAggregate{Period: period, Mean: mean, ValidFraction: vf}
}

func series(means ...float64) []model.MonthlyAggregate {
	months := []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06", "2024-07", "2024-08"}
	out := make([]model.MonthlyAggregate, len(means))
	for i, m := range means {
		out[i] = agg(months[i], m, 0.95)
	}
	return out
}

func kinds(anomalies []model.Anomaly, kind string) []model.Anomaly {
	var out []model.Anomaly
	for _, a := range anomalies {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestDetectOutlierLow(t *testing.T) {
	aggs := series(0.70, 0.71, 0.69, 0.72, 0.68, 0.70, 0.71, 0.20)

	out := kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyOutlier)
	require.Len(t, out, 1)
	assert.Equal(t, "2024-08", out[0].Period)
	assert.Equal(t, "low", out[0].Detail)
	assert.Greater(t, out[0].Magnitude, 3.0)
}

func TestDetectNoOutlierOnConstantSeries(t *testing.T) {
	// zero MAD: the robust z-score is undefined, nothing fires
	aggs := series(0.7, 0.7, 0.7, 0.7, 0.7)
	assert.Empty(t, kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyOutlier))
}

func TestDetectTrendBreakAfterFlatSeries(t *testing.T) {
	aggs := series(0.70, 0.70, 0.70, 0.50)

	out := kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyTrendBreak)
	require.Len(t, out, 1)
	assert.Equal(t, "2024-04", out[0].Period)
	assert.Equal(t, "down", out[0].Detail)
	assert.InDelta(t, 0.2857, out[0].Magnitude, 0.001)
}

func TestDetectTrendBreakSuppressedAgainstTrailing(t *testing.T) {
	// the drop contradicts a rising trailing trend, so it is noise
	aggs := series(0.50, 0.60, 0.40)
	assert.Empty(t, kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyTrendBreak))
}

func TestDetectPhaseTransition(t *testing.T) {
	aggs := series(0.30, 0.50)

	out := kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyPhaseTransition)
	require.Len(t, out, 1)
	assert.Equal(t, "2024-02", out[0].Period)
	assert.Equal(t, "establishment->active_growth", out[0].Detail)
}

func TestDetectWaterStressEscalatesToSevere(t *testing.T) {
	aggs := series(0.30, 0.15, 0.10)

	out := kinds(Detect("ndmi", aggs, generalCrop, testCfg), model.AnomalyWaterStress)
	require.Len(t, out, 2)
	assert.Equal(t, "", out[0].Detail)
	assert.Equal(t, "severe", out[1].Detail)
}

func TestWaterStressOnlyOnNDMI(t *testing.T) {
	aggs := series(0.10, 0.10, 0.10)
	assert.Empty(t, kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyWaterStress))
}

func TestConfidenceShortSeries(t *testing.T) {
	aggs := series(0.70, 0.70, 0.50)
	out := kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyTrendBreak)
	require.Len(t, out, 1)
	assert.Equal(t, 0.5, out[0].Confidence)
}

func TestConfidenceLowValidFraction(t *testing.T) {
	aggs := series(0.70, 0.70, 0.70, 0.50)
	aggs[3].ValidFraction = 0.65

	out := kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyTrendBreak)
	require.Len(t, out, 1)
	assert.Equal(t, 0.6, out[0].Confidence)
}

func TestConfidenceMissingAdjacentMonth(t *testing.T) {
	aggs := []model.MonthlyAggregate{
		agg("2024-01", 0.70, 0.95),
		agg("2024-02", 0.70, 0.95),
		agg("2024-03", 0.70, 0.95),
		agg("2024-05", 0.50, 0.95), // 2024-04 missing
	}

	out := kinds(Detect("ndvi", aggs, generalCrop, testCfg), model.AnomalyTrendBreak)
	require.Len(t, out, 1)
	assert.Equal(t, 0.7, out[0].Confidence)
}

func TestPhaseOf(t *testing.T) {
	assert.Equal(t, model.PhaseEstablishment, PhaseOf(0.30, generalCrop))
	assert.Equal(t, model.PhaseActiveGrowth, PhaseOf(0.50, generalCrop))
	assert.Equal(t, model.PhaseFullDevelopment, PhaseOf(0.70, generalCrop))
	assert.Equal(t, model.PhaseMaturation, PhaseOf(0.80, generalCrop))
}
