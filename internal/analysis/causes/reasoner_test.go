package causes

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

func anom(index, period, kind, detail string, magnitude, conf float64) model.Anomaly {
	return model.Anomaly{
		Index: index, Period: period, Kind: kind,
		Detail: detail, Magnitude: magnitude, Confidence: conf,
	}
}

func ndviSeries(periods []string, means []float64) []model.MonthlyAggregate {
	out := make([]model.MonthlyAggregate, len(periods))
	for i := range periods {
		out[i] = model.MonthlyAggregate{Period: periods[i], Mean: means[i], ValidFraction: 0.95}
	}
	return out
}

func findCause(causes []model.Cause, kind string) (model.Cause, bool) {
	for _, c := range causes {
		if c.Kind == kind {
			return c, true
		}
	}
	return model.Cause{}, false
}

func TestInferWaterStress(t *testing.T) {
	in := Input{
		Window: model.Window{From: "2024-05", To: "2024-06"},
		Anomalies: []model.Anomaly{
			anom("ndmi", "2024-06", model.AnomalyWaterStress, "", 0.05, 0.9),
			anom("ndvi", "2024-06", model.AnomalyTrendBreak, "down", 0.20, 0.9),
		},
		NDVI:            ndviSeries([]string{"2024-05", "2024-06"}, []float64{0.60, 0.48}),
		Crop:            generalCrop,
		HasPriorHistory: true,
	}

	out := Infer(in)
	c, ok := findCause(out, model.CauseWaterStress)
	require.True(t, ok)
	assert.Equal(t, "2024-06", c.Period)
	assert.Equal(t, 0.90, c.Confidence)
	assert.ElementsMatch(t, []int{0, 1}, c.Supporting)

	// no anomaly is left for the inconclusive fallback
	_, ok = findCause(out, model.CauseInconclusive)
	assert.False(t, ok)
}

func TestInferWaterStressWeakSupportPenalty(t *testing.T) {
	in := Input{
		Window: model.Window{From: "2024-05", To: "2024-06"},
		Anomalies: []model.Anomaly{
			anom("ndmi", "2024-06", model.AnomalyWaterStress, "", 0.05, 0.5), // weak
			anom("ndvi", "2024-06", model.AnomalyTrendBreak, "down", 0.20, 0.9),
		},
		NDVI:            ndviSeries([]string{"2024-05", "2024-06"}, []float64{0.60, 0.48}),
		Crop:            generalCrop,
		HasPriorHistory: true,
	}

	c, ok := findCause(Infer(in), model.CauseWaterStress)
	require.True(t, ok)
	assert.Equal(t, 0.75, c.Confidence)
}

func TestInferCanopyLossNeedsStableNDMI(t *testing.T) {
	in := Input{
		Window: model.Window{From: "2024-05", To: "2024-06"},
		Anomalies: []model.Anomaly{
			anom("ndvi", "2024-06", model.AnomalyTrendBreak, "down", 0.20, 0.9),
		},
		NDVI:            ndviSeries([]string{"2024-05", "2024-06"}, []float64{0.60, 0.48}),
		Crop:            generalCrop,
		HasPriorHistory: true,
	}

	c, ok := findCause(Infer(in), model.CauseCanopyLoss)
	require.True(t, ok)
	assert.Equal(t, 0.75, c.Confidence)
	assert.Equal(t, []int{0}, c.Supporting)

	// an NDMI break in the same month disqualifies the rule
	in.Anomalies = append(in.Anomalies,
		anom("ndmi", "2024-06", model.AnomalyTrendBreak, "down", 0.20, 0.9))
	_, ok = findCause(Infer(in), model.CauseCanopyLoss)
	assert.False(t, ok)
}

func TestInferEmergenceLag(t *testing.T) {
	in := Input{
		Window:          model.Window{From: "2024-05", To: "2024-06"},
		NDVI:            ndviSeries([]string{"2024-05", "2024-06"}, []float64{0.20, 0.25}),
		Crop:            generalCrop,
		HasPriorHistory: false,
	}

	out := Infer(in)
	require.Len(t, out, 2)
	assert.Equal(t, model.CauseEmergenceLag, out[0].Kind)
	assert.Equal(t, "2024-05", out[0].Period)
	assert.Equal(t, 0.70, out[0].Confidence)
	assert.Equal(t, "2024-06", out[1].Period)
}

func TestInferEmergenceLagSuppressedByHistory(t *testing.T) {
	in := Input{
		Window:          model.Window{From: "2024-05", To: "2024-06"},
		NDVI:            ndviSeries([]string{"2024-05", "2024-06"}, []float64{0.20, 0.25}),
		Crop:            generalCrop,
		HasPriorHistory: true,
	}
	_, ok := findCause(Infer(in), model.CauseEmergenceLag)
	assert.False(t, ok)
}

func TestInferSenescence(t *testing.T) {
	in := Input{
		Window: model.Window{From: "2024-05", To: "2024-06"},
		Anomalies: []model.Anomaly{
			anom("ndvi", "2024-06", model.AnomalyTrendBreak, "down", 0.10, 0.9),
		},
		// previous month in full development
		NDVI:            ndviSeries([]string{"2024-05", "2024-06"}, []float64{0.70, 0.62}),
		Crop:            generalCrop,
		HasPriorHistory: true,
	}

	c, ok := findCause(Infer(in), model.CauseSenescence)
	require.True(t, ok)
	assert.Equal(t, 0.65, c.Confidence)
}

func TestInferSensorArtifact(t *testing.T) {
	in := Input{
		Window: model.Window{From: "2024-05", To: "2024-07"},
		Anomalies: []model.Anomaly{
			anom("ndvi", "2024-06", model.AnomalyOutlier, "high", 4.0, 0.9),
		},
		NDVI: ndviSeries(
			[]string{"2024-05", "2024-06", "2024-07"},
			[]float64{0.50, 0.90, 0.52},
		),
		CloudByPeriod:   map[string]float64{"2024-06": 0.45},
		Crop:            generalCrop,
		HasPriorHistory: true,
	}

	c, ok := findCause(Infer(in), model.CauseSensorArtifact)
	require.True(t, ok)
	assert.Equal(t, 0.60, c.Confidence)

	// a clear best scene rules the artifact out
	in.CloudByPeriod["2024-06"] = 0.10
	out := Infer(in)
	_, ok = findCause(out, model.CauseSensorArtifact)
	assert.False(t, ok)

	// the spike then falls through to the inconclusive fallback
	c, ok = findCause(out, model.CauseInconclusive)
	require.True(t, ok)
	assert.Equal(t, 0.40, c.Confidence)
	assert.Equal(t, []int{0}, c.Supporting)
}

func TestInferOrderByPeriodThenConfidence(t *testing.T) {
	in := Input{
		Window: model.Window{From: "2024-05", To: "2024-06"},
		Anomalies: []model.Anomaly{
			anom("ndmi", "2024-06", model.AnomalyWaterStress, "", 0.05, 0.9),
			anom("ndvi", "2024-06", model.AnomalyTrendBreak, "down", 0.20, 0.9),
			anom("savi", "2024-05", model.AnomalyOutlier, "low", 3.5, 0.9),
		},
		NDVI:            ndviSeries([]string{"2024-05", "2024-06"}, []float64{0.60, 0.48}),
		Crop:            generalCrop,
		HasPriorHistory: true,
	}

	out := Infer(in)
	require.GreaterOrEqual(t, len(out), 2)
	assert.Equal(t, "2024-05", out[0].Period)
	assert.Equal(t, model.CauseInconclusive, out[0].Kind)
	for i := 1; i < len(out); i++ {
		if out[i].Period == out[i-1].Period {
			assert.GreaterOrEqual(t, out[i-1].Confidence, out[i].Confidence)
		} else {
			assert.Less(t, out[i-1].Period, out[i].Period)
		}
	}
}
