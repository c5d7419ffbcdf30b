package indices

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotech/diagnosis/internal/analysis/raster"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/geoutil"
)

var testTransform = geoutil.Transform{0, 0.0001, 0, 0, 0, -0.0001}

var testCfg = config.DiagnosisConfig{
	MinValidFraction: 0.60,
	MaxCloud:         0.50,
}

// maskedGrid builds a fully-inside 10x10 masked layer
func maskedGrid(fill float64) *raster.Masked {
	w, h := 10, 10
	data := make([]float64, w*h)
	inside := make([]bool, w*h)
	for i := range data {
		data[i] = fill
		inside[i] = true
	}
	return &raster.Masked{
		Raster: &raster.Raster{
			Index: "ndvi", Width: w, Height: h, Data: data,
			Transform: testTransform, CRS: "EPSG:4326",
		},
		Inside:      inside,
		InsideCount: w * h,
	}
}

func scene(viewID, date string, cloud, fill float64) Scene {
	return Scene{
		Acq:    model.Acquisition{ViewID: viewID, ParcelID: "p1", Date: date, CloudFractionAOI: cloud},
		Layers: map[string]*raster.Masked{"ndvi": maskedGrid(fill)},
	}
}

func TestMonthlyAggregatesDropsCloudyScenes(t *testing.T) {
	window := model.Window{From: "2024-06", To: "2024-06"}
	scenes := []Scene{
		scene("v1", "2024-06-01", 0.10, 0.70),
		scene("v2", "2024-06-15", 0.80, 0.20), // above max_cloud, dropped
	}

	aggs, comps, err := MonthlyAggregates("p1", "ndvi", scenes, window, testCfg)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, 1, aggs[0].NAcquisitions)
	assert.Equal(t, "v1", aggs[0].BestAcquisition)
	assert.InDelta(t, 0.70, aggs[0].Mean, 1e-9)
	require.Contains(t, comps, "2024-06")
}

func TestMonthlyAggregatesDropsLowValidFraction(t *testing.T) {
	window := model.Window{From: "2024-06", To: "2024-06"}
	s := scene("v1", "2024-06-01", 0.10, 0.70)
	// invalidate half the pixels
	for i := 0; i < 50; i++ {
		s.Layers["ndvi"].Data[i] = math.NaN()
	}

	_, _, err := MonthlyAggregates("p1", "ndvi", []Scene{s}, window, testCfg)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindInsufficientCoverage, errorutil.KindOf(err))
}

func TestMonthlyAggregatesSkipsEmptyMonths(t *testing.T) {
	window := model.Window{From: "2024-05", To: "2024-07"}
	scenes := []Scene{
		scene("v1", "2024-05-10", 0.10, 0.60),
		scene("v2", "2024-07-10", 0.10, 0.50),
	}

	aggs, _, err := MonthlyAggregates("p1", "ndvi", scenes, window, testCfg)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, "2024-05", aggs[0].Period)
	assert.Equal(t, "2024-07", aggs[1].Period)
}

func TestCompositeIsPixelMedian(t *testing.T) {
	window := model.Window{From: "2024-06", To: "2024-06"}
	scenes := []Scene{
		scene("v1", "2024-06-01", 0.10, 0.20),
		scene("v2", "2024-06-11", 0.10, 0.40),
		scene("v3", "2024-06-21", 0.10, 0.90),
	}

	aggs, comps, err := MonthlyAggregates("p1", "ndvi", scenes, window, testCfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.40, aggs[0].P50, 1e-9)
	assert.InDelta(t, 0.40, comps["2024-06"].Grid.At(3, 3), 1e-9)
}

func TestBestSceneLowestCloudWins(t *testing.T) {
	group := []Scene{
		scene("v1", "2024-06-01", 0.30, 0.7),
		scene("v2", "2024-06-11", 0.10, 0.7),
	}
	assert.Equal(t, "v2", bestScene(group, "ndvi").Acq.ViewID)
}

func TestBestSceneTieBreaks(t *testing.T) {
	// equal cloud, equal valid fraction: latest date wins
	group := []Scene{
		scene("v1", "2024-06-01", 0.10, 0.7),
		scene("v2", "2024-06-21", 0.10, 0.7),
	}
	assert.Equal(t, "v2", bestScene(group, "ndvi").Acq.ViewID)

	// equal on everything incl date: lexicographic view id
	group = []Scene{
		scene("vb", "2024-06-21", 0.10, 0.7),
		scene("va", "2024-06-21", 0.10, 0.7),
	}
	assert.Equal(t, "va", bestScene(group, "ndvi").Acq.ViewID)
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 0.4, median([]float64{0.9, 0.2, 0.4}), 1e-9)
	assert.InDelta(t, 0.3, median([]float64{0.2, 0.4}), 1e-9)
}
