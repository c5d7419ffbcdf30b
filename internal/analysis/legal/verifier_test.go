package legal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/geoutil"
)

// 1x1 degree-scaled square at the origin
var testParcel = orb.Polygon{orb.Ring{
	{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
}}

func writeLayer(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestVerifyMissingLayer(t *testing.T) {
	out := Verify(testParcel, 100, []config.LayerConfig{
		{Name: "forestal", Path: "/nonexistent/forestal.geojson"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, model.LegalLayerUnavailable, out[0].Kind)
	assert.Equal(t, "medium", out[0].Confidence)
	assert.False(t, out[0].Intersects)
	assert.Contains(t, out[0].Detail, "forestal.geojson")
}

func TestVerifyCorruptLayer(t *testing.T) {
	path := writeLayer(t, "bad.geojson", `{"type": "FeatureCollection", "features": [{`)
	out := Verify(testParcel, 100, []config.LayerConfig{{Name: "forestal", Path: path}})
	require.Len(t, out, 1)
	assert.Equal(t, model.LegalLayerInvalid, out[0].Kind)
}

func TestVerifyPolygonOverlap(t *testing.T) {
	// protected polygon covering the east half of the parcel
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"categoria":"reserva","codigo":"R-12"},"geometry":{"type":"Polygon","coordinates":[[[0.005,0],[0.02,0],[0.02,0.01],[0.005,0.01],[0.005,0]]]}}]}`
	path := writeLayer(t, "forestal.geojson", body)

	parcelArea := geoutil.AreaHa(testParcel)
	out := Verify(testParcel, parcelArea, []config.LayerConfig{{
		Name:       "forestal",
		Path:       path,
		Attributes: []string{"categoria"},
		Confidence: "high",
		Version:    "2023-10",
	}})
	require.Len(t, out, 1)

	f := out[0]
	assert.Equal(t, model.LegalEvaluated, f.Kind)
	assert.True(t, f.Intersects)
	assert.InDelta(t, 0.5, f.Fraction, 0.01)
	assert.Equal(t, "high", f.Confidence)
	assert.Equal(t, "2023-10", f.LayerVersion)
	require.Len(t, f.Features, 1)
	assert.Equal(t, map[string]string{"categoria": "reserva"}, f.Features[0].Attributes)
}

func TestVerifyDisjointPolygon(t *testing.T) {
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[1,1],[1.01,1],[1.01,1.01],[1,1.01],[1,1]]]}}]}`
	path := writeLayer(t, "forestal.geojson", body)

	out := Verify(testParcel, 100, []config.LayerConfig{{Name: "forestal", Path: path}})
	require.Len(t, out, 1)
	assert.False(t, out[0].Intersects)
	assert.Empty(t, out[0].Features)
	assert.Zero(t, out[0].AreaHa)
}

func TestVerifySetbackViolation(t *testing.T) {
	// stream ~11 m west of the parcel, quebrada setback is 30 m
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"class":"quebrada"},"geometry":{"type":"LineString","coordinates":[[-0.0001,0],[-0.0001,0.01]]}}]}`
	path := writeLayer(t, "hidro.geojson", body)

	out := Verify(testParcel, 100, []config.LayerConfig{{Name: "hidro", Path: path}})
	require.Len(t, out, 1)

	f := out[0]
	assert.True(t, f.Intersects)
	require.Contains(t, f.Setbacks, "quebrada")
	assert.Contains(t, f.Setbacks["quebrada"], "violated")
	assert.Contains(t, f.Setbacks["quebrada"], "30 m")
}

func TestVerifySetbackCrossingStream(t *testing.T) {
	// stream running straight through the parcel, both ends outside
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"class":"quebrada"},"geometry":{"type":"LineString","coordinates":[[-0.005,0.005],[0.015,0.005]]}}]}`
	path := writeLayer(t, "hidro.geojson", body)

	out := Verify(testParcel, 100, []config.LayerConfig{{Name: "hidro", Path: path}})
	require.Len(t, out, 1)

	f := out[0]
	assert.True(t, f.Intersects)
	require.Contains(t, f.Setbacks, "quebrada")
	assert.Contains(t, f.Setbacks["quebrada"], "violated")
	assert.Contains(t, f.Setbacks["quebrada"], "0 m < 30 m")
}

func TestVerifySetbackSatisfied(t *testing.T) {
	// irrigation canal ~55 m away, canal_riego setback is only 10 m
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"class":"canal_riego"},"geometry":{"type":"LineString","coordinates":[[-0.0005,0],[-0.0005,0.01]]}}]}`
	path := writeLayer(t, "hidro.geojson", body)

	out := Verify(testParcel, 100, []config.LayerConfig{{Name: "hidro", Path: path}})
	require.Len(t, out, 1)
	assert.False(t, out[0].Intersects)
	assert.Equal(t, "ok", out[0].Setbacks["canal_riego"])
}

func TestVerifyOrderedByLayerName(t *testing.T) {
	out := Verify(testParcel, 100, []config.LayerConfig{
		{Name: "zonas_protegidas", Path: "/nonexistent/a"},
		{Name: "hidrografia", Path: "/nonexistent/b"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "hidrografia", out[0].Layer)
	assert.Equal(t, "zonas_protegidas", out[1].Layer)
}
