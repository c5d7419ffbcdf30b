package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/geoutil"
)

const testManifest = `[
  {"view_id": "v3", "date": "2024-06-10", "sensor": "S2A", "cloud_fraction_aoi": 0.1,
   "rasters": {"ndvi": "v3/ndvi.tif"}},
  {"view_id": "v1", "date": "2024-04-01", "sensor": "S2B", "cloud_fraction_aoi": 0.2,
   "rasters": {"ndvi": "v1/ndvi.tif"}},
  {"view_id": "v2", "date": "2024-05-05", "sensor": "S2A", "cloud_fraction_aoi": 0.3,
   "rasters": {"ndvi": "v2/ndvi.tif", "ndmi": "v2/ndmi.tif"}}
]`

func writeManifest(t *testing.T, body string) *FileAcquisitionSource {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "p1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p1", "acquisitions.json"), []byte(body), 0o644))
	return &FileAcquisitionSource{Dir: dir}
}

func TestFileAcquisitionSourceLoad(t *testing.T) {
	src := writeManifest(t, testManifest)
	window := model.Window{From: "2024-05", To: "2024-06"}

	set, err := src.Load(context.Background(), "p1", window)
	require.NoError(t, err)

	// v1 predates the window: only sets the history flag
	require.Len(t, set.Acquisitions, 2)
	assert.True(t, set.HasPriorHistory)
	assert.Equal(t, "v2", set.Acquisitions[0].ViewID)
	assert.Equal(t, "v3", set.Acquisitions[1].ViewID)

	assert.NotContains(t, set.Rasters, "v1")
	require.Contains(t, set.Rasters, "v2")
	assert.Equal(t, filepath.Join(src.Dir, "p1", "v2/ndmi.tif"), set.Rasters["v2"]["ndmi"])
}

func TestFileAcquisitionSourceMissingManifest(t *testing.T) {
	src := &FileAcquisitionSource{Dir: t.TempDir()}
	_, err := src.Load(context.Background(), "p1", model.Window{From: "2024-05", To: "2024-06"})
	require.Error(t, err)
	assert.Equal(t, errorutil.KindInputUnavailable, errorutil.KindOf(err))
}

func TestFileAcquisitionSourceBadManifest(t *testing.T) {
	src := writeManifest(t, `{"not": "an array"}`)
	_, err := src.Load(context.Background(), "p1", model.Window{From: "2024-05", To: "2024-06"})
	require.Error(t, err)
	assert.Equal(t, errorutil.KindInputUnavailable, errorutil.KindOf(err))
}

func TestFileClimateSourceFiltersWindow(t *testing.T) {
	dir := t.TempDir()
	body := `[
	  {"date": "2024-07-01", "precipitation_mm": 4.0},
	  {"date": "2024-04-30", "precipitation_mm": 2.5},
	  {"date": "2024-05-15", "precipitation_mm": 0.0}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p1.json"), []byte(body), 0o644))

	src := &FileClimateSource{Dir: dir}
	out, err := src.Load(context.Background(), "p1", model.Window{From: "2024-05", To: "2024-07"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "2024-05-15", out[0].Date)
	assert.Equal(t, "2024-07-01", out[1].Date)
}

func catalogBody(areaHa float64) string {
	area := ""
	if areaHa > 0 {
		area = fmt.Sprintf(`, "area_ha": %.4f`, areaHa)
	}
	return fmt.Sprintf(`{"type":"FeatureCollection","features":[
	  {"type":"Feature",
	   "properties":{"id":"p1","name":"Lote Norte"%s},
	   "geometry":{"type":"Polygon","coordinates":[[[0,0],[0.01,0],[0.01,0.01],[0,0.01],[0,0]]]}}
	]}`, area)
}

func writeCatalog(t *testing.T, body string) *FileParcelCatalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parcels.geojson")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return &FileParcelCatalog{Path: path}
}

func TestFileParcelCatalogGetParcel(t *testing.T) {
	c := writeCatalog(t, catalogBody(0))

	p, err := c.GetParcel(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Lote Norte", p.Name)
	assert.Equal(t, "general", p.CropType) // default when absent
	assert.Greater(t, p.AreaHa, 0.0)
	require.NotNil(t, p.Geometry)
}

func TestFileParcelCatalogAreaTolerance(t *testing.T) {
	derived := geoutil.AreaHa(orb.Polygon{orb.Ring{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}})

	// declared area within 0.5% passes
	c := writeCatalog(t, catalogBody(derived*1.002))
	_, err := c.GetParcel(context.Background(), "p1")
	require.NoError(t, err)

	// 10% off is rejected
	c = writeCatalog(t, catalogBody(derived*1.10))
	_, err = c.GetParcel(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, errorutil.KindGeometryMismatch, errorutil.KindOf(err))
}

func TestFileParcelCatalogNotFound(t *testing.T) {
	c := writeCatalog(t, catalogBody(0))
	_, err := c.GetParcel(context.Background(), "p9")
	require.Error(t, err)
	assert.Equal(t, errorutil.KindInputUnavailable, errorutil.KindOf(err))
}
