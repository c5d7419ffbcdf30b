package raster

import (
	"os"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"

	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/geoutil"
)

// Reader loads single-band index rasters
type Reader interface {
	Read(path string, index string) (*Raster, error)
}

var registerOnce sync.Once

// GeoTIFFReader godal-backed reader; non-WGS84 inputs are warped
// to EPSG:4326 so the mask and overlay math stays in one CRS.
type GeoTIFFReader struct{}

// NewGeoTIFFReader creates a reader, registering GDAL drivers once
func NewGeoTIFFReader() *GeoTIFFReader {
	registerOnce.Do(godal.RegisterAll)
	return &GeoTIFFReader{}
}

// Read loads band 1 of a GeoTIFF into a Raster
func (g *GeoTIFFReader) Read(path string, index string) (*Raster, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"raster file missing: %s", path).WithDetail("index", index)
	}

	ds, err := godal.Open(path)
	if err != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"open raster failed: %v", err).WithDetail("path", path)
	}
	defer ds.Close()

	if !isWGS84(ds.Projection()) {
		warped, err := ds.Warp("", []string{"-t_srs", "EPSG:4326", "-of", "MEM"})
		if err != nil {
			return nil, errorutil.Newf(errorutil.KindGeometryMismatch,
				"reproject to EPSG:4326 failed: %v", err).WithDetail("path", path)
		}
		defer warped.Close()
		return readDataset(warped, index, path)
	}

	return readDataset(ds, index, path)
}

func readDataset(ds *godal.Dataset, index, path string) (*Raster, error) {
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"raster has no bands: %s", path)
	}
	band := bands[0]

	st := band.Structure()
	data := make([]float64, st.SizeX*st.SizeY)
	if err := band.Read(0, 0, data, st.SizeX, st.SizeY); err != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"read band failed: %v", err).WithDetail("path", path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"read geotransform failed: %v", err).WithDetail("path", path)
	}

	r := &Raster{
		Index:     index,
		Width:     st.SizeX,
		Height:    st.SizeY,
		Data:      data,
		Transform: geoutil.Transform(gt),
		CRS:       "EPSG:4326",
	}
	if nodata, ok := band.NoData(); ok {
		r.NoData = nodata
		r.HasNoData = true
	}
	return r, nil
}

func isWGS84(projection string) bool {
	if projection == "" {
		// acquisitions are delivered in WGS84 unless tagged otherwise
		return true
	}
	return strings.Contains(projection, "4326") || strings.Contains(projection, "WGS 84") ||
		strings.Contains(projection, "WGS84")
}
