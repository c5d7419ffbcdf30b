package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/paulmach/orb/geojson"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/geoutil"
)

// areaToleranceFrac declared parcel area must match the geodesic area
// of the geometry within this fraction
const areaToleranceFrac = 0.005

// FileAcquisitionSource manifest-driven imagery source: one directory
// per parcel holding acquisitions.json plus the raster files.
type FileAcquisitionSource struct {
	Dir     string
	Timeout time.Duration
}

// manifestEntry one acquisition row of acquisitions.json
type manifestEntry struct {
	ViewID           string            `json:"view_id"`
	Date             string            `json:"date"`
	Sensor           string            `json:"sensor"`
	CloudFractionAOI float64           `json:"cloud_fraction_aoi"`
	Rasters          map[string]string `json:"rasters"` // index -> relative path
}

// Load reads the manifest for a parcel and freezes the window's
// acquisition set. Entries before the window only set the
// prior-history flag.
func (s *FileAcquisitionSource) Load(ctx context.Context, parcelID string, window model.Window) (*AcquisitionSet, error) {
	manifest := filepath.Join(s.Dir, parcelID, "acquisitions.json")

	data, err := readWithTimeout(ctx, manifest, s.Timeout)
	if err != nil {
		return nil, err
	}

	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"acquisition manifest parse failed: %v", err).WithDetail("path", manifest)
	}

	set := &AcquisitionSet{Rasters: make(map[string]map[string]string)}
	for _, e := range entries {
		acq := model.Acquisition{
			ViewID:           e.ViewID,
			ParcelID:         parcelID,
			Date:             e.Date,
			Sensor:           e.Sensor,
			CloudFractionAOI: e.CloudFractionAOI,
		}
		period := acq.Period()
		if period < window.From {
			set.HasPriorHistory = true
			continue
		}
		if period > window.To {
			continue
		}
		set.Acquisitions = append(set.Acquisitions, acq)
		paths := make(map[string]string, len(e.Rasters))
		for index, rel := range e.Rasters {
			paths[index] = filepath.Join(s.Dir, parcelID, rel)
		}
		set.Rasters[e.ViewID] = paths
	}

	sort.Slice(set.Acquisitions, func(a, b int) bool {
		if set.Acquisitions[a].Date != set.Acquisitions[b].Date {
			return set.Acquisitions[a].Date < set.Acquisitions[b].Date
		}
		return set.Acquisitions[a].ViewID < set.Acquisitions[b].ViewID
	})
	return set, nil
}

// FileClimateSource daily climate records as <parcel_id>.json
type FileClimateSource struct {
	Dir     string
	Timeout time.Duration
}

// Load reads and window-filters the daily records, date-ordered
func (s *FileClimateSource) Load(ctx context.Context, parcelID string, window model.Window) ([]model.ClimateRecord, error) {
	path := filepath.Join(s.Dir, parcelID+".json")

	data, err := readWithTimeout(ctx, path, s.Timeout)
	if err != nil {
		return nil, err
	}

	var records []model.ClimateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"climate records parse failed: %v", err).WithDetail("path", path)
	}

	out := records[:0]
	for _, r := range records {
		if len(r.Date) >= 7 && window.Contains(r.Date[:7]) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date < out[b].Date })
	return out, nil
}

// FileParcelCatalog GeoJSON-backed parcel lookup for batch use
type FileParcelCatalog struct {
	Path string
}

// GetParcel finds a feature by its id property and builds the parcel.
// A declared area off the geodesic area by more than 0.5% is rejected.
func (c *FileParcelCatalog) GetParcel(ctx context.Context, id string) (*model.Parcel, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"parcel catalog unavailable: %v", err).WithDetail("path", c.Path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"parcel catalog parse failed: %v", err).WithDetail("path", c.Path)
	}

	for _, f := range fc.Features {
		if prop(f.Properties, "id") != id {
			continue
		}
		geom := f.Geometry
		derived := geoutil.AreaHa(geom)
		p := &model.Parcel{
			ID:              id,
			Name:            prop(f.Properties, "name"),
			Geometry:        geojson.NewGeometry(geom),
			AreaHa:          math.Round(derived*100) / 100,
			CropType:        prop(f.Properties, "crop_type"),
			ExternalFieldID: prop(f.Properties, "external_field_id"),
		}
		if declared, ok := f.Properties["area_ha"].(float64); ok && declared > 0 {
			if math.Abs(declared-derived)/derived > areaToleranceFrac {
				return nil, errorutil.Newf(errorutil.KindGeometryMismatch,
					"declared area %.2f ha deviates from geometry area %.2f ha", declared, derived).
					WithDetail("parcel_id", id)
			}
		}
		if p.CropType == "" {
			p.CropType = "general"
		}
		return p, nil
	}
	return nil, errorutil.Newf(errorutil.KindInputUnavailable, "parcel not found: %s", id)
}

func prop(props geojson.Properties, key string) string {
	if v, ok := props[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// readWithTimeout bounded file read; a timeout fails the diagnosis
// with InputUnavailable, never a partial result.
func readWithTimeout(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"read timed out: %s", path)
	case r := <-ch:
		if r.err != nil {
			return nil, errorutil.Newf(errorutil.KindInputUnavailable,
				"read failed: %v", r.err).WithDetail("path", path)
		}
		return r.data, nil
	}
}
