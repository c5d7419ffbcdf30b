package raster

import (
	"math"

	"github.com/paulmach/orb"

	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/geoutil"
)

// MinCoveragePixels minimum parcel pixels for a usable diagnosis
const MinCoveragePixels = 25

// alignTolerancePx grid origin/resolution tolerance in pixels
const alignTolerancePx = 0.1

// Raster single-band grid in EPSG:4326
type Raster struct {
	Index     string
	Width     int
	Height    int
	Data      []float64 // row-major
	Transform geoutil.Transform
	CRS       string
	NoData    float64
	HasNoData bool
}

// At returns the value at (col,row); callers must bound-check
func (r *Raster) At(col, row int) float64 {
	return r.Data[row*r.Width+col]
}

// Valid reports whether the pixel carries a usable value
func (r *Raster) Valid(col, row int) bool {
	v := r.At(col, row)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if r.HasNoData && v == r.NoData {
		return false
	}
	return true
}

// Bound returns the grid extent in geo coordinates
func (r *Raster) Bound() orb.Bound {
	x0, y0 := r.Transform.PixelToGeo(0, 0)
	x1, y1 := r.Transform.PixelToGeo(float64(r.Width), float64(r.Height))
	return orb.Bound{
		Min: orb.Point{math.Min(x0, x1), math.Min(y0, y1)},
		Max: orb.Point{math.Max(x0, x1), math.Max(y0, y1)},
	}
}

// Masked a raster restricted to the pixels whose centre falls inside
// the parcel geometry (interior ring holes excluded).
type Masked struct {
	*Raster
	Inside      []bool
	InsideCount int
}

// ValidFraction share of parcel pixels carrying a usable value
func (m *Masked) ValidFraction() float64 {
	if m.InsideCount == 0 {
		return 0
	}
	valid := 0
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			if m.Inside[row*m.Width+col] && m.Valid(col, row) {
				valid++
			}
		}
	}
	return float64(valid) / float64(m.InsideCount)
}

// ValidValues collects the usable parcel-pixel values in scan order
func (m *Masked) ValidValues() []float64 {
	out := make([]float64, 0, m.InsideCount)
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			if m.Inside[row*m.Width+col] && m.Valid(col, row) {
				out = append(out, m.At(col, row))
			}
		}
	}
	return out
}

// MaskToParcel rasterizes the parcel geometry onto the grid. A pixel
// belongs to the parcel when its centre lies inside the geometry.
// Fails with GeometryMismatch when the footprints do not overlap and
// InsufficientCoverage when fewer than MinCoveragePixels remain.
func MaskToParcel(r *Raster, geom orb.Geometry) (*Masked, error) {
	if geom == nil {
		return nil, errorutil.New(errorutil.KindGeometryMismatch, "parcel geometry is empty")
	}

	gb := geom.Bound()
	if !r.Bound().Intersects(gb) {
		return nil, errorutil.New(errorutil.KindGeometryMismatch,
			"parcel geometry does not overlap the raster footprint").
			WithDetail("raster_index", r.Index)
	}

	// restrict the centre tests to the geometry's pixel window
	minCol, minRow := r.Transform.GeoToPixel(gb.Min[0], gb.Max[1])
	maxCol, maxRow := r.Transform.GeoToPixel(gb.Max[0], gb.Min[1])
	c0 := clampInt(int(math.Floor(minCol)), 0, r.Width)
	r0 := clampInt(int(math.Floor(minRow)), 0, r.Height)
	c1 := clampInt(int(math.Ceil(maxCol))+1, 0, r.Width)
	r1 := clampInt(int(math.Ceil(maxRow))+1, 0, r.Height)

	inside := make([]bool, r.Width*r.Height)
	count := 0
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			x, y := r.Transform.PixelCenter(col, row)
			if geoutil.Contains(geom, orb.Point{x, y}) {
				inside[row*r.Width+col] = true
				count++
			}
		}
	}

	if count < MinCoveragePixels {
		return nil, errorutil.Newf(errorutil.KindInsufficientCoverage,
			"parcel covers %d pixels, need at least %d", count, MinCoveragePixels).
			WithDetail("raster_index", r.Index)
	}

	return &Masked{Raster: r, Inside: inside, InsideCount: count}, nil
}

// AlignStack verifies that every raster shares grid, extent and CRS
// within tolerance. Misaligned stacks never get silently resampled.
func AlignStack(rs []*Raster) error {
	if len(rs) < 2 {
		return nil
	}
	ref := rs[0]
	for _, r := range rs[1:] {
		if r.CRS != ref.CRS {
			return errorutil.Newf(errorutil.KindGridMisalignment,
				"CRS mismatch: %s vs %s", r.CRS, ref.CRS).
				WithDetail("raster_index", r.Index)
		}
		if r.Width != ref.Width || r.Height != ref.Height {
			return errorutil.Newf(errorutil.KindGridMisalignment,
				"grid size mismatch: %dx%d vs %dx%d", r.Width, r.Height, ref.Width, ref.Height).
				WithDetail("raster_index", r.Index)
		}
		if !r.Transform.AlignedWith(ref.Transform, alignTolerancePx) {
			return errorutil.New(errorutil.KindGridMisalignment,
				"grid origin/resolution differs beyond 0.1 pixel").
				WithDetail("raster_index", r.Index)
		}
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
