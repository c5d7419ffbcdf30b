package geoutil

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// MetersPerDegreeLat metres per degree of latitude (spherical approximation)
const MetersPerDegreeLat = 111000.0

// Transform affine geotransform in GDAL order:
// originX, pixelWidth, rotX, originY, rotY, pixelHeight (pixelHeight < 0 for north-up).
type Transform [6]float64

// PixelToGeo maps a pixel coordinate to the geo coordinate of its top-left corner
func (t Transform) PixelToGeo(col, row float64) (x, y float64) {
	x = t[0] + col*t[1] + row*t[2]
	y = t[3] + col*t[4] + row*t[5]
	return x, y
}

// PixelCenter maps a pixel index to the geo coordinate of its centre
func (t Transform) PixelCenter(col, row int) (x, y float64) {
	return t.PixelToGeo(float64(col)+0.5, float64(row)+0.5)
}

// GeoToPixel maps a geo coordinate to fractional pixel coordinates.
// Assumes an axis-aligned grid (no rotation terms).
func (t Transform) GeoToPixel(x, y float64) (col, row float64) {
	col = (x - t[0]) / t[1]
	row = (y - t[3]) / t[5]
	return col, row
}

// PixelSize returns the absolute pixel width and height in grid units
func (t Transform) PixelSize() (w, h float64) {
	return math.Abs(t[1]), math.Abs(t[5])
}

// Rotated reports whether the grid has rotation terms
func (t Transform) Rotated() bool {
	return t[2] != 0 || t[4] != 0
}

// AlignedWith reports whether two grids share origin and resolution
// within tolPx pixels.
func (t Transform) AlignedWith(o Transform, tolPx float64) bool {
	w, h := t.PixelSize()
	if w == 0 || h == 0 {
		return false
	}
	if math.Abs(t[1]-o[1]) > tolPx*w || math.Abs(t[5]-o[5]) > tolPx*h {
		return false
	}
	if math.Abs(t[0]-o[0]) > tolPx*w || math.Abs(t[3]-o[3]) > tolPx*h {
		return false
	}
	return true
}

// PixelAreaHa approximate geodesic area of one pixel, in hectares,
// at the given latitude (degrees). Grid units must be degrees.
func (t Transform) PixelAreaHa(lat float64) float64 {
	w, h := t.PixelSize()
	mPerDegLon := MetersPerDegreeLat * math.Cos(lat*math.Pi/180)
	return (w * mPerDegLon) * (h * MetersPerDegreeLat) / 10000.0
}

// AreaHa geodesic area of a geometry in hectares
func AreaHa(g orb.Geometry) float64 {
	return math.Abs(geo.Area(g)) / 10000.0
}

// Centroid area-weighted centroid of a geometry
func Centroid(g orb.Geometry) orb.Point {
	c, _ := planar.CentroidArea(g)
	return c
}

// Contains pixel-centre test against polygon or multipolygon geometry,
// interior rings excluded.
func Contains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	default:
		return false
	}
}

// DistanceMeters approximate distance between two lon/lat points in metres
func DistanceMeters(a, b orb.Point) float64 {
	midLat := (a[1] + b[1]) / 2
	dx := (b[0] - a[0]) * MetersPerDegreeLat * math.Cos(midLat*math.Pi/180)
	dy := (b[1] - a[1]) * MetersPerDegreeLat
	return math.Hypot(dx, dy)
}

// pointSegmentDistance metres from p to segment ab
func pointSegmentDistance(p, a, b orb.Point) float64 {
	abx := b[0] - a[0]
	aby := b[1] - a[1]
	apx := p[0] - a[0]
	apy := p[1] - a[1]
	denom := abx*abx + aby*aby
	t := 0.0
	if denom > 0 {
		t = (apx*abx + apy*aby) / denom
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	closest := orb.Point{a[0] + t*abx, a[1] + t*aby}
	return DistanceMeters(p, closest)
}

// MinDistanceMeters minimum distance between a geometry and a line
// string, in metres. A line that enters or crosses the geometry is at
// distance zero. Used for setback checks; exact geodesics are
// unnecessary at the 30..100 m scales involved.
func MinDistanceMeters(g orb.Geometry, line orb.LineString) float64 {
	for _, p := range line {
		if Contains(g, p) {
			return 0
		}
	}
	rings := boundaryRings(g)
	min := math.Inf(1)
	for _, ring := range rings {
		for i := 0; i+1 < len(ring); i++ {
			for j := 0; j+1 < len(line); j++ {
				d := segmentSegmentDistance(ring[i], ring[i+1], line[j], line[j+1])
				if d < min {
					min = d
				}
			}
		}
	}
	return min
}

func segmentSegmentDistance(a1, a2, b1, b2 orb.Point) float64 {
	if segmentsIntersect(a1, a2, b1, b2) {
		return 0
	}
	d := pointSegmentDistance(a1, b1, b2)
	if v := pointSegmentDistance(a2, b1, b2); v < d {
		d = v
	}
	if v := pointSegmentDistance(b1, a1, a2); v < d {
		d = v
	}
	if v := pointSegmentDistance(b2, a1, a2); v < d {
		d = v
	}
	return d
}

// segmentsIntersect orientation test covering proper crossings and
// collinear touches
func segmentsIntersect(a1, a2, b1, b2 orb.Point) bool {
	d1 := crossSign(b1, b2, a1)
	d2 := crossSign(b1, b2, a2)
	d3 := crossSign(a1, a2, b1)
	d4 := crossSign(a1, a2, b2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && inSegmentBox(b1, b2, a1)) ||
		(d2 == 0 && inSegmentBox(b1, b2, a2)) ||
		(d3 == 0 && inSegmentBox(a1, a2, b1)) ||
		(d4 == 0 && inSegmentBox(a1, a2, b2))
}

// crossSign z of the cross product (a-o) x (b-o)
func crossSign(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// inSegmentBox p lies inside the bounding box of segment ab; only
// meaningful once p is known collinear with ab
func inSegmentBox(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

func boundaryRings(g orb.Geometry) []orb.Ring {
	switch geom := g.(type) {
	case orb.Polygon:
		return geom
	case orb.MultiPolygon:
		var rings []orb.Ring
		for _, poly := range geom {
			rings = append(rings, poly...)
		}
		return rings
	default:
		return nil
	}
}
