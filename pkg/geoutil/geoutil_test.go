package geoutil

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// north-up grid, 0.0001 degree pixels, origin at (0,0)
var testTransform = Transform{0, 0.0001, 0, 0, 0, -0.0001}

func TestPixelToGeoRoundTrip(t *testing.T) {
	x, y := testTransform.PixelToGeo(10, 20)
	assert.InDelta(t, 0.001, x, 1e-12)
	assert.InDelta(t, -0.002, y, 1e-12)

	col, row := testTransform.GeoToPixel(x, y)
	assert.InDelta(t, 10, col, 1e-9)
	assert.InDelta(t, 20, row, 1e-9)
}

func TestPixelCenter(t *testing.T) {
	x, y := testTransform.PixelCenter(0, 0)
	assert.InDelta(t, 0.00005, x, 1e-12)
	assert.InDelta(t, -0.00005, y, 1e-12)
}

func TestAlignedWith(t *testing.T) {
	assert.True(t, testTransform.AlignedWith(testTransform, 0.1))

	// shifted by half a pixel
	shifted := testTransform
	shifted[0] += 0.00005
	assert.False(t, testTransform.AlignedWith(shifted, 0.1))

	// shifted well below tolerance
	nudged := testTransform
	nudged[0] += 0.000001
	assert.True(t, testTransform.AlignedWith(nudged, 0.1))
}

func TestPixelAreaHaAtEquator(t *testing.T) {
	// 0.0001 deg ~ 11.1 m, one pixel ~ 0.0123 ha
	areaHa := testTransform.PixelAreaHa(0)
	assert.InDelta(t, 0.0123, areaHa, 0.0005)
}

func TestContains(t *testing.T) {
	poly := orb.Polygon{orb.Ring{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}}
	assert.True(t, Contains(poly, orb.Point{0.005, 0.005}))
	assert.False(t, Contains(poly, orb.Point{0.02, 0.005}))

	// interior rings are holes
	holed := orb.Polygon{
		poly[0],
		orb.Ring{{0.004, 0.004}, {0.006, 0.004}, {0.006, 0.006}, {0.004, 0.006}, {0.004, 0.004}},
	}
	assert.False(t, Contains(holed, orb.Point{0.005, 0.005}))
}

func TestDistanceMeters(t *testing.T) {
	// one degree of latitude
	d := DistanceMeters(orb.Point{0, 0}, orb.Point{0, 1})
	assert.InDelta(t, MetersPerDegreeLat, d, 1)
}

func TestMinDistanceMeters(t *testing.T) {
	poly := orb.Polygon{orb.Ring{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}}
	// vertical line 0.0001 deg west of the boundary, ~11 m away
	line := orb.LineString{{-0.0001, 0}, {-0.0001, 0.01}}
	d := MinDistanceMeters(poly, line)
	assert.InDelta(t, 11.1, d, 0.5)
}

func TestMinDistanceMetersCrossing(t *testing.T) {
	poly := orb.Polygon{orb.Ring{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}}
	// stream running straight through the parcel, both vertices outside
	line := orb.LineString{{-0.005, 0.005}, {0.015, 0.005}}
	assert.Zero(t, MinDistanceMeters(poly, line))
}

func TestMinDistanceMetersInteriorLine(t *testing.T) {
	poly := orb.Polygon{orb.Ring{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}}
	line := orb.LineString{{0.002, 0.005}, {0.008, 0.005}}
	assert.Zero(t, MinDistanceMeters(poly, line))
}

func TestIntersectOverlap(t *testing.T) {
	a := orb.Polygon{orb.Ring{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0}}}
	b := orb.Polygon{orb.Ring{{0.005, 0}, {0.015, 0}, {0.015, 0.01}, {0.005, 0.01}, {0.005, 0}}}

	clipped, err := Intersect(a, b)
	require.NoError(t, err)
	require.NotNil(t, clipped)
	assert.InDelta(t, AreaHa(a)/2, AreaHa(clipped), AreaHa(a)*0.01)
}

func TestIntersectDisjoint(t *testing.T) {
	a := orb.Polygon{orb.Ring{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0}}}
	b := orb.Polygon{orb.Ring{{1, 1}, {1.01, 1}, {1.01, 1.01}, {1, 1.01}, {1, 1}}}

	clipped, err := Intersect(a, b)
	require.NoError(t, err)
	assert.Nil(t, clipped)
}
