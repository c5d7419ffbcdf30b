package carto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleBarFor(t *testing.T) {
	cases := []struct {
		widthKm float64
		label   string
		lengthM float64
	}{
		{0.4, "100 m", 100},
		{0.99, "100 m", 100},
		{1.0, "500 m", 500},
		{4.9, "500 m", 500},
		{5.0, "1 km", 1000},
		{9.9, "1 km", 1000},
		{10.0, "5 km", 5000},
		{50.0, "5 km", 5000},
	}
	for _, c := range cases {
		label, length := ScaleBarFor(c.widthKm)
		assert.Equal(t, c.label, label, "width %.2f", c.widthKm)
		assert.Equal(t, c.lengthM, length, "width %.2f", c.widthKm)
	}
}

func TestPaletteForFallsBackToSAVI(t *testing.T) {
	savi := PaletteFor("savi")
	msavi := PaletteFor("msavi")
	assert.Equal(t, savi.Breakpoints, msavi.Breakpoints)

	r1, g1, b1 := savi.Color(0.5)
	r2, g2, b2 := msavi.Color(0.5)
	assert.Equal(t, r1, r2)
	assert.Equal(t, g1, g2)
	assert.Equal(t, b1, b2)
}

func TestColorClampsAtRampEnds(t *testing.T) {
	p := PaletteFor("ndvi")

	r, g, b := p.Color(-2)
	assert.InDelta(t, 0.647, r, 1e-6)
	assert.InDelta(t, 0.0, g, 1e-6)
	assert.InDelta(t, 0.149, b, 1e-6)

	r, g, b = p.Color(2)
	assert.InDelta(t, 0.0, r, 1e-6)
	assert.InDelta(t, 0.408, g, 1e-6)
	assert.InDelta(t, 0.216, b, 1e-6)
}

func TestColorInterpolatesBetweenStops(t *testing.T) {
	p := PaletteFor("ndvi")

	// midway between the 0.5 and 0.7 anchors
	r, _, _ := p.Color(0.6)
	assert.InDelta(t, (0.651+0.102)/2, r, 1e-6)
}
