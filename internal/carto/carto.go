package carto

import (
	"context"
	"math"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"agrotech/diagnosis/pkg/logger"
)

// DPI all map products render at 300 DPI
const DPI = 300

// Severity draw colors
var severityColors = map[string][3]float64{
	"critical": {1.0, 0.0, 0.0},   // #FF0000
	"moderate": {1.0, 0.4, 0.0},   // #FF6600
	"mild":     {1.0, 0.667, 0.0}, // #FFAA00
}

// renderMu rendering backends are not reentrant; one figure at a time
var renderMu sync.Mutex

// Cartographer renders the four map products
type Cartographer struct {
	log      logger.Logger
	fontPath string

	fontOnce sync.Once
	fnt      *opentype.Font
}

// New creates a Cartographer. fontPath is the preferred font file; the
// bundled sans-serif is used when it is missing.
func New(log logger.Logger, fontPath string) *Cartographer {
	return &Cartographer{log: log, fontPath: fontPath}
}

// loadFont parses the preferred font once, falling back to the bundled
// face. A missing preferred font is logged, never fatal.
func (c *Cartographer) loadFont() *opentype.Font {
	c.fontOnce.Do(func() {
		if c.fontPath != "" {
			if data, err := os.ReadFile(c.fontPath); err == nil {
				if f, err := opentype.Parse(data); err == nil {
					c.fnt = f
					return
				}
			}
			c.log.Warnf(context.Background(),
				"preferred font %s unavailable, using bundled sans-serif", c.fontPath)
		}
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			// the bundled font is compiled in; parse cannot fail at runtime
			panic(err)
		}
		c.fnt = f
	})
	return c.fnt
}

// face builds a font.Face at the given point size
func (c *Cartographer) face(points float64) font.Face {
	f, err := opentype.NewFace(c.loadFont(), &opentype.FaceOptions{
		Size:    points,
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		panic(err)
	}
	return f
}

// viewport maps geo coordinates onto a canvas region
type viewport struct {
	minX, minY, maxX, maxY float64 // geo bounds
	x0, y0, w, h           float64 // canvas region in pixels
}

func newViewport(b orb.Bound, padFrac, x0, y0, w, h float64) viewport {
	padX := (b.Max[0] - b.Min[0]) * padFrac
	padY := (b.Max[1] - b.Min[1]) * padFrac
	if padX == 0 {
		padX = 0.001
	}
	if padY == 0 {
		padY = 0.001
	}
	return viewport{
		minX: b.Min[0] - padX, maxX: b.Max[0] + padX,
		minY: b.Min[1] - padY, maxY: b.Max[1] + padY,
		x0: x0, y0: y0, w: w, h: h,
	}
}

// pt projects lon/lat to canvas pixels (y grows downward)
func (v viewport) pt(lon, lat float64) (x, y float64) {
	x = v.x0 + (lon-v.minX)/(v.maxX-v.minX)*v.w
	y = v.y0 + (v.maxY-lat)/(v.maxY-v.minY)*v.h
	return x, y
}

// widthKm approximate map width in kilometres at the viewport centre
func (v viewport) widthKm() float64 {
	return (v.maxX - v.minX) * 111
}

// drawGeometry strokes/fills a polygonal geometry through the viewport
func drawGeometry(dc *gg.Context, v viewport, g orb.Geometry) {
	switch geom := g.(type) {
	case orb.Polygon:
		drawPolygon(dc, v, geom)
	case orb.MultiPolygon:
		for _, p := range geom {
			drawPolygon(dc, v, p)
		}
	}
}

func drawPolygon(dc *gg.Context, v viewport, p orb.Polygon) {
	for _, ring := range p {
		for i, pt := range ring {
			x, y := v.pt(pt[0], pt[1])
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	}
}

// drawStar five-point star marker centred at (cx, cy)
func drawStar(dc *gg.Context, cx, cy, outer float64) {
	inner := outer * 0.4
	for i := 0; i < 10; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := float64(i)*gg.Radians(36) - gg.Radians(90)
		x := cx + r*math.Cos(a)
		y := cy + r*math.Sin(a)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}
