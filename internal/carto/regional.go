package carto

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/geoutil"
)

// RenderRegional draws the departmental context map: the enclosing
// region as a filled rectangle, the parcel centroid as a red star in
// a dashed circle, grid and legend.
func (c *Cartographer) RenderRegional(path string, parcel model.Parcel, department string, bbox []float64, lang string) error {
	renderMu.Lock()
	defer renderMu.Unlock()

	const W, H = 3000, 2400
	dc := gg.NewContext(W, H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	geom := parcel.Geometry.Geometry()
	var bound orb.Bound
	if len(bbox) == 4 {
		bound = orb.Bound{Min: orb.Point{bbox[0], bbox[1]}, Max: orb.Point{bbox[2], bbox[3]}}
	} else {
		bound = geom.Bound()
	}
	v := newViewport(bound, 0.05, 300, 280, W-480, H-600)

	c.drawGrid(dc, v, true)

	// region rectangle
	if len(bbox) == 4 {
		x0, y0 := v.pt(bbox[0], bbox[3])
		x1, y1 := v.pt(bbox[2], bbox[1])
		dc.SetRGBA(0.565, 0.933, 0.565, 0.2)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Fill()
		dc.SetRGB(0.0, 0.392, 0.0)
		dc.SetLineWidth(9)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Stroke()
	}

	// parcel centroid: red star inside a dashed circle
	centroid := geoutil.Centroid(geom)
	cx, cy := v.pt(centroid[0], centroid[1])

	circleR := 0.05 / (v.maxX - v.minX) * v.w
	dc.SetRGBA(1, 0, 0, 0.8)
	dc.SetLineWidth(6)
	dc.SetDash(24, 16)
	dc.DrawCircle(cx, cy, circleR)
	dc.Stroke()
	dc.SetDash()

	drawStar(dc, cx, cy, 46)
	dc.SetRGB(1, 0, 0)
	dc.FillPreserve()
	dc.SetRGB(0.545, 0, 0)
	dc.SetLineWidth(5)
	dc.Stroke()

	// title and axis labels
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(c.face(14))
	dc.DrawStringAnchored(fmt.Sprintf(text(lang, "regional_title"), department), W/2, 100, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf(text(lang, "location_of"), parcel.Name), W/2, 180, 0.5, 0.5)
	dc.SetFontFace(c.face(10))
	dc.DrawStringAnchored(text(lang, "longitude"), W/2, float64(H)-80, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 110, H/2)
	dc.DrawStringAnchored(text(lang, "latitude"), 110, H/2, 0.5, 0.5)
	dc.Pop()

	// legend, top right
	items := []legendItem{
		{label: fmt.Sprintf(text(lang, "region_legend"), department), r: 0.565, g: 0.933, b: 0.565},
		{label: text(lang, "parcel_legend"), r: 1, g: 0, b: 0},
	}
	c.drawLegend(dc, float64(W)-850, 330, items)

	if err := dc.SavePNG(path); err != nil {
		return errorutil.Newf(errorutil.KindMapRenderDegraded, "save regional map: %v", err)
	}
	return nil
}

type legendItem struct {
	label   string
	r, g, b float64
}

// drawLegend boxed legend with colour swatches
func (c *Cartographer) drawLegend(dc *gg.Context, x, y float64, items []legendItem) {
	const rowH, boxW = 70.0, 56.0
	w := 0.0
	dc.SetFontFace(c.face(9))
	for _, it := range items {
		if tw, _ := dc.MeasureString(it.label); tw > w {
			w = tw
		}
	}
	w += boxW + 90

	dc.SetRGBA(1, 1, 1, 0.9)
	dc.DrawRectangle(x, y, w, rowH*float64(len(items))+30)
	dc.Fill()
	dc.SetRGB(0.4, 0.4, 0.4)
	dc.SetLineWidth(3)
	dc.DrawRectangle(x, y, w, rowH*float64(len(items))+30)
	dc.Stroke()

	for i, it := range items {
		ry := y + 20 + float64(i)*rowH
		dc.SetRGB(it.r, it.g, it.b)
		dc.DrawRectangle(x+20, ry, boxW, rowH-24)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(it.label, x+boxW+50, ry+(rowH-24)/2, 0, 0.4)
	}
}

// drawGrid lon/lat graticule with tick labels; dashed when dashed=true
func (c *Cartographer) drawGrid(dc *gg.Context, v viewport, dashed bool) {
	const lines = 6
	dc.SetFontFace(c.face(8))
	if dashed {
		dc.SetDash(12, 12)
	} else {
		dc.SetDash(4, 14)
	}
	dc.SetRGBA(0.5, 0.5, 0.5, 0.3)
	dc.SetLineWidth(2)

	for i := 0; i <= lines; i++ {
		lon := v.minX + (v.maxX-v.minX)*float64(i)/lines
		x, _ := v.pt(lon, v.minY)
		dc.DrawLine(x, v.y0, x, v.y0+v.h)
		dc.Stroke()
		lat := v.minY + (v.maxY-v.minY)*float64(i)/lines
		_, y := v.pt(v.minX, lat)
		dc.DrawLine(v.x0, y, v.x0+v.w, y)
		dc.Stroke()
	}
	dc.SetDash()

	dc.SetRGB(0.2, 0.2, 0.2)
	for i := 0; i <= lines; i++ {
		lon := v.minX + (v.maxX-v.minX)*float64(i)/lines
		x, _ := v.pt(lon, v.minY)
		dc.DrawStringAnchored(fmt.Sprintf("%.3f", lon), x, v.y0+v.h+50, 0.5, 0.5)
		lat := v.minY + (v.maxY-v.minY)*float64(i)/lines
		_, y := v.pt(v.minX, lat)
		dc.DrawStringAnchored(fmt.Sprintf("%.3f", lat), v.x0-30, y, 1, 0.5)
	}
}
