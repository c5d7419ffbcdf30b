package carto

import (
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"agrotech/diagnosis/internal/analysis/indices"
	"agrotech/diagnosis/pkg/errorutil"
)

// RenderIndexMap draws one monthly composite with the per-index
// palette, a labelled colorbar and an adaptive scale bar.
func (c *Cartographer) RenderIndexMap(path string, comp *indices.Composite, lang string) error {
	renderMu.Lock()
	defer renderMu.Unlock()

	const W, H = 2400, 2000
	dc := gg.NewContext(W, H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	grid := comp.Grid
	pal := PaletteFor(comp.Index)

	const x0, y0, pw, ph = 150.0, 220.0, 1800.0, 1560.0
	cell := math.Min(pw/float64(grid.Width), ph/float64(grid.Height))
	gx := x0 + (pw-cell*float64(grid.Width))/2
	gy := y0 + (ph-cell*float64(grid.Height))/2

	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			i := row*grid.Width + col
			if !grid.Inside[i] {
				continue
			}
			if grid.Valid(col, row) {
				r, g, b := pal.Color(grid.At(col, row))
				dc.SetRGB(r, g, b)
			} else {
				dc.SetRGB(0.9, 0.9, 0.9)
			}
			dc.DrawRectangle(gx+float64(col)*cell, gy+float64(row)*cell, cell+0.5, cell+0.5)
			dc.Fill()
		}
	}

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(c.face(13))
	title := fmt.Sprintf(text(lang, "index_title"), strings.ToUpper(comp.Index), comp.Period)
	dc.DrawStringAnchored(title, W/2, 110, 0.5, 0.5)

	c.drawColorbar(dc, pal, float64(W)-330, y0, 90, ph)

	// scale bar over the map footprint
	mapBound := grid.Bound()
	v := viewport{
		minX: mapBound.Min[0], maxX: mapBound.Max[0],
		minY: mapBound.Min[1], maxY: mapBound.Max[1],
		x0: gx, y0: gy, w: cell * float64(grid.Width), h: cell * float64(grid.Height),
	}
	c.drawScaleBar(dc, v)

	if err := dc.SavePNG(path); err != nil {
		return errorutil.Newf(errorutil.KindMapRenderDegraded, "save %s map: %v", comp.Index, err)
	}
	return nil
}

// drawColorbar vertical ramp with labelled breakpoints
func (c *Cartographer) drawColorbar(dc *gg.Context, pal Palette, x, y, w, h float64) {
	lo, hi := pal.stops[0].value, pal.stops[len(pal.stops)-1].value
	steps := int(h)
	for i := 0; i < steps; i++ {
		v := hi - (hi-lo)*float64(i)/float64(steps)
		r, g, b := pal.Color(v)
		dc.SetRGB(r, g, b)
		dc.DrawRectangle(x, y+float64(i), w, 1.5)
		dc.Fill()
	}
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(3)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	dc.SetFontFace(c.face(8))
	for _, bp := range pal.Breakpoints {
		t := (hi - bp) / (hi - lo)
		ty := y + t*h
		dc.DrawLine(x+w, ty, x+w+14, ty)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", bp), x+w+24, ty, 0, 0.4)
	}
}

// drawScaleBar alternating black/white segments with a boxed label,
// bottom right of the map area
func (c *Cartographer) drawScaleBar(dc *gg.Context, v viewport) {
	label, lengthM := ScaleBarFor(v.widthKm())
	barGeoW := lengthM / 111000.0 // degrees of longitude
	barPx := barGeoW / (v.maxX - v.minX) * v.w

	const segments = 4
	xStart := v.x0 + v.w*0.75 - barPx/2
	yBase := v.y0 + v.h*0.95
	segW := barPx / segments
	barH := v.h * 0.015

	for i := 0; i < segments; i++ {
		if i%2 == 0 {
			dc.SetRGB(0, 0, 0)
		} else {
			dc.SetRGB(1, 1, 1)
		}
		dc.DrawRectangle(xStart+float64(i)*segW, yBase, segW, barH)
		dc.FillPreserve()
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	dc.SetFontFace(c.face(8))
	tw, th := dc.MeasureString(label)
	bx := xStart + barPx/2 - tw/2 - 12
	by := yBase + barH + 14
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(bx, by, tw+24, th+16)
	dc.FillPreserve()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	dc.Stroke()
	dc.DrawStringAnchored(label, xStart+barPx/2, by+th/2+8, 0.5, 0.4)
}
