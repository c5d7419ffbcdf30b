package carto

import (
	"fmt"
	"math"
	"strconv"

	"github.com/fogleman/gg"

	"agrotech/diagnosis/internal/analysis/raster"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/errorutil"
)

// Grayscale compression for the NDVI background
const (
	bgClipLow      = 0.2
	bgClipHigh     = 0.9
	bgContrastGain = 0.7
	bgContrastBias = 0.2
)

// RenderIntervention draws the georeferenced intervention map: the
// monthly median NDVI as a compressed grayscale background, one thick
// severity-coloured rectangle per zone with a numbered circle at its
// centroid, and a double dashed red ring on the priority-1 zone.
// Axes are hidden; a compact legend lists counts per severity.
func (c *Cartographer) RenderIntervention(path string, comp *raster.Masked, zs []model.CriticalZone, period, lang string) error {
	renderMu.Lock()
	defer renderMu.Unlock()

	const W, H = 2400, 2400
	dc := gg.NewContext(W, H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// fit the grid into the plot area preserving aspect
	const x0, y0, pw, ph = 150.0, 220.0, 2100.0, 1900.0
	cell := math.Min(pw/float64(comp.Width), ph/float64(comp.Height))
	gx := x0 + (pw-cell*float64(comp.Width))/2
	gy := y0 + (ph-cell*float64(comp.Height))/2

	for row := 0; row < comp.Height; row++ {
		for col := 0; col < comp.Width; col++ {
			i := row*comp.Width + col
			if !comp.Inside[i] {
				continue
			}
			var gray float64
			if comp.Valid(col, row) {
				v := clamp(comp.At(col, row), bgClipLow, bgClipHigh)
				norm := (v - bgClipLow) / (bgClipHigh - bgClipLow)
				gray = norm*bgContrastGain + bgContrastBias
			} else {
				gray = 0.9
			}
			dc.SetRGB(gray, gray, gray)
			dc.DrawRectangle(gx+float64(col)*cell, gy+float64(row)*cell, cell+0.5, cell+0.5)
			dc.Fill()
		}
	}

	// zone rectangles and numbered markers
	for _, z := range zs {
		col := severityColors[z.Severity]
		rx := gx + float64(z.BBoxPixel[0])*cell
		ry := gy + float64(z.BBoxPixel[1])*cell
		rw := float64(z.BBoxPixel[2]-z.BBoxPixel[0]+1) * cell
		rh := float64(z.BBoxPixel[3]-z.BBoxPixel[1]+1) * cell

		dc.SetRGB(col[0], col[1], col[2])
		dc.SetLineWidth(12)
		dc.DrawRectangle(rx, ry, rw, rh)
		dc.Stroke()

		cx := gx + (float64(z.CentroidCol)+0.5)*cell
		cy := gy + (float64(z.CentroidRow)+0.5)*cell

		if z.Priority == 1 {
			dc.SetRGB(1, 0, 0)
			dc.SetLineWidth(7)
			dc.SetDash(20, 14)
			dc.DrawCircle(cx, cy, 78)
			dc.Stroke()
			dc.DrawCircle(cx, cy, 96)
			dc.Stroke()
			dc.SetDash()

			dc.SetFontFace(c.face(10))
			dc.DrawStringAnchored(text(lang, "priority_tag"), cx, cy-130, 0.5, 1)
		}

		dc.SetRGB(col[0], col[1], col[2])
		dc.DrawCircle(cx, cy, 40)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.SetFontFace(c.face(10))
		dc.DrawStringAnchored(strconv.Itoa(z.Priority), cx, cy, 0.5, 0.4)
	}

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(c.face(13))
	dc.DrawStringAnchored(fmt.Sprintf(text(lang, "interv_title"), period), W/2, 110, 0.5, 0.5)

	// severity counts legend
	nc, nm, nl := 0, 0, 0
	for _, z := range zs {
		switch z.Severity {
		case model.SeverityCritical:
			nc++
		case model.SeverityModerate:
			nm++
		case model.SeverityMild:
			nl++
		}
	}
	dc.SetFontFace(c.face(9))
	dc.DrawStringAnchored(fmt.Sprintf(text(lang, "zones_legend"), nc, nm, nl), W/2, float64(H)-90, 0.5, 0.5)

	if err := dc.SavePNG(path); err != nil {
		return errorutil.Newf(errorutil.KindMapRenderDegraded, "save intervention map: %v", err)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
