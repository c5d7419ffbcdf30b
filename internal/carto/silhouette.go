package carto

import (
	"fmt"

	"github.com/fogleman/gg"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/errorutil"
)

// RenderSilhouette draws the clean parcel outline: the polygon alone
// on white, a minimalist title with the area, and a subtle dotted grid.
func (c *Cartographer) RenderSilhouette(path string, parcel model.Parcel, lang string) error {
	renderMu.Lock()
	defer renderMu.Unlock()

	const W, H = 3000, 2400
	dc := gg.NewContext(W, H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	geom := parcel.Geometry.Geometry()
	v := newViewport(geom.Bound(), 0.12, 300, 300, W-500, H-640)

	c.drawGrid(dc, v, false)

	drawGeometry(dc, v, geom)
	dc.SetRGBA(0.565, 0.933, 0.565, 0.6) // #90EE90
	dc.FillPreserve()
	dc.SetRGB(0.0, 0.392, 0.0)
	dc.SetLineWidth(9)
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(c.face(14))
	dc.DrawStringAnchored(parcel.Name, W/2, 110, 0.5, 0.5)
	dc.SetFontFace(c.face(11))
	dc.DrawStringAnchored(fmt.Sprintf(text(lang, "area"), parcel.AreaHa), W/2, 200, 0.5, 0.5)

	dc.SetFontFace(c.face(10))
	dc.DrawStringAnchored(text(lang, "longitude"), W/2, float64(H)-70, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 100, H/2)
	dc.DrawStringAnchored(text(lang, "latitude"), 100, H/2, 0.5, 0.5)
	dc.Pop()

	if err := dc.SavePNG(path); err != nil {
		return errorutil.Newf(errorutil.KindMapRenderDegraded, "save silhouette map: %v", err)
	}
	return nil
}
