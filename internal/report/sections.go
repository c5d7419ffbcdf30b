package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"

	"agrotech/diagnosis/internal/model"
)

// layoutSection dispatches one declared middle section
func (c *Composer) layoutSection(pdf *fpdf.Fpdf, section string, in Inputs, rendered map[string]string) {
	switch section {
	case "trends":
		c.trendsSection(pdf, in, rendered)
	case "irrigation_recommendations":
		c.irrigationSection(pdf, in.Bundle)
	case "statistics":
		c.statisticsSection(pdf, in.Bundle)
	case "climate":
		c.climateSection(pdf, in.Bundle)
	case "legal":
		c.legalSection(pdf, in.Bundle)
	case "timeline_grid":
		c.timelineSection(pdf, in.Bundle)
	case "intervention_map":
		c.interventionSection(pdf, in.Bundle, rendered)
	}
}

// trendsSection per-index panels plus the anomaly table
func (c *Composer) trendsSection(pdf *fpdf.Fpdf, in Inputs, rendered map[string]string) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	c.heading(pdf, c.t("sec_trends"))

	for _, index := range c.cfg.Indices {
		if path, ok := rendered["index_"+index]; ok {
			c.embedImage(pdf, path, 120)
		} else if _, wanted := in.Composites[index]; wanted {
			c.placeholder(pdf)
		}
	}

	if c.cfg.DetailLevel == "executive" {
		return
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr(c.t("anomalies")), "", 1, "L", false, 0, "")
	if len(in.Bundle.Anomalies) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, tr(c.t("no_anomalies")), "", 1, "L", false, 0, "")
		return
	}
	pdf.SetFont("Helvetica", "B", 9)
	headers := []string{c.t("period"), c.t("index"), c.t("kind"), c.t("magnitude"), c.t("confidence")}
	widths := []float64{30, 25, 45, 30, 30}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, a := range in.Bundle.Anomalies {
		pdf.CellFormat(widths[0], 6, a.Period, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, strings.ToUpper(a.Index), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, a.Kind, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.3f", a.Magnitude), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", a.Confidence), "1", 1, "R", false, 0, "")
	}
}

// irrigationSection action list when water stress was diagnosed
func (c *Composer) irrigationSection(pdf *fpdf.Fpdf, b *model.DiagnosisBundle) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	c.heading(pdf, c.t("sec_irrigation"))

	pdf.SetFont("Helvetica", "", 10)
	if len(b.KPIs.WaterStressMonths) > 0 {
		pdf.CellFormat(0, 7, tr(c.t("kpi_stress")+": "+strings.Join(b.KPIs.WaterStressMonths, ", ")), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	for _, z := range b.Zones {
		if z.Cause != model.CauseWaterStress {
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s %d - %s (%.2f ha)", c.t("zone"), z.Priority, z.Label, z.AreaHa)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for i, rec := range z.Recommendations {
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("  %d. %s", i+1, rec)), "", "L", false)
		}
		pdf.Ln(2)
	}
}

// statisticsSection per-index monthly aggregate tables
func (c *Composer) statisticsSection(pdf *fpdf.Fpdf, b *model.DiagnosisBundle) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	c.heading(pdf, c.t("sec_statistics"))

	pdf.SetFont("Helvetica", "B", 9)
	headers := []string{c.t("period"), c.t("index"), c.t("mean"), "P10", "P50", "P90", c.t("valid"), c.t("scenes")}
	widths := []float64{25, 20, 22, 22, 22, 22, 25, 20}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, a := range b.Aggregates {
		pdf.CellFormat(widths[0], 6, a.Period, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, strings.ToUpper(a.Index), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.3f", a.Mean), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.3f", a.P10), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.3f", a.P50), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, fmt.Sprintf("%.3f", a.P90), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, fmt.Sprintf("%.0f%%", a.ValidFraction*100), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[7], 6, fmt.Sprintf("%d", a.NAcquisitions), "1", 1, "R", false, 0, "")
	}

	if c.showQualityAppendix() {
		c.qualityAppendix(pdf, b)
	}
}

// qualityAppendix per-acquisition quality table at technical depth
func (c *Composer) qualityAppendix(pdf *fpdf.Fpdf, b *model.DiagnosisBundle) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr(c.t("quality_appendix")), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	headers := []string{"view_id", c.t("period"), c.t("cloud"), c.t("valid"), c.t("grade"), c.t("used")}
	widths := []float64{45, 28, 24, 26, 30, 20}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, q := range b.Quality {
		used := c.t("no")
		if q.Used {
			used = c.t("yes")
		}
		pdf.CellFormat(widths[0], 6, q.ViewID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, q.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.0f%%", q.CloudFraction*100), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.0f%%", q.ValidFraction*100), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, q.Grade, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[5], 6, tr(used), "1", 1, "C", false, 0, "")
	}
}

// climateSection monthly climate table
func (c *Composer) climateSection(pdf *fpdf.Fpdf, b *model.DiagnosisBundle) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	c.heading(pdf, c.t("sec_climate"))

	if len(b.Climate) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, tr(c.t("no_climate")), "", 1, "L", false, 0, "")
		return
	}
	pdf.SetFont("Helvetica", "B", 9)
	headers := []string{c.t("period"), c.t("precip"), c.t("tmean"), c.t("tmax"), c.t("tmin")}
	widths := []float64{30, 42, 35, 35, 35}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, m := range b.Climate {
		pdf.CellFormat(widths[0], 6, m.Period, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.1f", m.PrecipitationMM), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.1f", m.TMeanC), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.1f", m.TMaxC), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.1f", m.TMinC), "1", 1, "R", false, 0, "")
	}
}

// legalSection findings table plus setback statuses
func (c *Composer) legalSection(pdf *fpdf.Fpdf, b *model.DiagnosisBundle) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	c.heading(pdf, c.t("sec_legal"))

	pdf.SetFont("Helvetica", "B", 9)
	headers := []string{c.t("layer"), c.t("kind"), c.t("intersects"), c.t("area"), c.t("fraction"), c.t("legal_conf")}
	widths := []float64{42, 40, 25, 25, 25, 25}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, f := range b.Legal {
		yes := c.t("no")
		if f.Intersects {
			yes = c.t("yes")
		}
		pdf.CellFormat(widths[0], 6, tr(f.Layer), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, f.Kind, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, tr(yes), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.2f ha", f.AreaHa), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.1f%%", f.Fraction*100), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, f.Confidence, "1", 1, "C", false, 0, "")
	}

	for _, f := range b.Legal {
		if len(f.Setbacks) == 0 {
			continue
		}
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 7, tr(c.t("setbacks")+" - "+f.Layer), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, class := range sortedKeys(f.Setbacks) {
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("  %s: %s", class, f.Setbacks[class])), "", 1, "L", false, 0, "")
		}
	}
}

// timelineSection month-by-index grid of means
func (c *Composer) timelineSection(pdf *fpdf.Fpdf, b *model.DiagnosisBundle) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	c.heading(pdf, c.t("sec_timeline"))

	means := make(map[string]map[string]float64) // period -> index -> mean
	for _, a := range b.Aggregates {
		if means[a.Period] == nil {
			means[a.Period] = make(map[string]float64)
		}
		means[a.Period][a.Index] = a.Mean
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(30, 7, tr(c.t("period")), "1", 0, "C", false, 0, "")
	for _, index := range c.cfg.Indices {
		pdf.CellFormat(30, 7, strings.ToUpper(index), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, period := range b.Window.Months() {
		row, ok := means[period]
		if !ok {
			continue
		}
		pdf.CellFormat(30, 6, period, "1", 0, "C", false, 0, "")
		for _, index := range c.cfg.Indices {
			cell := "-"
			if v, ok := row[index]; ok {
				cell = fmt.Sprintf("%.3f", v)
			}
			pdf.CellFormat(30, 6, cell, "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// interventionSection inline intervention map for the middle pages
func (c *Composer) interventionSection(pdf *fpdf.Fpdf, b *model.DiagnosisBundle, rendered map[string]string) {
	pdf.AddPage()
	c.heading(pdf, c.t("sec_intervention"))
	if path, ok := rendered["intervention"]; ok {
		c.embedImage(pdf, path, 160)
	} else {
		c.placeholder(pdf)
	}
}

// finalPage fixed last page: intervention map plus the ordered action
// list of the top zones
func (c *Composer) finalPage(pdf *fpdf.Fpdf, b *model.DiagnosisBundle, rendered map[string]string) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	c.heading(pdf, c.t("sec_intervention"))

	if path, ok := rendered["intervention"]; ok {
		c.embedImage(pdf, path, 130)
	} else {
		c.placeholder(pdf)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr(c.t("actions")), "", 1, "L", false, 0, "")
	if len(b.Zones) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, tr(c.t("no_zones")), "", 1, "L", false, 0, "")
		return
	}

	top := b.Zones
	if len(top) > 3 {
		top = top[:3]
	}
	for _, z := range top {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s %d - %s (%s, %.2f ha)",
			c.t("zone"), z.Priority, z.Label, z.Severity, z.AreaHa)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for i, rec := range z.Recommendations {
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("  %d. %s", i+1, rec)), "", "L", false)
		}
		pdf.Ln(1)
	}
}

// embedImage centred image with the given width in millimetres
func (c *Composer) embedImage(pdf *fpdf.Fpdf, path string, widthMM float64) {
	pageW, _ := pdf.GetPageSize()
	x := (pageW - widthMM) / 2
	pdf.ImageOptions(path, x, pdf.GetY(), widthMM, 0, true,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.Ln(4)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
