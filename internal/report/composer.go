package report

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"agrotech/diagnosis/internal/analysis/indices"
	"agrotech/diagnosis/internal/analysis/raster"
	"agrotech/diagnosis/internal/carto"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/logger"
)

// Composition states
type state string

const (
	stateInit           state = "init"
	stateCollectInputs  state = "collect_inputs"
	stateRenderMaps     state = "render_maps"
	stateLayoutSections state = "layout_sections"
	stateEmitPDF        state = "emit_pdf"
)

// pdfCreationDate fixed so identical bundles compose identical PDFs
var pdfCreationDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Inputs everything the composer reads; numbers come exclusively from
// the bundle and its KPI set.
type Inputs struct {
	Bundle     *model.DiagnosisBundle
	Composites map[string]*indices.Composite // latest composite per index
	NDVIGrid   *raster.Masked                // intervention background
	Period     string                        // latest aggregated period
	Department string
	DeptBBox   []float64
	OutDir     string
}

// Result artifact paths and degradations produced by a composition
type Result struct {
	Artifacts map[string]string
	Notes     []model.Note
}

// Composer assembles the PDF dossier from a declarative section list
type Composer struct {
	log   logger.Logger
	cfg   config.ReportConfig
	maps  *carto.Cartographer
	state state
}

// NewComposer creates a Composer
func NewComposer(log logger.Logger, cfg config.ReportConfig, maps *carto.Cartographer) *Composer {
	return &Composer{log: log, cfg: cfg, maps: maps, state: stateInit}
}

// Compose runs init -> collect_inputs -> render_maps -> layout_sections
// -> emit_pdf. A failed map degrades its section to a placeholder; the
// emission still succeeds.
func (c *Composer) Compose(ctx context.Context, in Inputs) (*Result, error) {
	c.state = stateCollectInputs
	if in.Bundle == nil {
		return nil, errorutil.New(errorutil.KindInternal, "composer requires a bundle")
	}

	c.state = stateRenderMaps
	res := &Result{Artifacts: make(map[string]string)}
	rendered := c.renderMaps(ctx, in, res)

	c.state = stateLayoutSections
	pdf := c.newPDF(in.Bundle)
	c.coverPage(pdf, in.Bundle)
	c.executiveSummary(pdf, in.Bundle)
	for _, section := range c.cfg.Sections {
		c.layoutSection(pdf, section, in, rendered)
	}
	c.finalPage(pdf, in.Bundle, rendered)

	c.state = stateEmitPDF
	out := filepath.Join(in.OutDir, "report.pdf")
	if err := pdf.OutputFileAndClose(out); err != nil {
		return nil, errorutil.Newf(errorutil.KindInternal, "emit pdf: %v", err)
	}
	res.Artifacts["report"] = "report.pdf"
	return res, nil
}

// renderMaps renders every product, converting failures into bundle
// notes and placeholder sections. Returns name -> absolute path for
// the maps that rendered.
func (c *Composer) renderMaps(ctx context.Context, in Inputs, res *Result) map[string]string {
	rendered := make(map[string]string)
	mapsDir := filepath.Join(in.OutDir, "maps")

	record := func(name, rel string, err error) {
		if err != nil {
			c.log.Warnf(ctx, "map %s degraded: %v", name, err)
			res.Notes = append(res.Notes, model.Note{
				Kind:    string(errorutil.KindMapRenderDegraded),
				Message: fmt.Sprintf("%s: %v", name, err),
			})
			return
		}
		rendered[name] = filepath.Join(in.OutDir, rel)
		res.Artifacts[name] = rel
	}

	if c.includeMap("regional") {
		p := filepath.Join(mapsDir, "regional.png")
		record("regional", "maps/regional.png",
			c.maps.RenderRegional(p, in.Bundle.Parcel, in.Department, in.DeptBBox, c.cfg.Language))
	}

	if c.includeMap("silhouette") {
		p := filepath.Join(mapsDir, "silhouette.png")
		record("silhouette", "maps/silhouette.png",
			c.maps.RenderSilhouette(p, in.Bundle.Parcel, c.cfg.Language))
	}

	if in.NDVIGrid != nil {
		p := filepath.Join(mapsDir, "intervention.png")
		record("intervention", "maps/intervention.png",
			c.maps.RenderIntervention(p, in.NDVIGrid, in.Bundle.Zones, in.Period, c.cfg.Language))
	}

	for _, index := range c.cfg.Indices {
		comp, ok := in.Composites[index]
		if !ok {
			continue
		}
		yyyymm := strings.ReplaceAll(comp.Period, "-", "")
		rel := fmt.Sprintf("maps/index_%s_%s.png", index, yyyymm)
		p := filepath.Join(in.OutDir, rel)
		record("index_"+index, rel, c.maps.RenderIndexMap(p, comp, c.cfg.Language))
	}

	return rendered
}

func (c *Composer) newPDF(b *model.DiagnosisBundle) *fpdf.Fpdf {
	orient := "P"
	if c.cfg.Orientation == "landscape" {
		orient = "L"
	}
	pdf := fpdf.New(orient, "mm", "A4", "")
	pdf.SetCreationDate(pdfCreationDate)
	pdf.SetTitle(c.t("title")+" - "+b.Parcel.Name, true)
	pdf.SetAutoPageBreak(true, 18)
	return pdf
}

// coverPage fixed first page
func (c *Composer) coverPage(pdf *fpdf.Fpdf, b *model.DiagnosisBundle) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetY(60)
	pdf.CellFormat(0, 12, tr(c.t("title")), "", 1, "C", false, 0, "")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 13)
	rows := [][2]string{
		{c.t("parcel"), b.Parcel.Name},
		{c.t("window"), b.Window.String()},
		{c.t("crop"), b.Parcel.CropType},
		{c.t("area"), fmt.Sprintf("%.2f ha", b.Parcel.AreaHa)},
		{c.t("fingerprint"), shortHash(b.Fingerprint)},
	}
	for _, r := range rows {
		pdf.CellFormat(60, 9, tr(r[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 9, tr("  "+r[1]), "", 1, "L", false, 0, "")
	}
}

// executiveSummary fixed second page: headline, KPI table, pointer to
// the intervention page
func (c *Composer) executiveSummary(pdf *fpdf.Fpdf, b *model.DiagnosisBundle) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	k := b.KPIs
	pdf.AddPage()
	c.heading(pdf, c.t("exec_summary"))

	pdf.SetFont("Helvetica", "B", 13)
	pdf.MultiCell(0, 8, tr(k.Headline), "", "L", false)
	pdf.Ln(6)

	rows := c.kpiRows(k)
	if ref := b.ReferenceKPIs; ref != nil {
		refRows := c.kpiRows(*ref)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(70, 8, "", "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, tr(c.t("col_current")), "1", 0, "C", false, 0, "")
		pdf.CellFormat(0, 8, tr(c.t("col_previous")), "1", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for i, r := range rows {
			pdf.CellFormat(70, 8, tr(r[0]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, 8, tr(r[1]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(0, 8, tr(refRows[i][1]), "1", 1, "L", false, 0, "")
		}
	} else {
		pdf.SetFont("Helvetica", "", 11)
		for _, r := range rows {
			pdf.CellFormat(70, 8, tr(r[0]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(0, 8, tr(r[1]), "1", 1, "L", false, 0, "")
		}
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, tr(c.t("see_intervention")), "", "L", false)
}

// kpiRows the executive table in fixed order; the comparison column
// reuses the same rows for the reference window
func (c *Composer) kpiRows(k model.KPISet) [][2]string {
	return [][2]string{
		{c.t("kpi_trend"), fmt.Sprintf("%+.2f%%", k.TrendPct)},
		{c.t("kpi_affected"), fmt.Sprintf("%.2f%% (%.2f ha)", k.AffectedPct, k.AffectedAreaHa)},
		{c.t("kpi_efficiency"), fmt.Sprintf("%.1f%%", k.EfficiencyPct)},
		{c.t("kpi_critical"), fmt.Sprintf("%d", k.CriticalZones)},
		{c.t("kpi_cause"), k.DominantCause},
		{c.t("kpi_phase"), k.PhaseAtEnd},
		{c.t("kpi_stress"), strings.Join(k.WaterStressMonths, ", ")},
	}
}

// includeMap the minimalist style drops the decorative context
// products; analytic maps always render
func (c *Composer) includeMap(name string) bool {
	if c.cfg.Style != "minimalist" {
		return true
	}
	return name != "regional" && name != "silhouette"
}

// showQualityAppendix technical depth only, never in minimalist style
func (c *Composer) showQualityAppendix() bool {
	return c.cfg.DetailLevel == "technical" && c.cfg.Style != "minimalist"
}

func (c *Composer) heading(pdf *fpdf.Fpdf, title string) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 11, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(3)
}

// placeholder degraded-map text with an inline warning
func (c *Composer) placeholder(pdf *fpdf.Fpdf) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(180, 60, 0)
	pdf.MultiCell(0, 7, tr(c.t("map_missing")), "1", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
