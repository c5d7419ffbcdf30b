package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"agrotech/diagnosis/internal/analysis/anomaly"
	"agrotech/diagnosis/internal/analysis/causes"
	"agrotech/diagnosis/internal/analysis/climate"
	"agrotech/diagnosis/internal/analysis/indices"
	"agrotech/diagnosis/internal/analysis/kpi"
	"agrotech/diagnosis/internal/analysis/legal"
	"agrotech/diagnosis/internal/analysis/raster"
	"agrotech/diagnosis/internal/analysis/zones"
	"agrotech/diagnosis/internal/carto"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/internal/report"
	"agrotech/diagnosis/internal/sources"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/logger"
)

// Thresholds for the good-state efficiency mask
const (
	goodStateNDVI = 0.5
	goodStateSAVI = 0.4
)

// Pipeline runs one diagnosis end to end: load, mask, aggregate,
// detect, reason, classify, verify, summarize, compose.
type Pipeline struct {
	log     logger.Logger
	cfg     *config.Config
	reader  raster.Reader
	acqs    sources.AcquisitionSource
	climSrc sources.ClimateSource
	catalog sources.ParcelCatalog
	maps    *carto.Cartographer
}

// New wires a pipeline from its collaborators
func New(
	log logger.Logger,
	cfg *config.Config,
	reader raster.Reader,
	acqs sources.AcquisitionSource,
	climSrc sources.ClimateSource,
	catalog sources.ParcelCatalog,
) *Pipeline {
	return &Pipeline{
		log:     log,
		cfg:     cfg,
		reader:  reader,
		acqs:    acqs,
		climSrc: climSrc,
		catalog: catalog,
		maps:    carto.New(log, cfg.Report.FontPath),
	}
}

// Run diagnoses one parcel over one window and writes the outputs to
// outDir: diagnosis.json, kpis.json, report.pdf and maps/. Recovered
// degradations become bundle notes; the returned error is fatal.
func (p *Pipeline) Run(ctx context.Context, parcelID string, window model.Window, outDir string) (*model.DiagnosisBundle, error) {
	parcel, err := p.catalog.GetParcel(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	set, err := p.acqs.Load(ctx, parcelID, window)
	if err != nil {
		return nil, err
	}
	if len(set.Acquisitions) == 0 {
		return nil, errorutil.Newf(errorutil.KindInsufficientCoverage,
			"no acquisitions inside window %s", window.String()).
			WithDetail("parcel_id", parcelID)
	}

	fingerprint, err := Fingerprint(parcel, window, set, p.cfg)
	if err != nil {
		return nil, errorutil.Newf(errorutil.KindInternal, "fingerprint: %v", err)
	}
	p.log.Infof(ctx, "diagnosing %s window=%s acquisitions=%d fingerprint=%s",
		parcelID, window.String(), len(set.Acquisitions), fingerprint[:16])

	bundle := &model.DiagnosisBundle{
		Fingerprint: fingerprint,
		ParcelID:    parcelID,
		Window:      window,
		GeneratedAt: generatedAt(set.Acquisitions),
		Parcel:      *parcel,
		Artifacts:   make(map[string]string),
	}

	scenes, err := p.loadScenes(ctx, parcel, set, bundle)
	if err != nil {
		return nil, err
	}
	bundle.Quality = qualityRows(set.Acquisitions, scenes, p.cfg.Diagnosis)

	crop := p.cfg.Diagnosis.CropFor(parcel.CropType)
	series, latest, err := p.aggregate(ctx, parcelID, scenes, window, bundle)
	if err != nil {
		return nil, err
	}

	// months below the valid-fraction floor carry no evidentiary weight
	filtered := make(map[string][]model.MonthlyAggregate, len(series))
	for index, aggs := range series {
		filtered[index] = aboveFloor(aggs, p.cfg.Diagnosis.MinValidFraction)
	}

	for _, index := range p.analysisIndices() {
		bundle.Anomalies = append(bundle.Anomalies,
			anomaly.Detect(index, filtered[index], crop, p.cfg.Diagnosis)...)
	}
	sortAnomalies(bundle.Anomalies)

	bundle.Causes = causes.Infer(causes.Input{
		Window:          window,
		Anomalies:       bundle.Anomalies,
		NDVI:            filtered["ndvi"],
		NDMI:            filtered["ndmi"],
		CloudByPeriod:   cloudByPeriod(filtered["ndvi"], set.Acquisitions),
		Crop:            crop,
		HasPriorHistory: set.HasPriorHistory,
	})

	ndviLatest := latest["ndvi"]
	if ndviLatest != nil {
		low := crop.Low
		if low == 0 {
			low = p.cfg.Diagnosis.LowThreshold
		}
		clusters, degraded := indices.FindLowClusters(
			ndviLatest.Grid, low, p.cfg.Diagnosis.MinClusterHa, p.cfg.Diagnosis.ClusterBudget)
		if degraded {
			p.log.Warnf(ctx, "clustering degraded for %s", parcelID)
			bundle.Notes = append(bundle.Notes, model.Note{
				Kind:    string(errorutil.KindClusteringDegraded),
				Message: "cluster budget exhausted, threshold relaxed",
			})
		}
		bundle.Zones = zones.Classify(zones.Input{
			Clusters:  clusters,
			Causes:    bundle.Causes,
			Anomalies: bundle.Anomalies,
			Parcel:    parcel.Geometry.Geometry(),
			Transform: ndviLatest.Grid.Transform,
			Language:  p.cfg.Report.Language,
		})
	}

	bundle.Legal = legal.Verify(parcel.Geometry.Geometry(), parcel.AreaHa, p.cfg.Layers)

	records, err := p.climSrc.Load(ctx, parcelID, window)
	if err != nil {
		p.log.Warnf(ctx, "climate unavailable for %s: %v", parcelID, err)
		bundle.Notes = append(bundle.Notes, model.Note{
			Kind:    string(errorutil.KindOf(err)),
			Message: "climate records unavailable: " + err.Error(),
		})
	} else {
		bundle.Climate = climate.Summarize(records, window)
	}

	bundle.KPIs = kpi.Compute(kpi.Input{
		Window:            window,
		NDVISeries:        filtered["ndvi"],
		Zones:             bundle.Zones,
		Causes:            bundle.Causes,
		Anomalies:         bundle.Anomalies,
		ParcelAreaHa:      parcel.AreaHa,
		GoodStateFraction: goodStateFraction(latest),
		Crop:              crop,
		Language:          p.cfg.Report.Language,
		SpecialFocus:      p.cfg.Report.SpecialFocus,
	})

	if p.cfg.Report.Comparison == "previous_period" {
		bundle.ReferenceKPIs = p.referenceKPIs(ctx, parcel, window, crop, bundle)
	}

	if err := os.MkdirAll(filepath.Join(outDir, "maps"), 0o755); err != nil {
		return nil, errorutil.Newf(errorutil.KindInternal, "create output dir: %v", err)
	}

	composer := report.NewComposer(p.log, p.cfg.Report, p.maps)
	res, err := composer.Compose(ctx, report.Inputs{
		Bundle:     bundle,
		Composites: latest,
		NDVIGrid:   ndviGrid(ndviLatest),
		Period:     latestPeriod(filtered["ndvi"]),
		Department: p.cfg.Report.Department,
		DeptBBox:   p.cfg.Report.DeptBBox,
		OutDir:     outDir,
	})
	if err != nil {
		return nil, err
	}
	for name, rel := range res.Artifacts {
		bundle.Artifacts[name] = rel
	}
	bundle.Notes = append(bundle.Notes, res.Notes...)

	if err := writeJSON(filepath.Join(outDir, "diagnosis.json"), bundle); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(outDir, "kpis.json"), bundle.KPIs); err != nil {
		return nil, err
	}

	p.log.Infof(ctx, "diagnosed %s headline=%s zones=%d notes=%d",
		parcelID, bundle.KPIs.HeadlineTag, len(bundle.Zones), len(bundle.Notes))
	return bundle, nil
}

// loadScenes reads, aligns and masks every index layer of every
// acquisition. A missing raster file is fatal; the frozen set promised
// it.
func (p *Pipeline) loadScenes(ctx context.Context, parcel *model.Parcel, set *sources.AcquisitionSet, bundle *model.DiagnosisBundle) ([]indices.Scene, error) {
	geom := parcel.Geometry.Geometry()
	needed := p.analysisIndices()

	var stack []*raster.Raster
	type pending struct {
		acq    model.Acquisition
		layers map[string]*raster.Raster
	}
	var loaded []pending

	for _, acq := range set.Acquisitions {
		paths := set.Rasters[acq.ViewID]
		layers := make(map[string]*raster.Raster, len(needed))
		for _, index := range needed {
			path, ok := paths[index]
			if !ok {
				continue
			}
			r, err := p.reader.Read(path, index)
			if err != nil {
				return nil, errorutil.Wrap(err).WithDetail("view_id", acq.ViewID)
			}
			layers[index] = r
			stack = append(stack, r)
		}
		if len(layers) == 0 {
			return nil, errorutil.Newf(errorutil.KindInputUnavailable,
				"acquisition %s has no raster layers", acq.ViewID)
		}
		loaded = append(loaded, pending{acq: acq, layers: layers})
	}

	if err := raster.AlignStack(stack); err != nil {
		return nil, err
	}

	scenes := make([]indices.Scene, 0, len(loaded))
	for _, pn := range loaded {
		masked := make(map[string]*raster.Masked, len(pn.layers))
		for index, r := range pn.layers {
			m, err := raster.MaskToParcel(r, geom)
			if err != nil {
				return nil, errorutil.Wrap(err).WithDetail("view_id", pn.acq.ViewID)
			}
			masked[index] = m
		}
		scenes = append(scenes, indices.Scene{Acq: pn.acq, Layers: masked})
	}
	return scenes, nil
}

// aggregate computes per-index monthly series. NDVI is mandatory;
// secondary indices degrade to notes.
func (p *Pipeline) aggregate(
	ctx context.Context,
	parcelID string,
	scenes []indices.Scene,
	window model.Window,
	bundle *model.DiagnosisBundle,
) (map[string][]model.MonthlyAggregate, map[string]*indices.Composite, error) {
	series := make(map[string][]model.MonthlyAggregate)
	latest := make(map[string]*indices.Composite)

	for _, index := range p.analysisIndices() {
		aggs, comps, err := indices.MonthlyAggregates(parcelID, index, scenes, window, p.cfg.Diagnosis)
		if err != nil {
			if index == "ndvi" {
				return nil, nil, err
			}
			p.log.Warnf(ctx, "index %s degraded for %s: %v", index, parcelID, err)
			bundle.Notes = append(bundle.Notes, model.Note{
				Kind:    string(errorutil.KindOf(err)),
				Message: "index " + index + " unavailable: " + err.Error(),
			})
			continue
		}
		series[index] = aggs
		latest[index] = comps[aggs[len(aggs)-1].Period]
		bundle.Aggregates = append(bundle.Aggregates, aggs...)
	}

	sort.Slice(bundle.Aggregates, func(a, b int) bool {
		if bundle.Aggregates[a].Period != bundle.Aggregates[b].Period {
			return bundle.Aggregates[a].Period < bundle.Aggregates[b].Period
		}
		return bundle.Aggregates[a].Index < bundle.Aggregates[b].Index
	})
	return series, latest, nil
}

// referenceKPIs summarizes the NDVI trend of the same-length window
// immediately before the requested one. The comparison is best-effort:
// any load problem degrades to a note instead of failing the run.
func (p *Pipeline) referenceKPIs(ctx context.Context, parcel *model.Parcel, window model.Window, crop config.CropThresholds, bundle *model.DiagnosisBundle) *model.KPISet {
	prev := window.Previous()
	degrade := func(err error) *model.KPISet {
		p.log.Warnf(ctx, "comparison window %s unavailable for %s: %v", prev.String(), parcel.ID, err)
		bundle.Notes = append(bundle.Notes, model.Note{
			Kind:    string(errorutil.KindOf(err)),
			Message: "comparison window " + prev.String() + " unavailable: " + err.Error(),
		})
		return nil
	}

	set, err := p.acqs.Load(ctx, parcel.ID, prev)
	if err != nil {
		return degrade(err)
	}
	if len(set.Acquisitions) == 0 {
		return degrade(errorutil.Newf(errorutil.KindInsufficientCoverage,
			"no acquisitions inside window %s", prev.String()))
	}
	scenes, err := p.loadScenes(ctx, parcel, set, bundle)
	if err != nil {
		return degrade(err)
	}
	aggs, _, err := indices.MonthlyAggregates(parcel.ID, "ndvi", scenes, prev, p.cfg.Diagnosis)
	if err != nil {
		return degrade(err)
	}

	k := kpi.Compute(kpi.Input{
		Window:       prev,
		NDVISeries:   aboveFloor(aggs, p.cfg.Diagnosis.MinValidFraction),
		ParcelAreaHa: parcel.AreaHa,
		Crop:         crop,
		Language:     p.cfg.Report.Language,
	})
	return &k
}

// analysisIndices always carries the core triple; report extras join it
func (p *Pipeline) analysisIndices() []string {
	out := []string{"ndvi", "ndmi", "savi"}
	seen := map[string]bool{"ndvi": true, "ndmi": true, "savi": true}
	for _, idx := range p.cfg.Report.Indices {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	return out
}

// qualityRows grades every acquisition of the frozen set
func qualityRows(acqs []model.Acquisition, scenes []indices.Scene, cfg config.DiagnosisConfig) []model.AcquisitionQuality {
	byView := make(map[string]indices.Scene, len(scenes))
	for _, s := range scenes {
		byView[s.Acq.ViewID] = s
	}

	rows := make([]model.AcquisitionQuality, 0, len(acqs))
	for _, a := range acqs {
		vf := 0.0
		if s, ok := byView[a.ViewID]; ok {
			if layer, ok := s.Layers["ndvi"]; ok {
				vf = layer.ValidFraction()
			}
		}
		rows = append(rows, model.AcquisitionQuality{
			ViewID:        a.ViewID,
			Date:          a.Date,
			Sensor:        a.Sensor,
			CloudFraction: a.CloudFractionAOI,
			ValidFraction: round4(vf),
			Grade:         model.GradeQuality(vf, a.CloudFractionAOI),
			Used:          vf >= cfg.MinValidFraction && a.CloudFractionAOI <= cfg.MaxCloud,
		})
	}
	return rows
}

// aboveFloor drops months whose composite valid fraction is below the
// floor; they carry no weight in trends, anomalies or KPIs.
func aboveFloor(aggs []model.MonthlyAggregate, floor float64) []model.MonthlyAggregate {
	out := make([]model.MonthlyAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.ValidFraction >= floor {
			out = append(out, a)
		}
	}
	return out
}

// cloudByPeriod cloud fraction of each month's representative scene
func cloudByPeriod(aggs []model.MonthlyAggregate, acqs []model.Acquisition) map[string]float64 {
	cloud := make(map[string]float64, len(acqs))
	for _, a := range acqs {
		cloud[a.ViewID] = a.CloudFractionAOI
	}
	out := make(map[string]float64, len(aggs))
	for _, agg := range aggs {
		if c, ok := cloud[agg.BestAcquisition]; ok {
			out[agg.Period] = c
		}
	}
	return out
}

// goodStateFraction share of parcel pixels in good state on the latest
// composites: NDVI above 0.5 and, when SAVI is present, SAVI above 0.4
func goodStateFraction(latest map[string]*indices.Composite) float64 {
	ndvi := latest["ndvi"]
	if ndvi == nil {
		return 0
	}
	savi := latest["savi"]

	good, total := 0, 0
	g := ndvi.Grid
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if !g.Inside[row*g.Width+col] || !g.Valid(col, row) {
				continue
			}
			total++
			if g.At(col, row) <= goodStateNDVI {
				continue
			}
			if savi != nil && savi.Grid.Valid(col, row) && savi.Grid.At(col, row) <= goodStateSAVI {
				continue
			}
			good++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(good) / float64(total)
}

// sortAnomalies canonical bundle order: period, index, kind
func sortAnomalies(as []model.Anomaly) {
	sort.Slice(as, func(a, b int) bool {
		if as[a].Period != as[b].Period {
			return as[a].Period < as[b].Period
		}
		if as[a].Index != as[b].Index {
			return as[a].Index < as[b].Index
		}
		return as[a].Kind < as[b].Kind
	})
}

// generatedAt derived from the newest acquisition so identical inputs
// serialize to identical bytes
func generatedAt(acqs []model.Acquisition) string {
	newest := ""
	for _, a := range acqs {
		if a.Date > newest {
			newest = a.Date
		}
	}
	return newest + "T00:00:00Z"
}

func latestPeriod(aggs []model.MonthlyAggregate) string {
	if len(aggs) == 0 {
		return ""
	}
	return aggs[len(aggs)-1].Period
}

func ndviGrid(comp *indices.Composite) *raster.Masked {
	if comp == nil {
		return nil
	}
	return comp.Grid
}

// writeJSON stable, indented, trailing newline
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorutil.Newf(errorutil.KindInternal, "marshal %s: %v", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errorutil.Newf(errorutil.KindInternal, "write %s: %v", filepath.Base(path), err)
	}
	return nil
}

// WriteErrorRecord persists a fatal failure next to where the outputs
// would have gone
func WriteErrorRecord(outDir, parcelID string, window model.Window, runErr error) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	rec := model.ErrorRecord{
		ParcelID: parcelID,
		Window:   window.String(),
		Kind:     string(errorutil.KindOf(runErr)),
		Message:  runErr.Error(),
		FailedAt: time.Now().UTC().Format(time.RFC3339),
	}
	var de *errorutil.Error
	if errors.As(runErr, &de) && len(de.Details) > 0 {
		rec.Details = de.Details
	}
	return writeJSON(filepath.Join(outDir, "error.json"), rec)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
