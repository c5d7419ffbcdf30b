package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotech/diagnosis/internal/carto"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/errorutil"
)

type nopLogger struct{}

func (nopLogger) Debugf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Infof(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Warnf(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Errorf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Sync() error                                                    { return nil }

func newTestComposer(lang string) *Composer {
	cfg := config.ReportConfig{
		DetailLevel: "standard",
		Language:    lang,
		Orientation: "portrait",
		Style:       "complete",
		Sections:    []string{"trends", "legal"},
		Indices:     []string{"ndvi"},
	}
	return NewComposer(nopLogger{}, cfg, carto.New(nopLogger{}, ""))
}

func TestComposeRequiresBundle(t *testing.T) {
	c := newTestComposer("es")
	_, err := c.Compose(context.Background(), Inputs{})
	require.Error(t, err)
	assert.Equal(t, errorutil.KindInternal, errorutil.KindOf(err))
}

func TestTranslationsFallBackToSpanish(t *testing.T) {
	es := newTestComposer("es")
	en := newTestComposer("en")
	fr := newTestComposer("fr")

	assert.Equal(t, "Resumen Ejecutivo", es.t("exec_summary"))
	assert.Equal(t, "Executive Summary", en.t("exec_summary"))
	assert.Equal(t, "Resumen Ejecutivo", fr.t("exec_summary"))
}

func TestTranslationKeysMirrored(t *testing.T) {
	// every key must exist in both languages so no surface ever renders
	// a mixed-language row
	for key := range strs["es"] {
		_, ok := strs["en"][key]
		assert.True(t, ok, "missing en translation: %s", key)
	}
	for key := range strs["en"] {
		_, ok := strs["es"][key]
		assert.True(t, ok, "missing es translation: %s", key)
	}
}

func TestMinimalistStyleDropsContextMaps(t *testing.T) {
	complete := newTestComposer("es")
	for _, name := range []string{"regional", "silhouette", "intervention", "index_ndvi"} {
		assert.True(t, complete.includeMap(name), name)
	}

	minimal := newTestComposer("es")
	minimal.cfg.Style = "minimalist"
	assert.False(t, minimal.includeMap("regional"))
	assert.False(t, minimal.includeMap("silhouette"))
	assert.True(t, minimal.includeMap("intervention"))
	assert.True(t, minimal.includeMap("index_ndvi"))
}

func TestMinimalistStyleDropsQualityAppendix(t *testing.T) {
	c := newTestComposer("es")
	c.cfg.DetailLevel = "technical"
	assert.True(t, c.showQualityAppendix())

	c.cfg.Style = "minimalist"
	assert.False(t, c.showQualityAppendix())

	c.cfg.Style = "complete"
	c.cfg.DetailLevel = "standard"
	assert.False(t, c.showQualityAppendix())
}

func TestKPIRowsAlignForComparison(t *testing.T) {
	c := newTestComposer("en")
	current := model.KPISet{
		TrendPct:          -4.25,
		AffectedPct:       12.5,
		AffectedAreaHa:    2.5,
		EfficiencyPct:     87.3,
		CriticalZones:     2,
		DominantCause:     "water_stress",
		PhaseAtEnd:        "active_growth",
		WaterStressMonths: []string{"2024-06", "2024-07"},
	}
	reference := model.KPISet{TrendPct: 1.1, EfficiencyPct: 96.0, DominantCause: "inconclusive"}

	rows := c.kpiRows(current)
	refRows := c.kpiRows(reference)
	require.Len(t, rows, 7)
	require.Len(t, refRows, 7)
	for i := range rows {
		assert.Equal(t, rows[i][0], refRows[i][0], "row labels must line up")
	}
	assert.Equal(t, "NDVI trend", rows[0][0])
	assert.Equal(t, "-4.25%", rows[0][1])
	assert.Equal(t, "+1.10%", refRows[0][1])
	assert.Equal(t, "12.50% (2.50 ha)", rows[1][1])
	assert.Equal(t, "2024-06, 2024-07", rows[6][1])
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Len(t, shortHash("0123456789abcdef0123456789abcdef"), 16)
}
