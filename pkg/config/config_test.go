package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotech/diagnosis/pkg/errorutil"
)

const minimalYAML = `
app:
  name: diagnosis
  env: test
diagnosis:
  max_cloud: 0.4
report:
  language: en
layers:
  - name: forestal
    path: /data/layers/forestal.geojson
    version: "2023-10"
`

func loadYAML(t *testing.T, body string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	return cfg
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg := loadYAML(t, minimalYAML)

	assert.Equal(t, "diagnosis", cfg.App.Name)
	assert.Equal(t, 0.4, cfg.Diagnosis.MaxCloud) // explicit value kept
	assert.Equal(t, 0.60, cfg.Diagnosis.MinValidFraction)
	assert.Equal(t, 0.35, cfg.Diagnosis.LowThreshold)
	assert.Equal(t, 3.0, cfg.Diagnosis.OutlierZ)
	assert.Equal(t, 60*time.Second, cfg.Diagnosis.ClusterBudget)
	assert.Contains(t, cfg.Diagnosis.Crops, "general")
	assert.Contains(t, cfg.Diagnosis.Crops, "maize")

	assert.Equal(t, "en", cfg.Report.Language) // explicit value kept
	assert.Equal(t, "standard", cfg.Report.DetailLevel)
	assert.Equal(t, []string{"ndvi", "ndmi", "savi"}, cfg.Report.Indices)
	assert.Equal(t, "portrait", cfg.Report.Orientation)
	assert.Equal(t, "complete", cfg.Report.Style)
	assert.Equal(t, "none", cfg.Report.Comparison)

	assert.Equal(t, 30*time.Second, cfg.Data.LoadTimeout)
	assert.Equal(t, "parcel_diagnosis_complete", cfg.Redis.Channel)

	require.Len(t, cfg.Layers, 1)
	assert.Equal(t, "2023-10", cfg.Layers[0].Version)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateOK(t *testing.T) {
	cfg := loadYAML(t, minimalYAML)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }},
		{"valid fraction range", func(c *Config) { c.Diagnosis.MinValidFraction = 1.5 }},
		{"low threshold range", func(c *Config) { c.Diagnosis.LowThreshold = 1.0 }},
		{"missing general crop", func(c *Config) { delete(c.Diagnosis.Crops, "general") }},
		{"unknown detail level", func(c *Config) { c.Report.DetailLevel = "verbose" }},
		{"unknown index", func(c *Config) { c.Report.Indices = []string{"evi"} }},
		{"unknown section", func(c *Config) { c.Report.Sections = []string{"cover_page"} }},
		{"unknown style", func(c *Config) { c.Report.Style = "fancy" }},
		{"unknown language", func(c *Config) { c.Report.Language = "pt" }},
		{"bad dept bbox", func(c *Config) { c.Report.DeptBBox = []float64{1, 2} }},
		{"unnamed layer", func(c *Config) { c.Layers = append(c.Layers, LayerConfig{Path: "/x"}) }},
		{"duplicate layer", func(c *Config) { c.Layers = append(c.Layers, c.Layers[0]) }},
		{"bad layer confidence", func(c *Config) { c.Layers[0].Confidence = "maybe" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := loadYAML(t, minimalYAML)
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errorutil.KindConfiguration, errorutil.KindOf(err))
		})
	}
}

func TestValidateWorker(t *testing.T) {
	cfg := loadYAML(t, minimalYAML)
	err := cfg.ValidateWorker()
	require.Error(t, err)
	assert.Equal(t, errorutil.KindConfiguration, errorutil.KindOf(err))

	cfg.Lmstfy.Host = "127.0.0.1"
	err = cfg.ValidateWorker()
	require.Error(t, err) // still no workers

	cfg.Workers = []WorkerConfig{{Name: "diagnose", QueueName: "parcel_diagnose"}}
	require.NoError(t, cfg.ValidateWorker())
}

func TestCropForFallsBackToGeneral(t *testing.T) {
	cfg := loadYAML(t, minimalYAML)
	general := cfg.Diagnosis.Crops["general"]

	assert.Equal(t, general, cfg.Diagnosis.CropFor("quinoa"))
	assert.NotEqual(t, general, cfg.Diagnosis.CropFor("rice"))
}
