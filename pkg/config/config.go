package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"agrotech/diagnosis/pkg/errorutil"
)

// Config global configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" json:"app"`
	MySQL     MySQLConfig     `mapstructure:"mysql" json:"-"`
	Redis     RedisConfig     `mapstructure:"redis" json:"-"`
	Lmstfy    LmstfyConfig    `mapstructure:"lmstfy" json:"-"`
	Workers   []WorkerConfig  `mapstructure:"workers" json:"-"`
	Data      DataConfig      `mapstructure:"data" json:"-"`
	Diagnosis DiagnosisConfig `mapstructure:"diagnosis" json:"diagnosis"`
	Report    ReportConfig    `mapstructure:"report" json:"report"`
	Layers    []LayerConfig   `mapstructure:"layers" json:"layers"`
}

// AppConfig application configuration
type AppConfig struct {
	Name     string `mapstructure:"name" json:"name"`
	Env      string `mapstructure:"env" json:"env"`
	LogLevel string `mapstructure:"log_level" json:"-"`
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"` // completion notification channel
}

// LmstfyConfig Lmstfy configuration
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

// WorkerConfig worker configuration
type WorkerConfig struct {
	Name          string           `mapstructure:"name"`
	QueueName     string           `mapstructure:"queue_name"`
	CallbackQueue string           `mapstructure:"callback_queue"`
	Subscriber    SubscriberConfig `mapstructure:"subscriber"`
	Processor     ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig subscriber configuration
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // concurrent pullers
	Rate         time.Duration `mapstructure:"rate"`          // pull rate
	Timeout      time.Duration `mapstructure:"timeout"`       // pull timeout
	TTR          time.Duration `mapstructure:"ttr"`           // time-to-run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // backoff after pull errors
}

// ProcessorConfig processor configuration
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // concurrent handlers
	BufferSize int           `mapstructure:"buffer_size"` // channel buffer size
	Timeout    time.Duration `mapstructure:"timeout"`     // per-message timeout
}

// DataConfig input data locations
type DataConfig struct {
	AcquisitionDir string        `mapstructure:"acquisition_dir"` // manifest + raster files per parcel
	ClimateDir     string        `mapstructure:"climate_dir"`     // daily climate records per parcel
	ParcelFile     string        `mapstructure:"parcel_file"`     // parcel catalog GeoJSON (CLI without MySQL)
	LoadTimeout    time.Duration `mapstructure:"load_timeout"`    // per-source load timeout
}

// CropThresholds NDVI bands for one crop type
type CropThresholds struct {
	Low             float64 `mapstructure:"low" json:"low"`
	Establishment   float64 `mapstructure:"establishment" json:"establishment"`
	ActiveGrowth    float64 `mapstructure:"active_growth" json:"active_growth"`
	FullDevelopment float64 `mapstructure:"full_development" json:"full_development"`
}

// DiagnosisConfig analysis thresholds
type DiagnosisConfig struct {
	MinValidFraction float64                   `mapstructure:"min_valid_fraction" json:"min_valid_fraction"`
	MaxCloud         float64                   `mapstructure:"max_cloud" json:"max_cloud"`
	LowThreshold     float64                   `mapstructure:"low_threshold" json:"low_threshold"`
	MinClusterHa     float64                   `mapstructure:"min_cluster_ha" json:"min_cluster_ha"`
	OutlierZ         float64                   `mapstructure:"outlier_z" json:"outlier_z"`
	TrendBreakPct    float64                   `mapstructure:"trend_break_pct" json:"trend_break_pct"`
	WaterStressNDMI  float64                   `mapstructure:"water_stress_ndmi" json:"water_stress_ndmi"`
	Crops            map[string]CropThresholds `mapstructure:"crops" json:"crops"`
	ClusterBudget    time.Duration             `mapstructure:"cluster_budget" json:"cluster_budget"`
}

// ReportConfig report composition options
type ReportConfig struct {
	DetailLevel  string    `mapstructure:"detail_level" json:"detail_level"`
	Indices      []string  `mapstructure:"indices" json:"indices"`
	Sections     []string  `mapstructure:"sections" json:"sections"`
	Orientation  string    `mapstructure:"orientation" json:"orientation"`
	Style        string    `mapstructure:"style" json:"style"`
	Language     string    `mapstructure:"language" json:"language"`
	Comparison   string    `mapstructure:"comparison" json:"comparison"`
	SpecialFocus string    `mapstructure:"special_focus" json:"special_focus"`
	Department   string    `mapstructure:"department" json:"department"`
	DeptBBox     []float64 `mapstructure:"dept_bbox" json:"dept_bbox"` // minLon,minLat,maxLon,maxLat
	FontPath     string    `mapstructure:"font_path" json:"-"`
}

// LayerConfig one legal layer in the catalog
type LayerConfig struct {
	Name       string             `mapstructure:"name" json:"name"`
	Path       string             `mapstructure:"path" json:"-"`
	Attributes []string           `mapstructure:"attributes" json:"attributes"`
	Confidence string             `mapstructure:"confidence" json:"confidence"` // high/medium/low
	Version    string             `mapstructure:"version" json:"version"`
	Setbacks   map[string]float64 `mapstructure:"setbacks" json:"setbacks,omitempty"` // metres per watercourse class
}

var (
	knownDetailLevels = map[string]bool{"executive": true, "standard": true, "technical": true}
	knownIndices      = map[string]bool{"ndvi": true, "ndmi": true, "savi": true, "msavi": true}
	knownSections     = map[string]bool{
		"trends": true, "irrigation_recommendations": true, "statistics": true,
		"climate": true, "legal": true, "timeline_grid": true, "intervention_map": true,
	}
	knownOrientations = map[string]bool{"portrait": true, "landscape": true}
	knownStyles       = map[string]bool{"complete": true, "minimalist": true}
	knownLanguages    = map[string]bool{"es": true, "en": true}
	knownComparisons  = map[string]bool{"none": true, "previous_period": true}
	knownConfidences  = map[string]bool{"high": true, "medium": true, "low": true}
)

// Load loads the configuration file
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills unset analysis and report options
func (c *Config) applyDefaults() {
	d := &c.Diagnosis
	if d.MinValidFraction == 0 {
		d.MinValidFraction = 0.60
	}
	if d.MaxCloud == 0 {
		d.MaxCloud = 0.50
	}
	if d.LowThreshold == 0 {
		d.LowThreshold = 0.35
	}
	if d.MinClusterHa == 0 {
		d.MinClusterHa = 0.05
	}
	if d.OutlierZ == 0 {
		d.OutlierZ = 3.0
	}
	if d.TrendBreakPct == 0 {
		d.TrendBreakPct = 0.15
	}
	if d.WaterStressNDMI == 0 {
		d.WaterStressNDMI = 0.20
	}
	if d.ClusterBudget == 0 {
		d.ClusterBudget = 60 * time.Second
	}
	if d.Crops == nil {
		d.Crops = DefaultCropThresholds()
	} else {
		for name, ct := range DefaultCropThresholds() {
			if _, ok := d.Crops[name]; !ok {
				d.Crops[name] = ct
			}
		}
	}

	r := &c.Report
	if r.DetailLevel == "" {
		r.DetailLevel = "standard"
	}
	if len(r.Indices) == 0 {
		r.Indices = []string{"ndvi", "ndmi", "savi"}
	}
	if len(r.Sections) == 0 {
		r.Sections = []string{
			"trends", "statistics", "climate", "legal", "intervention_map",
		}
	}
	if r.Orientation == "" {
		r.Orientation = "portrait"
	}
	if r.Style == "" {
		r.Style = "complete"
	}
	if r.Language == "" {
		r.Language = "es"
	}
	if r.Comparison == "" {
		r.Comparison = "none"
	}

	if c.Data.LoadTimeout == 0 {
		c.Data.LoadTimeout = 30 * time.Second
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "parcel_diagnosis_complete"
	}
}

// DefaultCropThresholds crop-indexed NDVI bands; "general" is the fallback
func DefaultCropThresholds() map[string]CropThresholds {
	return map[string]CropThresholds{
		"general": {Low: 0.35, Establishment: 0.40, ActiveGrowth: 0.65, FullDevelopment: 0.75},
		"maize":   {Low: 0.45, Establishment: 0.45, ActiveGrowth: 0.68, FullDevelopment: 0.78},
		"wheat":   {Low: 0.40, Establishment: 0.38, ActiveGrowth: 0.62, FullDevelopment: 0.72},
		"soy":     {Low: 0.45, Establishment: 0.42, ActiveGrowth: 0.66, FullDevelopment: 0.76},
		"rice":    {Low: 0.50, Establishment: 0.48, ActiveGrowth: 0.70, FullDevelopment: 0.80},
	}
}

// CropFor resolves the threshold row for a crop type
func (d DiagnosisConfig) CropFor(crop string) CropThresholds {
	if ct, ok := d.Crops[crop]; ok {
		return ct
	}
	return d.Crops["general"]
}

// Validate checks the configuration before any I/O happens
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return errorutil.New(errorutil.KindConfiguration, "app.name is required")
	}

	d := c.Diagnosis
	if d.MinValidFraction <= 0 || d.MinValidFraction > 1 {
		return errorutil.Newf(errorutil.KindConfiguration,
			"diagnosis.min_valid_fraction out of range: %v", d.MinValidFraction)
	}
	if d.MaxCloud <= 0 || d.MaxCloud > 1 {
		return errorutil.Newf(errorutil.KindConfiguration,
			"diagnosis.max_cloud out of range: %v", d.MaxCloud)
	}
	if d.LowThreshold <= 0 || d.LowThreshold >= 1 {
		return errorutil.Newf(errorutil.KindConfiguration,
			"diagnosis.low_threshold out of range: %v", d.LowThreshold)
	}
	if d.MinClusterHa < 0 {
		return errorutil.Newf(errorutil.KindConfiguration,
			"diagnosis.min_cluster_ha must be >= 0: %v", d.MinClusterHa)
	}
	if _, ok := d.Crops["general"]; !ok {
		return errorutil.New(errorutil.KindConfiguration,
			"diagnosis.crops must include the general fallback row")
	}

	r := c.Report
	if !knownDetailLevels[r.DetailLevel] {
		return errorutil.Newf(errorutil.KindConfiguration, "report.detail_level unknown: %q", r.DetailLevel)
	}
	for _, idx := range r.Indices {
		if !knownIndices[idx] {
			return errorutil.Newf(errorutil.KindConfiguration, "report.indices unknown index: %q", idx)
		}
	}
	for _, s := range r.Sections {
		if !knownSections[s] {
			return errorutil.Newf(errorutil.KindConfiguration, "report.sections unknown section: %q", s)
		}
	}
	if !knownOrientations[r.Orientation] {
		return errorutil.Newf(errorutil.KindConfiguration, "report.orientation unknown: %q", r.Orientation)
	}
	if !knownStyles[r.Style] {
		return errorutil.Newf(errorutil.KindConfiguration, "report.style unknown: %q", r.Style)
	}
	if !knownLanguages[r.Language] {
		return errorutil.Newf(errorutil.KindConfiguration, "report.language unknown: %q", r.Language)
	}
	if !knownComparisons[r.Comparison] {
		return errorutil.Newf(errorutil.KindConfiguration, "report.comparison unknown: %q", r.Comparison)
	}
	if len(r.DeptBBox) != 0 && len(r.DeptBBox) != 4 {
		return errorutil.New(errorutil.KindConfiguration, "report.dept_bbox must have 4 values")
	}

	seen := make(map[string]bool)
	for _, l := range c.Layers {
		if l.Name == "" {
			return errorutil.New(errorutil.KindConfiguration, "layers entries require a name")
		}
		if seen[l.Name] {
			return errorutil.Newf(errorutil.KindConfiguration, "duplicate layer name: %q", l.Name)
		}
		seen[l.Name] = true
		if l.Confidence != "" && !knownConfidences[l.Confidence] {
			return errorutil.Newf(errorutil.KindConfiguration,
				"layers.%s.confidence unknown: %q", l.Name, l.Confidence)
		}
	}

	return nil
}

// ValidateWorker checks the queue-facing blocks used by cmd/worker only
func (c *Config) ValidateWorker() error {
	if c.Lmstfy.Host == "" {
		return errorutil.New(errorutil.KindConfiguration, "lmstfy.host is required")
	}
	if len(c.Workers) == 0 {
		return errorutil.New(errorutil.KindConfiguration, "at least one worker is required")
	}
	return nil
}
