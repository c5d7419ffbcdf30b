package model

// KPISet the single source of truth for every downstream number.
// Maps, report tables and the executive summary read from here only.
type KPISet struct {
	TrendPct          float64  `json:"trend_pct"`  // NDVI mean change over the window
	TrendSign         string   `json:"trend_sign"` // up/stable/down
	CriticalPct       float64  `json:"critical_pct"`
	ModeratePct       float64  `json:"moderate_pct"`
	MildPct           float64  `json:"mild_pct"`
	AffectedPct       float64  `json:"affected_pct"`
	EfficiencyPct     float64  `json:"efficiency_pct"` // good-state pixel share
	AffectedAreaHa    float64  `json:"affected_area_ha"`
	CriticalZones     int      `json:"critical_zones"`
	DominantCause     string   `json:"dominant_cause"`
	DominantSeverity  string   `json:"dominant_severity"` // none when no zones
	PhaseAtEnd        string   `json:"phase_at_end"`
	WaterStressMonths []string `json:"water_stress_months"`
	HeadlineTag       string   `json:"headline_tag"`
	Headline          string   `json:"headline"`
}
