package model

// ClimateRecord one daily climate observation
type ClimateRecord struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	TMeanC          float64 `json:"t_mean_c"`
	TMaxC           float64 `json:"t_max_c"`
	TMinC           float64 `json:"t_min_c"`
	PrecipitationMM float64 `json:"precipitation_mm"`
}

// ClimateMonthly one month of aggregated climate
type ClimateMonthly struct {
	Period          string  `json:"period"` // YYYY-MM
	PrecipitationMM float64 `json:"precipitation_mm"`
	TMeanC          float64 `json:"t_mean_c"`
	TMaxC           float64 `json:"t_max_c"`
	TMinC           float64 `json:"t_min_c"`
	NDays           int     `json:"n_days"`
}
