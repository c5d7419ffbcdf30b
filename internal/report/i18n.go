package report

// Report strings by language
var strs = map[string]map[string]string{
	"es": {
		"title":            "Informe de Diagnóstico Agronómico",
		"parcel":           "Parcela",
		"window":           "Ventana de análisis",
		"crop":             "Cultivo",
		"area":             "Área",
		"fingerprint":      "Huella del diagnóstico",
		"exec_summary":     "Resumen Ejecutivo",
		"see_intervention": "Ver el mapa de intervención en la última página.",
		"kpi_trend":        "Tendencia NDVI",
		"kpi_affected":     "Área afectada",
		"kpi_efficiency":   "Eficiencia del lote",
		"kpi_critical":     "Zonas críticas",
		"kpi_cause":        "Causa dominante",
		"kpi_phase":        "Fase al cierre",
		"kpi_stress":       "Meses con estrés hídrico",
		"sec_trends":       "Tendencias e Índices",
		"sec_irrigation":   "Recomendaciones de Riego",
		"sec_statistics":   "Estadísticas Mensuales",
		"sec_climate":      "Clima",
		"sec_legal":        "Verificación Legal",
		"sec_timeline":     "Línea de Tiempo",
		"sec_intervention": "Mapa de Intervención",
		"map_missing":      "ADVERTENCIA: el mapa no pudo generarse; sección degradada a texto.",
		"anomalies":        "Anomalías detectadas",
		"no_anomalies":     "Sin anomalías detectadas en la ventana.",
		"period":           "Período",
		"index":            "Índice",
		"kind":             "Tipo",
		"magnitude":        "Magnitud",
		"confidence":       "Confianza",
		"mean":             "Media",
		"valid":            "Píx. válidos",
		"scenes":           "Escenas",
		"precip":           "Precipitación (mm)",
		"tmean":            "T media (°C)",
		"tmax":             "T máx (°C)",
		"tmin":             "T mín (°C)",
		"layer":            "Capa",
		"intersects":       "Intersecta",
		"fraction":         "Fracción",
		"legal_conf":       "Confianza",
		"yes":              "Sí",
		"no":               "No",
		"actions":          "Acciones priorizadas",
		"zone":             "Zona",
		"severity":         "Severidad",
		"no_zones":         "Sin zonas de intervención en esta ventana.",
		"quality_appendix": "Apéndice Técnico: Calidad de Adquisiciones",
		"grade":            "Calidad",
		"cloud":            "Nubes",
		"used":             "Usada",
		"no_climate":       "Sin registros de clima para la ventana.",
		"setbacks":         "Retiros hídricos",
		"col_current":      "Ventana actual",
		"col_previous":     "Período anterior",
	},
	"en": {
		"title":            "Agronomic Diagnostic Report",
		"parcel":           "Parcel",
		"window":           "Analysis window",
		"crop":             "Crop",
		"area":             "Area",
		"fingerprint":      "Diagnosis fingerprint",
		"exec_summary":     "Executive Summary",
		"see_intervention": "See the intervention map on the last page.",
		"kpi_trend":        "NDVI trend",
		"kpi_affected":     "Affected area",
		"kpi_efficiency":   "Field efficiency",
		"kpi_critical":     "Critical zones",
		"kpi_cause":        "Dominant cause",
		"kpi_phase":        "Phase at window end",
		"kpi_stress":       "Water-stress months",
		"sec_trends":       "Trends and Indices",
		"sec_irrigation":   "Irrigation Recommendations",
		"sec_statistics":   "Monthly Statistics",
		"sec_climate":      "Climate",
		"sec_legal":        "Legal Verification",
		"sec_timeline":     "Timeline",
		"sec_intervention": "Intervention Map",
		"map_missing":      "WARNING: map could not be rendered; section degraded to text.",
		"anomalies":        "Detected anomalies",
		"no_anomalies":     "No anomalies detected in the window.",
		"period":           "Period",
		"index":            "Index",
		"kind":             "Kind",
		"magnitude":        "Magnitude",
		"confidence":       "Confidence",
		"mean":             "Mean",
		"valid":            "Valid px",
		"scenes":           "Scenes",
		"precip":           "Precipitation (mm)",
		"tmean":            "T mean (°C)",
		"tmax":             "T max (°C)",
		"tmin":             "T min (°C)",
		"layer":            "Layer",
		"intersects":       "Intersects",
		"fraction":         "Fraction",
		"legal_conf":       "Confidence",
		"yes":              "Yes",
		"no":               "No",
		"actions":          "Prioritised actions",
		"zone":             "Zone",
		"severity":         "Severity",
		"no_zones":         "No intervention zones in this window.",
		"quality_appendix": "Technical Appendix: Acquisition Quality",
		"grade":            "Grade",
		"cloud":            "Cloud",
		"used":             "Used",
		"no_climate":       "No climate records for the window.",
		"setbacks":         "Stream setbacks",
		"col_current":      "Current window",
		"col_previous":     "Previous period",
	},
}

func (c *Composer) t(key string) string {
	if m, ok := strs[c.cfg.Language]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	return strs["es"][key]
}
