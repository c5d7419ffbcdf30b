package carto

// Map label strings by language
var mapText = map[string]map[string]string{
	"es": {
		"regional_title": "Contexto Regional - %s",
		"location_of":    "Ubicación de %s",
		"longitude":      "Longitud",
		"latitude":       "Latitud",
		"region_legend":  "%s (región)",
		"parcel_legend":  "Ubicación Parcela",
		"area":           "Área: %.2f ha",
		"interv_title":   "Mapa de Intervención - %s",
		"priority_tag":   "PRIORIDAD 1",
		"critical":       "Crítica",
		"moderate":       "Moderada",
		"mild":           "Leve",
		"zones_legend":   "Zonas: %d críticas, %d moderadas, %d leves",
		"index_title":    "%s - %s",
	},
	"en": {
		"regional_title": "Regional Context - %s",
		"location_of":    "Location of %s",
		"longitude":      "Longitude",
		"latitude":       "Latitude",
		"region_legend":  "%s (region)",
		"parcel_legend":  "Parcel Location",
		"area":           "Area: %.2f ha",
		"interv_title":   "Intervention Map - %s",
		"priority_tag":   "PRIORITY 1",
		"critical":       "Critical",
		"moderate":       "Moderate",
		"mild":           "Mild",
		"zones_legend":   "Zones: %d critical, %d moderate, %d mild",
		"index_title":    "%s - %s",
	},
}

func text(lang, key string) string {
	if m, ok := mapText[lang]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	return mapText["es"][key]
}
