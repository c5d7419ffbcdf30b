package zones

import "agrotech/diagnosis/internal/model"

// Commercial labels shown on maps and in the report, by cause kind
var labels = map[string]map[string]string{
	"es": {
		model.CauseWaterStress:    "Déficit Hídrico Recurrente",
		model.CauseCanopyLoss:     "Pérdida de Cobertura",
		model.CauseEmergenceLag:   "Retraso de Emergencia",
		model.CauseSenescence:     "Senescencia / Maduración",
		model.CauseSensorArtifact: "Artefacto de Sensor",
		model.CauseInconclusive:   "Zona de Bajo Vigor",
	},
	"en": {
		model.CauseWaterStress:    "Recurrent Water Deficit",
		model.CauseCanopyLoss:     "Canopy Loss",
		model.CauseEmergenceLag:   "Emergence Lag",
		model.CauseSenescence:     "Senescence / Maturation",
		model.CauseSensorArtifact: "Sensor Artifact",
		model.CauseInconclusive:   "Low-Vigour Zone",
	},
}

// Ordered agronomic actions per cause kind, by language
var recommendations = map[string]map[string][]string{
	"es": {
		model.CauseWaterStress: {
			"Verificar el sistema de riego en la zona señalada",
			"Medir humedad del suelo a 30 cm de profundidad",
			"Priorizar riego suplementario en los próximos 7 días",
		},
		model.CauseCanopyLoss: {
			"Inspección de campo para descartar plaga o enfermedad",
			"Revisar registros de labores recientes en la zona",
			"Evaluar resiembra si la pérdida supera el 30% del área",
		},
		model.CauseEmergenceLag: {
			"Verificar calidad y profundidad de siembra",
			"Revisar encharcamiento o costra superficial",
			"Considerar resiembra parcial de la zona",
		},
		model.CauseSenescence: {
			"Confirmar madurez fisiológica antes de cosechar",
			"Planificar cosecha de la zona en la siguiente ventana",
		},
		model.CauseSensorArtifact: {
			"Descartar la observación; solicitar nueva imagen sin nubes",
		},
		model.CauseInconclusive: {
			"Inspección de campo para identificar la causa del bajo vigor",
			"Repetir el diagnóstico con la próxima adquisición disponible",
		},
	},
	"en": {
		model.CauseWaterStress: {
			"Check the irrigation system in the flagged zone",
			"Measure soil moisture at 30 cm depth",
			"Prioritise supplemental irrigation within 7 days",
		},
		model.CauseCanopyLoss: {
			"Field inspection to rule out pests or disease",
			"Review recent field operations in the zone",
			"Assess replanting if losses exceed 30% of the area",
		},
		model.CauseEmergenceLag: {
			"Verify seed quality and planting depth",
			"Check for waterlogging or surface crusting",
			"Consider partial replanting of the zone",
		},
		model.CauseSenescence: {
			"Confirm physiological maturity before harvest",
			"Schedule the zone for the next harvest window",
		},
		model.CauseSensorArtifact: {
			"Discard the observation; request a new cloud-free image",
		},
		model.CauseInconclusive: {
			"Field inspection to identify the cause of low vigour",
			"Re-run the diagnosis with the next available acquisition",
		},
	},
}

// Label resolves the commercial label for a cause kind
func Label(cause, language string) string {
	if m, ok := labels[language]; ok {
		if l, ok := m[cause]; ok {
			return l
		}
		return m[model.CauseInconclusive]
	}
	return labels["es"][model.CauseInconclusive]
}

// Recommendations resolves the ordered action list for a cause kind
func Recommendations(cause, language string) []string {
	m, ok := recommendations[language]
	if !ok {
		m = recommendations["es"]
	}
	if r, ok := m[cause]; ok {
		return r
	}
	return m[model.CauseInconclusive]
}
