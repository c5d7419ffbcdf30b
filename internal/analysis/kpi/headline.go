package kpi

import "agrotech/diagnosis/internal/model"

// headlineKey the deterministic lookup key: trend sign x dominant severity
type headlineKey struct {
	sign     string
	severity string
}

var headlineTags = map[headlineKey]string{
	{"up", "none"}:     "improving_healthy",
	{"stable", "none"}: "stable_healthy",
	{"down", "none"}:   "declining_watch",

	{"up", model.SeverityMild}:     "improving_minor_zones",
	{"stable", model.SeverityMild}: "stable_minor_zones",
	{"down", model.SeverityMild}:   "declining_minor_zones",

	{"up", model.SeverityModerate}:     "recovering_moderate",
	{"stable", model.SeverityModerate}: "stable_moderate",
	{"down", model.SeverityModerate}:   "declining_moderate",

	{"up", model.SeverityCritical}:     "recovering_critical",
	{"stable", model.SeverityCritical}: "critical_attention",
	{"down", model.SeverityCritical}:   "critical_decline",
}

var headlineTexts = map[string]map[string]string{
	"es": {
		"improving_healthy":     "El lote mejora y no presenta zonas de intervención.",
		"stable_healthy":        "El lote se mantiene estable y saludable en toda la ventana.",
		"declining_watch":       "El vigor del lote desciende; sin zonas críticas, mantener vigilancia.",
		"improving_minor_zones": "El lote mejora; persisten zonas leves bajo observación.",
		"stable_minor_zones":    "El lote es estable con zonas leves localizadas.",
		"declining_minor_zones": "El vigor desciende con zonas leves en formación.",
		"recovering_moderate":   "El lote se recupera pero mantiene zonas moderadas de intervención.",
		"stable_moderate":       "El lote presenta zonas moderadas que requieren intervención planificada.",
		"declining_moderate":    "El vigor desciende y las zonas moderadas avanzan.",
		"recovering_critical":   "Hay recuperación, pero persisten zonas críticas prioritarias.",
		"critical_attention":    "El lote requiere atención inmediata en las zonas críticas señaladas.",
		"critical_decline":      "Deterioro sostenido con zonas críticas: intervenir de inmediato.",
		"water_stress":          "Estrés hídrico sostenido detectado: priorizar riego en las zonas señaladas.",
	},
	"en": {
		"improving_healthy":     "The field is improving with no intervention zones.",
		"stable_healthy":        "The field remains stable and healthy across the window.",
		"declining_watch":       "Field vigour is declining; no critical zones, keep under watch.",
		"improving_minor_zones": "The field is improving; minor zones remain under observation.",
		"stable_minor_zones":    "The field is stable with localised minor zones.",
		"declining_minor_zones": "Vigour is declining with minor zones forming.",
		"recovering_moderate":   "The field is recovering but retains moderate intervention zones.",
		"stable_moderate":       "The field shows moderate zones that need planned intervention.",
		"declining_moderate":    "Vigour is declining and moderate zones are spreading.",
		"recovering_critical":   "Recovery is under way, but priority critical zones persist.",
		"critical_attention":    "The field needs immediate attention in the flagged critical zones.",
		"critical_decline":      "Sustained decline with critical zones: intervene immediately.",
		"water_stress":          "Sustained water stress detected: prioritise irrigation in the flagged zones.",
	},
}

// headline picks the one-sentence summary deterministically from the
// (trend sign, dominant severity) table. A confirmed water-stress
// diagnosis overrides the table, as does a special_focus tag matching
// a present cause kind.
func headline(k model.KPISet, in Input) (tag, text string) {
	tag = headlineTags[headlineKey{k.TrendSign, k.DominantSeverity}]
	if tag == "" {
		tag = "stable_healthy"
	}

	if len(k.WaterStressMonths) > 0 && k.DominantCause == model.CauseWaterStress {
		tag = "water_stress"
	}
	if in.SpecialFocus != "" && in.SpecialFocus != tag {
		if hasCauseKind(in.Causes, in.SpecialFocus) {
			tag = in.SpecialFocus
		}
	}

	texts, ok := headlineTexts[in.Language]
	if !ok {
		texts = headlineTexts["es"]
	}
	text, ok = texts[tag]
	if !ok {
		// focus tags without a canned sentence fall back to the table text
		text = texts[headlineTags[headlineKey{k.TrendSign, k.DominantSeverity}]]
	}
	return tag, text
}

func hasCauseKind(cs []model.Cause, kind string) bool {
	for _, c := range cs {
		if c.Kind == kind {
			return true
		}
	}
	return false
}
