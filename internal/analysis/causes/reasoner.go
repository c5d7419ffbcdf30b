package causes

import (
	"math"
	"sort"

	"agrotech/diagnosis/internal/analysis/anomaly"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/config"
)

// Rule baselines
const (
	confWaterStress    = 0.90
	confCanopyLoss     = 0.75
	confEmergenceLag   = 0.70
	confSenescence     = 0.65
	confSensorArtifact = 0.60
	confInconclusive   = 0.40

	// penalty per supporting anomaly whose own confidence is weak
	weakSupportPenalty   = 0.15
	weakSupportThreshold = 0.60
)

// Input frozen inputs for one reasoning pass
type Input struct {
	Window          model.Window
	Anomalies       []model.Anomaly // canonical bundle order
	NDVI            []model.MonthlyAggregate
	NDMI            []model.MonthlyAggregate
	CloudByPeriod   map[string]float64 // best-acquisition cloud fraction
	Crop            config.CropThresholds
	HasPriorHistory bool // acquisitions exist before the window
}

// periodView anomalies and series context for a single month
type periodView struct {
	period    string
	monthPos  int   // 0-based position in the window
	anomalies []int // indexes into Input.Anomalies
	in        *Input
}

// Infer applies the causal rule table per period. Rules are evaluated
// in a fixed order and every matching rule emits a Cause. Anomalies
// left unexplained by any rule collapse into one inconclusive Cause.
// Output order: (period asc, confidence desc).
func Infer(in Input) []model.Cause {
	var out []model.Cause
	explained := make(map[int]bool)

	for pos, period := range in.Window.Months() {
		pv := periodView{period: period, monthPos: pos, in: &in}
		for i, a := range in.Anomalies {
			if a.Period == period {
				pv.anomalies = append(pv.anomalies, i)
			}
		}

		for _, rule := range ruleTable {
			if c, ok := rule(pv); ok {
				for _, s := range c.Supporting {
					explained[s] = true
				}
				out = append(out, applyPenalty(c, in.Anomalies))
			}
		}

		// unexplained anomalies surface as one inconclusive cause
		var orphans []int
		for _, i := range pv.anomalies {
			if !explained[i] {
				orphans = append(orphans, i)
			}
		}
		if len(orphans) > 0 {
			out = append(out, applyPenalty(model.Cause{
				Period:     period,
				Kind:       model.CauseInconclusive,
				Confidence: confInconclusive,
				Supporting: orphans,
			}, in.Anomalies))
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Period != out[b].Period {
			return out[a].Period < out[b].Period
		}
		return out[a].Confidence > out[b].Confidence
	})
	return out
}

type ruleFn func(pv periodView) (model.Cause, bool)

// ruleTable evaluated in order; every match emits
var ruleTable = []ruleFn{
	waterStressRule,
	canopyLossRule,
	emergenceLagRule,
	senescenceRule,
	sensorArtifactRule,
}

// waterStressRule NDMI water stress plus a co-located NDVI drop >= 10%
func waterStressRule(pv periodView) (model.Cause, bool) {
	stress := pv.find("ndmi", model.AnomalyWaterStress, "")
	if len(stress) == 0 {
		return model.Cause{}, false
	}
	drop, ok := pv.ndviDrop()
	if !ok || drop < 0.10 {
		return model.Cause{}, false
	}

	supporting := stress
	supporting = append(supporting, pv.find("ndvi", model.AnomalyTrendBreak, "down")...)
	supporting = append(supporting, pv.find("ndvi", model.AnomalyOutlier, "low")...)
	return model.Cause{
		Period:     pv.period,
		Kind:       model.CauseWaterStress,
		Confidence: confWaterStress,
		Supporting: dedupe(supporting),
	}, true
}

// canopyLossRule NDVI breaks down >= 15% while NDMI stays stable
func canopyLossRule(pv periodView) (model.Cause, bool) {
	var supporting []int
	for _, i := range pv.find("ndvi", model.AnomalyTrendBreak, "down") {
		if pv.in.Anomalies[i].Magnitude >= 0.15 {
			supporting = append(supporting, i)
		}
	}
	if len(supporting) == 0 {
		return model.Cause{}, false
	}
	if len(pv.find("ndmi", model.AnomalyWaterStress, "")) > 0 ||
		len(pv.find("ndmi", model.AnomalyTrendBreak, "")) > 0 {
		return model.Cause{}, false
	}
	return model.Cause{
		Period:     pv.period,
		Kind:       model.CauseCanopyLoss,
		Confidence: confCanopyLoss,
		Supporting: supporting,
	}, true
}

// emergenceLagRule low NDVI in the first two cycle months without
// prior history
func emergenceLagRule(pv periodView) (model.Cause, bool) {
	if pv.monthPos > 1 || pv.in.HasPriorHistory {
		return model.Cause{}, false
	}
	mean, ok := pv.ndviMean()
	if !ok || mean >= 0.30 {
		return model.Cause{}, false
	}
	return model.Cause{
		Period:     pv.period,
		Kind:       model.CauseEmergenceLag,
		Confidence: confEmergenceLag,
		Supporting: pv.ndviAnomalies(),
	}, true
}

// senescenceRule NDVI break down right after a full-development or
// maturation month
func senescenceRule(pv periodView) (model.Cause, bool) {
	supporting := pv.find("ndvi", model.AnomalyTrendBreak, "down")
	if len(supporting) == 0 {
		return model.Cause{}, false
	}
	prev, ok := pv.prevNDVIMean()
	if !ok {
		return model.Cause{}, false
	}
	phase := anomaly.PhaseOf(prev, pv.in.Crop)
	if phase != model.PhaseFullDevelopment && phase != model.PhaseMaturation {
		return model.Cause{}, false
	}
	return model.Cause{
		Period:     pv.period,
		Kind:       model.CauseSenescence,
		Confidence: confSenescence,
		Supporting: supporting,
	}, true
}

// sensorArtifactRule single-date NDVI spike, clean neighbours, cloudy
// best scene
func sensorArtifactRule(pv periodView) (model.Cause, bool) {
	spikes := pv.find("ndvi", model.AnomalyOutlier, "high")
	if len(spikes) == 0 {
		return model.Cause{}, false
	}
	if pv.in.CloudByPeriod[pv.period] <= 0.4 {
		return model.Cause{}, false
	}
	if !pv.neighboursClean() {
		return model.Cause{}, false
	}
	return model.Cause{
		Period:     pv.period,
		Kind:       model.CauseSensorArtifact,
		Confidence: confSensorArtifact,
		Supporting: spikes,
	}, true
}

// applyPenalty lowers confidence for weakly supported causes
func applyPenalty(c model.Cause, anomalies []model.Anomaly) model.Cause {
	for _, i := range c.Supporting {
		if anomalies[i].Confidence < weakSupportThreshold {
			c.Confidence -= weakSupportPenalty
		}
	}
	if c.Confidence < 0.05 {
		c.Confidence = 0.05
	}
	c.Confidence = math.Round(c.Confidence*100) / 100
	return c
}

// find anomalies of one index/kind in the period; detail "" matches all
func (pv periodView) find(index, kind, detail string) []int {
	var out []int
	for _, i := range pv.anomalies {
		a := pv.in.Anomalies[i]
		if a.Index != index || a.Kind != kind {
			continue
		}
		if detail != "" && a.Detail != detail {
			continue
		}
		out = append(out, i)
	}
	return out
}

func (pv periodView) ndviAnomalies() []int {
	var out []int
	for _, i := range pv.anomalies {
		if pv.in.Anomalies[i].Index == "ndvi" {
			out = append(out, i)
		}
	}
	return out
}

// ndviDrop relative NDVI decline vs the previous aggregated month
func (pv periodView) ndviDrop() (float64, bool) {
	for i, a := range pv.in.NDVI {
		if a.Period != pv.period {
			continue
		}
		if i == 0 || pv.in.NDVI[i-1].Mean == 0 {
			return 0, false
		}
		prev := pv.in.NDVI[i-1].Mean
		return (prev - a.Mean) / math.Abs(prev), true
	}
	return 0, false
}

func (pv periodView) ndviMean() (float64, bool) {
	for _, a := range pv.in.NDVI {
		if a.Period == pv.period {
			return a.Mean, true
		}
	}
	return 0, false
}

func (pv periodView) prevNDVIMean() (float64, bool) {
	for i, a := range pv.in.NDVI {
		if a.Period == pv.period && i > 0 {
			return pv.in.NDVI[i-1].Mean, true
		}
	}
	return 0, false
}

// neighboursClean no NDVI anomalies in the calendar-adjacent months
func (pv periodView) neighboursClean() bool {
	months := pv.in.Window.Months()
	for _, a := range pv.in.Anomalies {
		if a.Index != "ndvi" || a.Period == pv.period {
			continue
		}
		if pv.monthPos > 0 && a.Period == months[pv.monthPos-1] {
			return false
		}
		if pv.monthPos+1 < len(months) && a.Period == months[pv.monthPos+1] {
			return false
		}
	}
	return true
}

func dedupe(idx []int) []int {
	sort.Ints(idx)
	out := idx[:0]
	for i, v := range idx {
		if i == 0 || v != idx[i-1] {
			out = append(out, v)
		}
	}
	return out
}
