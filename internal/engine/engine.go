package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/noxwise/noxwise/internal/config"
	"github.com/noxwise/noxwise/internal/turbine"
)

// State is the full input bundle for one evaluation. It is constructed fresh
// per call and never mutated by Evaluate.
type State struct {
	// Band is the active load band: envelope, medians, limits, model label.
	Band config.Band

	// Params is the current parameter vector. All nine canonical fields must
	// be present or Evaluate fails with a turbine.MissingFieldError.
	Params turbine.Vector

	// Prediction is the NOx value the external model returned for Params.
	Prediction float64

	// PrevPrediction and PrevParams carry the previous evaluation of the same
	// band; both nil on the first evaluation.
	PrevPrediction *float64
	PrevParams     turbine.Vector

	// Tuning holds the list caps, the diff threshold, and the rule thresholds.
	Tuning config.EngineConfig
}

// FieldDiff is one entry of the "what changed" list.
type FieldDiff struct {
	Field     string  `json:"field"`
	Old       float64 `json:"old"`
	New       float64 `json:"new"`
	PctChange float64 `json:"pct_change"`
}

// Result is the output bundle of one evaluation.
type Result struct {
	// Model is the display label of the band's prediction model.
	Model string `json:"model"`

	// Prediction echoes the evaluated NOx value.
	Prediction float64 `json:"prediction"`

	// DeltaPct is the percent difference vs. the reference NOx value
	// (baseline if configured, else the previous prediction). Nil when no
	// reference exists.
	DeltaPct *float64 `json:"delta_pct"`

	Risk Risk `json:"risk"`

	// Advisories is the short summary list (never empty, capped).
	Advisories []string `json:"advisories"`

	// Actions is the ranked action list (never empty, capped); earlier
	// entries carry higher priority.
	Actions []string `json:"actions"`

	// Diffs lists fields that moved at least the configured percentage since
	// the previous vector, sorted by descending |pct change|.
	Diffs []FieldDiff `json:"diffs"`
}

// Evaluate runs the full rule set against st. It is pure: no I/O, no clock,
// no hidden state. The only error it returns is a validation failure on the
// current parameter vector — malformed input is a contract violation and must
// fail fast rather than be silently zero-filled.
func Evaluate(st State) (*Result, error) {
	if err := st.Params.Validate(); err != nil {
		return nil, err
	}

	t := st.Tuning.Thresholds
	res := &Result{
		Model:      st.Band.Label,
		Prediction: st.Prediction,
	}

	// Step 1 — reference delta. Baseline wins over the previous prediction;
	// a zero reference means no percent delta is computable.
	reference := st.Band.BaselineNOx
	if reference == nil {
		reference = st.PrevPrediction
	}
	if reference != nil && *reference != 0 {
		d := (st.Prediction - *reference) / *reference * 100
		res.DeltaPct = &d
	}

	// Step 2 — envelope check. Any single out-of-range field pins the risk
	// to LowConfidence for the rest of the evaluation.
	var outOfRange []string
	for _, f := range turbine.Fields {
		v, ok := st.Params[f]
		if !ok {
			continue
		}
		r, ok := st.Band.Envelope[f]
		if !ok {
			continue
		}
		if !r.Contains(v) {
			outOfRange = append(outOfRange, f)
		}
	}

	risk := RiskNormal
	if len(outOfRange) > 0 {
		risk = RiskLowConfidence
	}

	// Step 3 — baseline risk from the delta and the site limit. Watch covers
	// the band DeltaWatchPct < |delta| <= DeltaHighPct only: a drop beyond the
	// high threshold is favourable movement, not an escalation.
	if risk != RiskLowConfidence {
		switch {
		case (res.DeltaPct != nil && *res.DeltaPct > t.DeltaHighPct) ||
			(st.Band.SiteNOxLimit != nil && st.Prediction > *st.Band.SiteNOxLimit):
			risk = RiskHigh
		case res.DeltaPct != nil && math.Abs(*res.DeltaPct) > t.DeltaWatchPct &&
			math.Abs(*res.DeltaPct) <= t.DeltaHighPct:
			risk = RiskWatch
		}
	}

	// Step 4 — ambient adjustment on the saturating ladder. bump no-ops on
	// LowConfidence, so the absorbing state survives these.
	at := st.Params[turbine.AT]
	switch {
	case at < t.VeryColdC:
		risk = bump(risk, 2)
	case at < t.ColdC:
		risk = bump(risk, 1)
	case at > t.WarmC:
		risk = bump(risk, -1)
	}
	if at < t.ColdC && st.Params[turbine.AFDP] < t.FilterCleanMbar {
		risk = bump(risk, 1)
	}
	res.Risk = risk

	// Step 5 — advisory assembly starts with the delta line and the
	// risk-specific line; rule checks below append context lines.
	var advisories []string
	if res.DeltaPct != nil {
		if *res.DeltaPct >= 0 {
			advisories = append(advisories, fmt.Sprintf(advNOxUp, *res.DeltaPct))
		} else {
			advisories = append(advisories, fmt.Sprintf(advNOxDown, -*res.DeltaPct))
		}
	}
	switch risk {
	case RiskHigh:
		advisories = append(advisories, advRiskHigh)
	case RiskWatch:
		advisories = append(advisories, advRiskWatch)
	case RiskLowConfidence:
		advisories = append(advisories, advRiskLowConf)
	}

	// Step 6 — ordered rule evaluation. Earlier rules have priority under
	// truncation, so the sequence below matters.
	var actions []string

	// a. Envelope violation.
	if len(outOfRange) > 0 {
		actions = append(actions, actionText[ruleOutOfRange])
	}

	// b. Band mismatch: the energy yield falls outside the span this band's
	// model was trained on.
	tey := st.Params[turbine.TEY]
	switch {
	case st.Band.YieldMin > 0 && st.Band.YieldMax > 0 && (tey < st.Band.YieldMin || tey > st.Band.YieldMax):
		actions = append(actions, fmt.Sprintf(actionText[ruleBandMismatch], tey, st.Band.Label))
	case st.Band.YieldMin > 0 && st.Band.YieldMax == 0 && tey < st.Band.YieldMin:
		actions = append(actions, fmt.Sprintf(actionText[ruleBandMismatch], tey, st.Band.Label))
	}

	// c. Ambient context.
	if at < t.ColdC {
		actions = append(actions, fmt.Sprintf(actionText[ruleColdDay], at))
	} else if at > t.WarmC {
		actions = append(actions, fmt.Sprintf(actionText[ruleWarmDay], at))
	}

	// d. Cold day with the inlet temperature near its envelope limit.
	tit := st.Params[turbine.TIT]
	if titEnv, ok := st.Band.Envelope[turbine.TIT]; ok && at < t.ColdC && tit >= titEnv.Max-t.InletHeadroomC {
		actions = append(actions, fmt.Sprintf(actionText[ruleLimitedHeadroom], tit))
	}

	// e. Cold air through a very clean filter.
	afdp := st.Params[turbine.AFDP]
	if at < t.ColdC && afdp < t.FilterCleanMbar {
		actions = append(actions, fmt.Sprintf(actionText[ruleFilterDriver], afdp))
		if res.DeltaPct != nil && *res.DeltaPct > 0 {
			advisories = append(advisories, advFilterDriver)
		}
	}

	// f. Filter loading up: absolute threshold or above the envelope.
	filterHigh := afdp > t.FilterHighMbar
	if env, ok := st.Band.Envelope[turbine.AFDP]; ok && afdp > env.Max {
		filterHigh = true
	}
	if filterHigh {
		actions = append(actions, fmt.Sprintf(actionText[ruleFilterLoading], afdp))
	}

	// g. Inlet temperature meaningfully above the band median. Skipped when
	// the band runs at its design limit — TIT high is normal there.
	if !st.Band.AtDesignLimit {
		if med, ok := st.Band.Medians[turbine.TIT]; ok && tit > med+t.InletAboveMedianC {
			actions = append(actions, fmt.Sprintf(actionText[ruleInletHigh], tit, med))
			advisories = append(advisories, advTempDominant)
		}
	}

	// h. Exhaust temperature above its envelope, or above a margin over the
	// band median when no envelope entry exists.
	tat := st.Params[turbine.TAT]
	exhaustHigh := false
	if env, ok := st.Band.Envelope[turbine.TAT]; ok {
		exhaustHigh = tat > env.Max
	} else if med, ok := st.Band.Medians[turbine.TAT]; ok {
		exhaustHigh = tat > med+t.ExhaustMarginC
	}
	if exhaustHigh {
		actions = append(actions, fmt.Sprintf(actionText[ruleExhaustHigh], tat))
		advisories = append(advisories, advExhaustDriver)
	}

	// i. Compressor discharge pressure away from the band median.
	cdp := st.Params[turbine.CDP]
	if med, ok := st.Band.Medians[turbine.CDP]; ok && med != 0 {
		dev := (cdp - med) / med
		if math.Abs(dev) > t.CDPDeviationFrac {
			actions = append(actions, fmt.Sprintf(actionText[ruleAirflowShift], cdp, dev*100))
			advisories = append(advisories, advAirflowDriver)
		}
	}

	// j. High humidity.
	if ah := st.Params[turbine.AH]; ah > t.HumidityHighPct {
		actions = append(actions, fmt.Sprintf(actionText[ruleHumidityHigh], ah))
	}

	// k. Ambient-only shift: the weather moved, the settings did not.
	if st.PrevParams != nil {
		atPct, atOK := turbine.PctChange(st.PrevParams[turbine.AT], at)
		titPct, titOK := turbine.PctChange(st.PrevParams[turbine.TIT], tit)
		tatPct, tatOK := turbine.PctChange(st.PrevParams[turbine.TAT], tat)
		if atOK && titOK && tatOK &&
			math.Abs(atPct) > t.AmbientShiftPct &&
			math.Abs(titPct) < t.TempStablePct &&
			math.Abs(tatPct) < t.TempStablePct {
			actions = append(actions, fmt.Sprintf(actionText[ruleAmbientShift], atPct))
			advisories = append(advisories, advWeatherDominant)
		}
	}

	// l. Large output jump on quiet inputs — points at instrumentation or an
	// external event, not an operating change.
	changes := turbine.Changes(st.PrevParams, st.Params)
	if st.PrevParams != nil && res.DeltaPct != nil &&
		math.Abs(*res.DeltaPct) > t.LargeJumpPct && len(changes) > 0 {
		var sum float64
		for _, c := range changes {
			sum += math.Abs(c.Pct)
		}
		if sum/float64(len(changes)) < t.QuietInputPct {
			actions = append(actions, fmt.Sprintf(actionText[ruleSensorCheck], math.Abs(*res.DeltaPct)))
		}
	}

	// m/n. Meta rules on the accumulated list.
	if len(actions) >= 3 {
		actions = append(actions, actionText[ruleMultipleDrivers])
	}
	if len(actions) >= 2 {
		actions = append(actions, actionText[rulePriorityOrder])
	}

	// Defaults and caps. Both lists are always non-empty.
	if len(actions) == 0 {
		actions = append(actions, actionText[ruleAllNormal])
	}
	if len(advisories) == 0 {
		advisories = append(advisories, advNormal)
	}
	res.Actions = truncate(actions, st.Tuning.MaxActions)
	res.Advisories = truncate(advisories, st.Tuning.MaxAdvisories)

	// Step 7 — diff list: shared fields that moved at least DiffMinPct,
	// sorted by descending |pct change|; canonical field order breaks ties.
	for _, c := range changes {
		if math.Abs(c.Pct) >= st.Tuning.DiffMinPct {
			res.Diffs = append(res.Diffs, FieldDiff{
				Field:     c.Field,
				Old:       c.Old,
				New:       c.New,
				PctChange: c.Pct,
			})
		}
	}
	sort.SliceStable(res.Diffs, func(i, j int) bool {
		return math.Abs(res.Diffs[i].PctChange) > math.Abs(res.Diffs[j].PctChange)
	})

	return res, nil
}

// truncate caps list at n entries, preserving insertion order.
func truncate(list []string, n int) []string {
	if n > 0 && len(list) > n {
		return list[:n]
	}
	return list
}
