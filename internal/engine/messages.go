package engine

// ruleID identifies one triggerable condition in the action rule set.
// The catalog below decouples the taxonomy of conditions from their display
// text, so the wording can change without touching the rule logic.
type ruleID string

const (
	ruleOutOfRange      ruleID = "out_of_range"
	ruleBandMismatch    ruleID = "band_mismatch"
	ruleColdDay         ruleID = "cold_day"
	ruleWarmDay         ruleID = "warm_day"
	ruleLimitedHeadroom ruleID = "limited_headroom"
	ruleFilterDriver    ruleID = "filter_driver"
	ruleFilterLoading   ruleID = "filter_loading"
	ruleInletHigh       ruleID = "inlet_high"
	ruleExhaustHigh     ruleID = "exhaust_high"
	ruleAirflowShift    ruleID = "airflow_shift"
	ruleHumidityHigh    ruleID = "humidity_high"
	ruleAmbientShift    ruleID = "ambient_shift"
	ruleSensorCheck     ruleID = "sensor_check"
	ruleMultipleDrivers ruleID = "multiple_drivers"
	rulePriorityOrder   ruleID = "priority_order"
	ruleAllNormal       ruleID = "all_normal"
)

// actionText is the operator-facing wording for each rule. Entries with
// %-verbs are filled in by the rule that appends them.
var actionText = map[ruleID]string{
	ruleOutOfRange: "One or more inputs are outside the recommended operating range for this band — " +
		"bring the flagged readings back inside the envelope before acting on the prediction.",
	ruleBandMismatch: "Energy yield %.1f MWh does not match the %s band — " +
		"switch to the band that covers the current load so the right model is used.",
	ruleColdDay: "Cold ambient air (%.1f °C) increases flame temperature and NOx formation — " +
		"expect higher readings today even with unchanged settings.",
	ruleWarmDay: "Warm ambient air (%.1f °C) generally suppresses NOx formation — " +
		"readings should trend lower without intervention.",
	ruleLimitedHeadroom: "Inlet temperature %.0f °C is close to its limit on a cold day — " +
		"tuning headroom is limited, so make only small adjustments.",
	ruleFilterDriver: "The inlet filter reads very clean (%.2f mbar) in cold air — " +
		"dense airflow is likely driving combustion temperature and NOx.",
	ruleFilterLoading: "Filter differential pressure %.2f mbar is high — " +
		"schedule filter inspection or replacement; a loaded filter starves airflow.",
	ruleInletHigh: "Inlet temperature %.0f °C sits well above the band median %.0f °C — " +
		"reducing firing temperature is the most direct NOx lever.",
	ruleExhaustHigh: "Exhaust temperature %.0f °C is above its expected range — " +
		"check firing temperature and cooling flows.",
	ruleAirflowShift: "Compressor discharge pressure %.1f mbar deviates %.1f%% from the band median — " +
		"airflow has shifted; check inlet guide vanes and bleed settings.",
	ruleHumidityHigh: "Ambient humidity %.0f%% is unusually high — " +
		"humid air lowers flame temperature, so readings may run below the model's expectation.",
	ruleAmbientShift: "Ambient temperature moved %.1f%% while inlet and exhaust temperatures held steady — " +
		"the change is weather, not settings; no tuning action is needed.",
	ruleSensorCheck: "Predicted NOx jumped %.1f%% with almost no input change — " +
		"verify sensor calibration and recent external events before adjusting anything.",
	ruleMultipleDrivers: "Multiple drivers are active at once — " +
		"change one parameter at a time so each effect can be attributed.",
	rulePriorityOrder: "Suggested priority: restore envelope compliance, then airflow, then firing temperature, then ambient compensation.",
	ruleAllNormal: "All parameters are inside the recommended envelope — the unit is operating normally.",
}

// Advisory summary lines (the ≤3-entry list above the action list).
const (
	advNOxUp       = "Predicted NOx is %.1f%% above the reference value."
	advNOxDown     = "Predicted NOx is %.1f%% below the reference value."
	advRiskHigh    = "High risk: the prediction exceeds safe bounds — act on the listed drivers now."
	advRiskWatch   = "Watch: the prediction is drifting from the reference — monitor the next few readings."
	advRiskLowConf = "Low confidence: readings are outside the recommended envelope, so treat this prediction as indicative only."
	advNormal      = "Operating normally — no action required."

	advWeatherDominant = "Weather is the dominant driver of the current change."
	advTempDominant    = "Firing temperature is the dominant driver of the current reading."
	advAirflowDriver   = "Airflow shift is contributing to the current reading."
	advExhaustDriver   = "Exhaust temperature is running hot relative to this band."
	advFilterDriver    = "Clean-filter airflow is pushing NOx upward."
)
