package engine

// Risk is the coarse operator-facing classification of how much caution a
// prediction warrants.
type Risk string

const (
	RiskNormal Risk = "normal"
	RiskWatch  Risk = "watch"
	RiskHigh   Risk = "high"

	// RiskLowConfidence means at least one reading sits outside the band's
	// operating envelope: the model is extrapolating and its output should
	// not be trusted enough to grade. It absorbs all later adjustments.
	RiskLowConfidence Risk = "low_confidence"
)

// ladder is the ordered severity scale bump moves along.
var ladder = [...]Risk{RiskNormal, RiskWatch, RiskHigh}

// bump moves r by steps on the ladder (negative steps de-escalate),
// saturating at both ends. LowConfidence is absorbing: bump is a no-op.
func bump(r Risk, steps int) Risk {
	if r == RiskLowConfidence {
		return r
	}
	idx := 0
	for i, lv := range ladder {
		if lv == r {
			idx = i
			break
		}
	}
	idx += steps
	if idx < 0 {
		idx = 0
	}
	if idx > len(ladder)-1 {
		idx = len(ladder) - 1
	}
	return ladder[idx]
}
