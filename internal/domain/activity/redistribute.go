package activity

// Outcome summarises a redistribution over a selection.
type Outcome struct {
	Affected int     `json:"affected"`
	OldTotal float64 `json:"old_total"`
	NewTotal float64 `json:"new_total"`
}

// Excess is a selected activity above the one-day cap.
type Excess struct {
	Activity *Activity
	Excess   float64
}

// Total sums the day-equivalents of acts.
func Total(acts []*Activity) float64 {
	var sum float64
	for _, a := range acts {
		sum += a.DayEquivalents
	}
	return sum
}

// ApplyRounding scales the selection proportionally so its day-equivalents sum to target.
// Every activity but the last is scaled by target/current; the last takes the residual so
// the target is met exactly. Intermediate values are not rounded.
func ApplyRounding(sel []*Activity, target float64, b Billing) (Outcome, error) {
	if len(sel) == 0 {
		return Outcome{}, ErrEmptySelection
	}
	if !validQuantity(target) {
		return Outcome{}, ErrInvalidValue
	}
	current := Total(sel)
	if current == 0 {
		return Outcome{}, ErrZeroTotal
	}

	scaleTo(sel, current, target, b)
	return Outcome{Affected: len(sel), OldTotal: current, NewTotal: Total(sel)}, nil
}

func scaleTo(sel []*Activity, current, target float64, b Billing) {
	ratio := target / current
	last := len(sel) - 1
	var distributed float64
	for i, a := range sel {
		days := target - distributed
		if i < last {
			days = a.DayEquivalents * ratio
			distributed += days
		}
		a.overrideDays(days, b)
	}
}

// DistributeUniform overwrites every selected activity with total/len(sel).
func DistributeUniform(sel []*Activity, total float64, b Billing) (Outcome, error) {
	if len(sel) == 0 {
		return Outcome{}, ErrEmptySelection
	}
	if !validQuantity(total) {
		return Outcome{}, ErrInvalidValue
	}
	before := Total(sel)
	each := total / float64(len(sel))
	for _, a := range sel {
		a.overrideDays(each, b)
	}
	return Outcome{Affected: len(sel), OldTotal: before, NewTotal: Total(sel)}, nil
}

// FindExcess returns the selected activities above one day with their surplus.
func FindExcess(sel []*Activity) []Excess {
	var out []Excess
	for _, a := range sel {
		if a.DayEquivalents > 1 {
			out = append(out, Excess{Activity: a, Excess: a.DayEquivalents - 1})
		}
	}
	return out
}

// RedistributeExcess caps every selected activity above one day at exactly one and
// moves the removed surplus onto the remaining selected activities: proportionally to
// their current values, or evenly when those are all zero.
func RedistributeExcess(sel []*Activity, b Billing) (Outcome, error) {
	if len(sel) == 0 {
		return Outcome{}, ErrEmptySelection
	}
	excess := FindExcess(sel)
	if len(excess) == 0 {
		return Outcome{}, ErrNoExcess
	}
	capped := make(map[*Activity]struct{}, len(excess))
	var surplus float64
	for _, e := range excess {
		capped[e.Activity] = struct{}{}
		surplus += e.Excess
	}
	recipients := make([]*Activity, 0, len(sel)-len(excess))
	for _, a := range sel {
		if _, ok := capped[a]; !ok {
			recipients = append(recipients, a)
		}
	}
	if len(recipients) == 0 {
		return Outcome{}, ErrNoRecipients
	}

	before := Total(sel)
	recipientTotal := Total(recipients)
	for _, e := range excess {
		e.Activity.overrideDays(1, b)
	}
	if recipientTotal > 0 {
		scaleTo(recipients, recipientTotal, recipientTotal+surplus, b)
	} else {
		each := surplus / float64(len(recipients))
		for _, a := range recipients {
			a.overrideDays(each, b)
		}
	}
	return Outcome{Affected: len(sel), OldTotal: before, NewTotal: Total(sel)}, nil
}
