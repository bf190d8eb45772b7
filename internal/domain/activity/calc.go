package activity

// Result is the outcome of computing an activity from its original data.
type Result struct {
	DayEquivalents float64
	Hours          float64
	// RateError is set when the billing rate needed by the mode is missing or not positive.
	RateError bool
}

// Compute derives day-equivalents and hours from original data under the billing mode.
// A missing rate yields zero quantities with RateError set, never an error.
func Compute(o Original, b Billing) Result {
	hpd := b.hoursPerDay()
	switch b.mode() {
	case ModeHours:
		hours := ParseDuration(o.Duration)
		return Result{DayEquivalents: hours / hpd, Hours: hours}
	case ModeCollaboratorRate:
		rate, ok := b.collaboratorRate(o.Collaborator)
		if !ok {
			return Result{RateError: true}
		}
		days := o.Amount / rate
		return Result{DayEquivalents: days, Hours: days * hpd}
	default:
		if b.DailyRate <= 0 {
			return Result{RateError: true}
		}
		days := o.Amount / b.DailyRate
		return Result{DayEquivalents: days, Hours: days * hpd}
	}
}

func (b Billing) collaboratorRate(name string) (float64, bool) {
	rate, ok := b.CollaboratorRates[name]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// ResolveRate returns the daily rate used to bill the activity: the collaborator's rate
// under ModeCollaboratorRate when one is configured, the project daily rate otherwise.
func ResolveRate(a *Activity, b Billing) float64 {
	if b.mode() == ModeCollaboratorRate {
		if rate, ok := b.collaboratorRate(a.Collaborator()); ok {
			return rate
		}
	}
	return b.DailyRate
}

func (a *Activity) set(days, hours float64, b Billing) {
	a.DayEquivalents = days
	a.Hours = hours
	a.BillableAmount = days * ResolveRate(a, b)
}

func (a *Activity) setDays(days float64, b Billing) {
	a.set(days, days*b.hoursPerDay(), b)
}

func (a *Activity) reference() *Reference {
	return &Reference{
		DayEquivalents: a.DayEquivalents,
		Hours:          a.Hours,
		BillableAmount: a.BillableAmount,
	}
}

// RecalculateAll re-derives every activity after a billing change. Activities with a
// manual day-equivalents value keep it and only refresh hours, amount and their reference
// values; the rest are recomputed from original data.
func RecalculateAll(acts []Activity, b Billing) {
	for i := range acts {
		a := &acts[i]
		base := Compute(a.Original, b)
		a.HasRateError = base.RateError
		if a.dayOverride {
			days := a.DayEquivalents
			a.set(base.DayEquivalents, base.Hours, b)
			a.Reference = a.reference()
			a.setDays(days, b)
			continue
		}
		a.set(base.DayEquivalents, base.Hours, b)
		if a.IsModified {
			a.Reference = a.reference()
		}
	}
}
