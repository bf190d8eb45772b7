package activity

import "math"

// snapshot keeps the computed values of an unmodified activity as its reference. Later
// edits leave an existing reference alone.
func (a *Activity) snapshot() {
	if a.Reference == nil {
		a.Reference = a.reference()
	}
}

// EditField overrides a text field. A duration edit rescales the day-equivalents, see
// EditDuration; other fields keep the quantities but re-resolve the billing rate.
func (a *Activity) EditField(f Field, value string, b Billing) error {
	if f == FieldDuration {
		return a.EditDuration(value, b)
	}
	slot := a.Overrides.slot(f)
	if slot == nil {
		return ErrUnknownField
	}
	a.snapshot()
	v := value
	*slot = &v
	a.IsModified = true
	a.BillableAmount = a.DayEquivalents * ResolveRate(a, b)
	return nil
}

// SetDayEquivalents overrides the day-equivalents; hours and amount follow from it.
func (a *Activity) SetDayEquivalents(days float64, b Billing) error {
	if !validQuantity(days) {
		return ErrInvalidValue
	}
	a.overrideDays(days, b)
	return nil
}

func (a *Activity) overrideDays(days float64, b Billing) {
	a.snapshot()
	a.dayOverride = true
	a.IsModified = true
	a.setDays(days, b)
}

// EditDuration overrides the duration text and scales the reference day-equivalents by
// the ratio of new to original hours. With no original hours the new hours are converted
// directly using the project's hours per day.
func (a *Activity) EditDuration(value string, b Billing) error {
	newHours := ParseDuration(value)
	if !validQuantity(newHours) {
		return ErrInvalidValue
	}
	a.snapshot()
	v := value
	a.Overrides.Duration = &v

	var days float64
	if origHours := ParseDuration(a.Original.Duration); origHours > 0 {
		days = a.Reference.DayEquivalents * newHours / origHours
	} else {
		days = newHours / b.hoursPerDay()
	}
	a.overrideDays(days, b)
	return nil
}

// Restore drops every override and recomputes the activity from its original data.
// It reports whether there was anything to restore.
func (a *Activity) Restore(b Billing) bool {
	if !a.IsModified {
		return false
	}
	a.Overrides = FieldOverrides{}
	a.dayOverride = false
	a.Reference = nil
	a.IsModified = false

	base := Compute(a.Original, b)
	a.HasRateError = base.RateError
	a.set(base.DayEquivalents, base.Hours, b)
	return true
}

// RestoreMany restores each activity and returns how many were modified.
func RestoreMany(acts []*Activity, b Billing) int {
	n := 0
	for _, a := range acts {
		if a.Restore(b) {
			n++
		}
	}
	return n
}

func validQuantity(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
