package report

import "time"

// ValidateTransition validates a requested status change for a report holding
// activityCount activities.
func ValidateTransition(from, to Status, activityCount int) error {
	switch from {
	case StatusOpen:
		switch to {
		case StatusClosed:
			if activityCount < 1 {
				return ErrMonthEmpty
			}
			return nil
		case StatusOpen:
			return nil
		}
	case StatusClosed:
		switch to {
		case StatusOpen:
			return nil
		case StatusClosed:
			return ErrAlreadyClosed
		}
	}
	return ErrInvalidTransition
}

// RequireOpen rejects mutations while the report is closed.
func (r *Report) RequireOpen() error {
	if r.IsClosed() {
		return ErrMonthClosed
	}
	return nil
}

// Close moves the report to closed. It needs at least one activity.
func (r *Report) Close(now time.Time) error {
	if err := ValidateTransition(r.Status, StatusClosed, r.Len()); err != nil {
		return err
	}
	r.Status = StatusClosed
	r.ClosedAt = &now
	return nil
}

// Reopen moves the report back to open and reports whether it was closed.
func (r *Report) Reopen() bool {
	wasClosed := r.IsClosed()
	r.Status = StatusOpen
	r.ClosedAt = nil
	return wasClosed
}
