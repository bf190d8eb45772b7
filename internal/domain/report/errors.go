package report

import "errors"

var (
	// ErrMonthClosed indicates a mutation against a closed month.
	ErrMonthClosed = errors.New("month is closed")
	// ErrAlreadyClosed indicates a close request for a closed month.
	ErrAlreadyClosed = errors.New("month already closed")
	// ErrMonthEmpty indicates a close request for a month without activities.
	ErrMonthEmpty = errors.New("month has no activities")
	// ErrInvalidTransition indicates an unknown status transition.
	ErrInvalidTransition = errors.New("invalid month status transition")
	// ErrInvalidMonth indicates a month key not in YYYY-MM form.
	ErrInvalidMonth = errors.New("invalid month key")
)
