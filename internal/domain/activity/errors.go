package activity

import "errors"

var (
	// ErrEmptySelection indicates an operation received no activities.
	ErrEmptySelection = errors.New("no activities selected")
	// ErrZeroTotal indicates a proportional operation over a zero total.
	ErrZeroTotal = errors.New("selected total is zero")
	// ErrNoExcess indicates no selected activity exceeds one day.
	ErrNoExcess = errors.New("no selected activity exceeds one day")
	// ErrNoRecipients indicates every selected activity exceeds one day.
	ErrNoRecipients = errors.New("no activities to receive the excess")
	// ErrUnknownField indicates an edit to a field that cannot be overridden.
	ErrUnknownField = errors.New("unknown activity field")
	// ErrInvalidValue indicates a negative or non-finite quantity.
	ErrInvalidValue = errors.New("invalid quantity")
)
