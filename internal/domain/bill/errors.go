package bill

import "errors"

var (
	// ErrInvalidPrice is returned when an override price falls outside
	// the [0, original price] bound.
	ErrInvalidPrice = errors.New("override price outside original price bound")

	// ErrReasonRequired is returned when a discount justification is
	// missing or too short.
	ErrReasonRequired = errors.New("discount reason required")

	// ErrInsufficientPayment is returned when a bill is finalized with
	// less money received than the grand total.
	ErrInsufficientPayment = errors.New("amount received is less than grand total")

	// ErrDailyLimitExceeded is returned when an override would push the
	// salon past its configured daily discount cap.
	ErrDailyLimitExceeded = errors.New("daily discount limit exceeded")
)
