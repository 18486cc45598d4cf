package approval

import "errors"

var (
	// ErrAuthorizationRequired is returned when a discount needs manager
	// or owner sign-off and no syntactically valid PIN was supplied, or
	// the supplied PIN failed verification.
	ErrAuthorizationRequired = errors.New("authorization required")
)
