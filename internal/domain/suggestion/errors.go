package suggestion

import "errors"

var (
	// ErrSuggestionsDisabled is returned when a salon has turned off the
	// staff suggestion flow.
	ErrSuggestionsDisabled = errors.New("staff suggestions are disabled for this salon")

	// ErrReasonRequired is returned when a suggestion is submitted
	// without a justification.
	ErrReasonRequired = errors.New("suggestion reason required")

	// ErrSuggestionExpired is returned when a review action arrives
	// after the suggestion's validity window has passed.
	ErrSuggestionExpired = errors.New("suggestion has expired")

	// ErrAlreadyResolved is returned when a review action targets a
	// suggestion that is already in a terminal status.
	ErrAlreadyResolved = errors.New("suggestion already resolved")

	// ErrNotFound is returned when no suggestion exists with the given ID.
	ErrNotFound = errors.New("suggestion not found")
)
