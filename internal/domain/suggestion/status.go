// Package suggestion models staff-proposed discounts awaiting manager
// review, with a time-bound validity window and a terminal-once lifecycle.
package suggestion

// Status represents a suggestion's position in the review lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

var validStatuses = map[Status]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusExpired:  true,
}

var terminalStatuses = map[Status]bool{
	StatusApproved: true,
	StatusRejected: true,
	StatusExpired:  true,
}

// transitions enumerates every permitted status change. Pending is the
// only non-terminal status; once resolved a suggestion never moves again.
var transitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected, StatusExpired},
}

// IsTerminal returns true if the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a known lifecycle status.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// CanTransition returns true if moving from s to target is a permitted
// lifecycle transition.
func (s Status) CanTransition(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}
