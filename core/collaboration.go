package core

import "time"

// SessionStatus tracks the collaboration session state machine. Transitions
// are monotonic: proposed -> active -> resolved | abandoned. Terminal states
// reject further transitions.
type SessionStatus string

const (
	// SessionProposed means the session awaits participant acknowledgment.
	SessionProposed SessionStatus = "proposed"
	// SessionActive means at least one participant acknowledged.
	SessionActive SessionStatus = "active"
	// SessionResolved means the session closed with an outcome.
	SessionResolved SessionStatus = "resolved"
	// SessionAbandoned means the session closed without one.
	SessionAbandoned SessionStatus = "abandoned"
)

// Terminal reports whether the status rejects further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionResolved || s == SessionAbandoned
}

// CollaborationSession is a multi-party negotiation around a shared goal.
type CollaborationSession struct {
	ID           string           `json:"id"`
	Initiator    string           `json:"initiator"`
	Participants []string         `json:"participants"`
	Goal         string           `json:"goal"`
	Context      map[string]Value `json:"context,omitempty"`
	Status       SessionStatus    `json:"status"`
	Outcome      string           `json:"outcome,omitempty"`
	Created      time.Time        `json:"created"`
	Resolved     time.Time        `json:"resolved,omitzero"`
}

// Age returns the elapsed time since the session was proposed. Exposed so a
// caller or scheduler can enforce proposal timeouts; the engine itself runs
// no timers.
func (s CollaborationSession) Age(now time.Time) time.Duration {
	return now.Sub(s.Created)
}
