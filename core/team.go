package core

import "time"

// TeamStatus tracks the team state machine: forming -> active -> completed |
// dissolved. Terminal states reject further transitions.
type TeamStatus string

const (
	// TeamForming means membership confirmation is pending.
	TeamForming TeamStatus = "forming"
	// TeamActive means every member acknowledged.
	TeamActive TeamStatus = "active"
	// TeamCompleted means the team finished its problem.
	TeamCompleted TeamStatus = "completed"
	// TeamDissolved means the team disbanded without completing.
	TeamDissolved TeamStatus = "dissolved"
)

// Terminal reports whether the status rejects further transitions.
func (s TeamStatus) Terminal() bool {
	return s == TeamCompleted || s == TeamDissolved
}

// ComplexityTier grades a problem definition.
type ComplexityTier string

const (
	// TierLow marks routine problems.
	TierLow ComplexityTier = "low"
	// TierModerate marks problems needing coordination.
	TierModerate ComplexityTier = "moderate"
	// TierHigh marks problems needing sustained multi-agent effort.
	TierHigh ComplexityTier = "high"
	// TierExtreme marks open-ended or research-grade problems.
	TierExtreme ComplexityTier = "extreme"
)

// ResourceBudget bounds what a team may spend. All fields must be
// non-negative at formation time.
type ResourceBudget struct {
	Monetary       float64 `json:"monetary"`
	ComputeCredits float64 `json:"compute_credits"`
}

// ProblemDefinition describes the work a team is formed for.
type ProblemDefinition struct {
	Type       string           `json:"type"`
	Complexity ComplexityTier   `json:"complexity"`
	Attributes map[string]Value `json:"attributes,omitempty"`
	Deadline   time.Time        `json:"deadline"`
	Resources  ResourceBudget   `json:"resources"`
}

// Team is a resource- and deadline-bound group formed to execute a defined
// problem. Deadline expiry is not enforced by the core; callers query status
// against the deadline.
type Team struct {
	ID      string            `json:"id"`
	Purpose string            `json:"purpose"`
	Members []string          `json:"members"`
	Problem ProblemDefinition `json:"problem"`
	Status  TeamStatus        `json:"status"`
	Created time.Time         `json:"created"`
}
