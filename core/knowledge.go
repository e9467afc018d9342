package core

import "time"

// ApplicabilityAll is the wildcard tag marking a knowledge item as relevant
// to every agent.
const ApplicabilityAll = "*"

// KnowledgeItem is a shared, append-only fact with provenance and confidence.
// Items are never mutated after creation; corrections are new items that
// reference the corrected one via RelatedKnowledge.
type KnowledgeItem struct {
	ID               string           `json:"id"`
	Source           string           `json:"source"`
	Category         string           `json:"category"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Data             map[string]Value `json:"data,omitempty"`
	Confidence       float64          `json:"confidence"`
	Applicability    []string         `json:"applicability"`
	RelatedKnowledge []string         `json:"related_knowledge,omitempty"`
	Created          time.Time        `json:"created"`
}

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// AppliesTo reports whether the item is relevant to the given agent, matching
// the agent's name or any of its capability tags against the applicability
// set, or the wildcard.
func (k KnowledgeItem) AppliesTo(a Agent) bool {
	for _, tag := range k.Applicability {
		if tag == ApplicabilityAll || tag == a.Name || a.HasCapability(tag) {
			return true
		}
	}
	return false
}
