package core

// Availability describes whether an agent can currently take on work.
type Availability string

const (
	// Available means the agent can receive work.
	Available Availability = "available"
	// Busy means the agent is registered but saturated.
	Busy Availability = "busy"
	// Offline means the agent is registered but unreachable.
	Offline Availability = "offline"
)

// Agent is a named autonomous participant in the coordination system.
// Identity is the unique name; capability tags and availability are the only
// attributes, and availability is the only field mutated after registration.
type Agent struct {
	Name         string       `json:"name"`
	Capabilities []string     `json:"capabilities,omitempty"`
	Availability Availability `json:"availability"`
}

// HasCapability reports whether the agent carries the given capability tag.
func (a Agent) HasCapability(tag string) bool {
	for _, c := range a.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}
