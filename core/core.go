package core

import "github.com/google/uuid"

// NewID generates a unique identifier for messages, knowledge items, sessions
// and teams. Identifiers are opaque strings safe for JSON transport.
func NewID() string { return uuid.NewString() }

// Registry provides shared read access to the set of known agents. All
// components validate participants against it; only the orchestrator (or an
// explicit admin operation) mutates membership.
type Registry interface {
	Register(a Agent) error
	Deregister(name string) error
	Exists(name string) bool
	Get(name string) (Agent, bool)
	List() []Agent
	ListByCapability(tag string) []Agent
}

// MessageSender is the slice of the Communication Hub used by components that
// emit messages (knowledge notifications, collaboration proposals). Send
// returns the assigned message id after enqueueing; delivery is asynchronous.
type MessageSender interface {
	Send(msg Message) (string, error)
}

// KnowledgeSharer accepts knowledge items for storage and propagation. The hub
// delegates to it so callers have a single ingress point for cross-agent
// traffic.
type KnowledgeSharer interface {
	Share(item KnowledgeItem) (string, error)
}

// CollaborationBroker creates collaboration sessions. The hub delegates to it
// for the same single-ingress reason as KnowledgeSharer.
type CollaborationBroker interface {
	RequestCollaboration(initiator string, participants []string, goal string, context map[string]Value) (string, error)
}
