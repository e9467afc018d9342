package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coordmesh/coordmesh/core"
)

// InMemory is a process-local core.Registry implementation storing agents in
// a map guarded by an RWMutex. Reads return defensive copies so callers
// cannot mutate registry state.
type InMemory struct {
	mu     sync.RWMutex
	agents map[string]core.Agent
}

// NewInMemory constructs an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{agents: make(map[string]core.Agent)}
}

// Register adds an agent. Registering an existing name fails; availability
// defaults to Available when unset.
func (r *InMemory) Register(a core.Agent) error {
	if a.Name == "" {
		return fmt.Errorf("%w: empty agent name", core.ErrUnknownAgent)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[a.Name]; ok {
		return fmt.Errorf("%w: agent %q already registered", core.ErrDuplicateParticipant, a.Name)
	}
	if a.Availability == "" {
		a.Availability = core.Available
	}
	a.Capabilities = cloneTags(a.Capabilities)
	r.agents[a.Name] = a
	return nil
}

// Deregister removes an agent by name. History referencing the agent remains
// valid; subsequent sends to the name fail at the hub.
func (r *InMemory) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[name]; !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownAgent, name)
	}
	delete(r.agents, name)
	return nil
}

// Exists reports whether an agent with the given name is registered.
func (r *InMemory) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[name]
	return ok
}

// Get returns a copy of the named agent.
func (r *InMemory) Get(name string) (core.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return core.Agent{}, false
	}
	a.Capabilities = cloneTags(a.Capabilities)
	return a, true
}

// List returns all registered agents sorted by name.
func (r *InMemory) List() []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agents := make([]core.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		a.Capabilities = cloneTags(a.Capabilities)
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents
}

// ListByCapability returns agents carrying the given capability tag, sorted
// by name.
func (r *InMemory) ListByCapability(tag string) []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var agents []core.Agent
	for _, a := range r.agents {
		if a.HasCapability(tag) {
			a.Capabilities = cloneTags(a.Capabilities)
			agents = append(agents, a)
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents
}

// SetAvailability updates the only mutable agent attribute.
func (r *InMemory) SetAvailability(name string, av core.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[name]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownAgent, name)
	}
	a.Availability = av
	r.agents[name] = a
	return nil
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
