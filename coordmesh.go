// Package coordmesh provides a high-level façade over the coordination core:
// the agent registry, the communication hub, the knowledge exchange and the
// collaboration engine. Most applications interact with this package by:
//  1. Creating a CoordMesh via New() (optionally overriding config, registry or logger)
//  2. Registering the participating agents
//  3. Calling Initialize() once, which cascades through hub, knowledge
//     exchange and collaboration engine in dependency order
//  4. Issuing operations (SendMessage, ShareKnowledge, RequestCollaboration,
//     FormTeam) and querying status
//
// The façade constructs and owns the component instances, passing references
// explicitly; there are no package-level singletons. All defaults are safe
// for in-process use; callers wanting observability supply a structured
// logger and callers wanting tuning supply a config (optionally loaded from
// YAML via the config package).
package coordmesh

import (
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coordmesh/coordmesh/collab"
	"github.com/coordmesh/coordmesh/config"
	"github.com/coordmesh/coordmesh/core"
	"github.com/coordmesh/coordmesh/hub"
	"github.com/coordmesh/coordmesh/knowledge"
	"github.com/coordmesh/coordmesh/logging"
	"github.com/coordmesh/coordmesh/registry"
)

// Initialization stage names reported by InitError.
const (
	StageRegistry      = "registry"
	StageHub           = "hub"
	StageKnowledge     = "knowledge"
	StageCollaboration = "collaboration"
)

// Options configures the CoordMesh instance.
type Options struct {
	// Config tunes all components. Defaults to config.Default().
	Config config.Config

	// Registry holds the participating agents. Defaults to an in-memory
	// registry; supply one to pre-load membership or share it externally.
	Registry core.Registry

	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// CoordMesh is the Master Orchestrator: the top-level façade aggregating the
// coordination components and the single lifecycle entry point for callers.
type CoordMesh struct {
	opts      Options
	registry  core.Registry
	hub       *hub.Hub
	knowledge *knowledge.Exchange
	collab    *collab.Engine

	initMu sync.Mutex
	stage  int
	ready  atomic.Bool
}

// New creates a CoordMesh instance with optional overrides. Components are
// constructed and wired here; nothing is live until Initialize.
func New(optFns ...func(o *Options)) *CoordMesh {
	opts := Options{
		Config:   config.Default(),
		Registry: registry.NewInMemory(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = registry.NewInMemory()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	h := hub.New(opts.Registry, func(o *hub.Options) {
		o.Config = opts.Config.Hub
		o.Logger = opts.Logger
	})
	k := knowledge.New(opts.Registry, h, func(o *knowledge.Options) {
		o.Config = opts.Config.Knowledge
		o.Logger = opts.Logger
	})
	c := collab.New(opts.Registry, h, k, func(o *collab.Options) {
		o.Config = opts.Config.Collaboration
		o.Logger = opts.Logger
	})
	h.BindKnowledge(k)
	h.BindCollaboration(c)

	return &CoordMesh{
		opts:      opts,
		registry:  opts.Registry,
		hub:       h,
		knowledge: k,
		collab:    c,
	}
}

// Initialize brings the components up in strict dependency order: registry
// readiness check, hub, knowledge exchange, collaboration engine. If a stage
// fails the error reports which one, no partial-success state is exposed, and
// a retry restarts from the failed stage.
func (m *CoordMesh) Initialize() error {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if m.ready.Load() {
		return nil
	}

	stages := []struct {
		name string
		run  func() error
	}{
		{StageRegistry, m.checkRegistry},
		{StageHub, m.hub.Initialize},
		{StageKnowledge, m.knowledge.Initialize},
		{StageCollaboration, m.collab.Initialize},
	}
	for ; m.stage < len(stages); m.stage++ {
		if err := stages[m.stage].run(); err != nil {
			return &core.InitError{Stage: stages[m.stage].name, Err: err}
		}
	}
	m.ready.Store(true)
	return nil
}

func (m *CoordMesh) checkRegistry() error {
	if m.registry == nil {
		return fmt.Errorf("%w: no registry", core.ErrDependencyNotReady)
	}
	return m.opts.Config.Validate()
}

// Ready reports whether initialization completed successfully.
func (m *CoordMesh) Ready() bool { return m.ready.Load() }

// Close stops background delivery workers.
func (m *CoordMesh) Close() { m.hub.Close() }

func (m *CoordMesh) guard() error {
	if !m.ready.Load() {
		return core.ErrNotReady
	}
	return nil
}

// ---- Registry administration ----
// Membership can be populated before Initialize; these are the only
// operations permitted on an uninitialized mesh.

// RegisterAgent adds an agent to the registry.
func (m *CoordMesh) RegisterAgent(a core.Agent) error { return m.registry.Register(a) }

// DeregisterAgent removes an agent. Existing history stays valid; subsequent
// sends to the name fail.
func (m *CoordMesh) DeregisterAgent(name string) error { return m.registry.Deregister(name) }

// SetAvailability updates an agent's availability state.
func (m *CoordMesh) SetAvailability(name string, av core.Availability) error {
	type availabilitySetter interface {
		SetAvailability(name string, av core.Availability) error
	}
	if s, ok := m.registry.(availabilitySetter); ok {
		return s.SetAvailability(name, av)
	}
	return fmt.Errorf("%w: registry does not support availability updates", core.ErrUnknownAgent)
}

// Agents returns all registered agents.
func (m *CoordMesh) Agents() []core.Agent { return m.registry.List() }

// AgentsByCapability returns agents carrying the given capability tag.
func (m *CoordMesh) AgentsByCapability(tag string) []core.Agent {
	return m.registry.ListByCapability(tag)
}

// ---- Messaging ----

// Send routes a fully-specified message and returns its id after enqueue.
func (m *CoordMesh) Send(msg core.Message) (string, error) {
	if err := m.guard(); err != nil {
		return "", err
	}
	return m.hub.Send(msg)
}

// SendMessage routes a point-to-point message.
func (m *CoordMesh) SendMessage(sender, recipient string, typ core.MessageType, priority core.Priority, content core.Content, requiresResponse bool) (string, error) {
	return m.Send(core.Message{
		Sender:           sender,
		Recipient:        recipient,
		Type:             typ,
		Priority:         priority,
		Content:          content,
		RequiresResponse: requiresResponse,
	})
}

// SendResponse answers a prior request identified by correlationID.
func (m *CoordMesh) SendResponse(sender, recipient string, priority core.Priority, content core.Content, correlationID string) (string, error) {
	return m.Send(core.Message{
		Sender:        sender,
		Recipient:     recipient,
		Type:          core.TypeResponse,
		Priority:      priority,
		Content:       content,
		CorrelationID: correlationID,
	})
}

// Broadcast fans a message out to the given recipient group, or to every
// other registered agent when the group is empty.
func (m *CoordMesh) Broadcast(sender string, recipients []string, priority core.Priority, content core.Content) (string, error) {
	return m.Send(core.Message{
		Sender:     sender,
		Recipients: recipients,
		Type:       core.TypeBroadcast,
		Priority:   priority,
		Content:    content,
	})
}

// Subscribe returns a channel of messages delivered to the recipient, plus a
// cancel function.
func (m *CoordMesh) Subscribe(recipient string) (<-chan core.Message, func()) {
	return m.hub.Subscribe(recipient)
}

// Delivered reports whether a message reached at least one recipient.
func (m *CoordMesh) Delivered(messageID string) bool { return m.hub.Delivered(messageID) }

// MessageHistory returns the retained sender->recipient messages in send order.
func (m *CoordMesh) MessageHistory(sender, recipient string) []core.Message {
	return m.hub.History(sender, recipient)
}

// DeliveryLog returns the per-recipient delivery outcome log.
func (m *CoordMesh) DeliveryLog() []hub.DeliveryRecord { return m.hub.DeliveryLog() }

// ---- Knowledge ----

// ShareKnowledge stores a knowledge item and notifies applicable agents,
// returning the item id. Routed through the hub as the unified ingress point.
func (m *CoordMesh) ShareKnowledge(source, category, title, description string, data map[string]core.Value, confidence float64, applicability, relatedKnowledge []string) (string, error) {
	if err := m.guard(); err != nil {
		return "", err
	}
	return m.hub.ShareKnowledge(core.KnowledgeItem{
		Source:           source,
		Category:         category,
		Title:            title,
		Description:      description,
		Data:             data,
		Confidence:       confidence,
		Applicability:    applicability,
		RelatedKnowledge: relatedKnowledge,
	})
}

// QueryKnowledge returns a lazy sequence of matching items ordered by
// descending confidence, ties broken by recency.
func (m *CoordMesh) QueryKnowledge(filter knowledge.Filter) (iter.Seq[core.KnowledgeItem], error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.knowledge.Query(filter)
}

// GetKnowledge returns a stored item by id.
func (m *CoordMesh) GetKnowledge(id string) (core.KnowledgeItem, error) {
	if err := m.guard(); err != nil {
		return core.KnowledgeItem{}, err
	}
	return m.knowledge.Get(id)
}

// RelatedKnowledge returns the bounded transitive closure of items reachable
// from id via related-knowledge references. Depth <= 0 uses the configured
// default.
func (m *CoordMesh) RelatedKnowledge(id string, depth int) ([]core.KnowledgeItem, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.knowledge.RelatedTo(id, depth)
}

// ---- Collaboration ----

// RequestCollaboration proposes a session and sends one response-required
// request per participant, returning the session id immediately. Routed
// through the hub as the unified ingress point.
func (m *CoordMesh) RequestCollaboration(initiator string, participants []string, goal string, context map[string]core.Value) (string, error) {
	if err := m.guard(); err != nil {
		return "", err
	}
	return m.hub.RequestCollaboration(initiator, participants, goal, context)
}

// AcceptCollaboration records a participant's acknowledgment.
func (m *CoordMesh) AcceptCollaboration(sessionID, participant string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.collab.Accept(sessionID, participant)
}

// DeclineCollaboration records a participant's refusal.
func (m *CoordMesh) DeclineCollaboration(sessionID, participant string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.collab.Decline(sessionID, participant)
}

// ResolveCollaboration closes an active session with an outcome summary.
func (m *CoordMesh) ResolveCollaboration(sessionID, outcome string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.collab.Resolve(sessionID, outcome)
}

// AbandonCollaboration closes a session without an outcome.
func (m *CoordMesh) AbandonCollaboration(sessionID string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.collab.Abandon(sessionID)
}

// CancelCollaboration lets the initiator withdraw a proposal before it
// activates.
func (m *CoordMesh) CancelCollaboration(sessionID, initiator string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.collab.Cancel(sessionID, initiator)
}

// GetSessionStatus returns a copy of the session.
func (m *CoordMesh) GetSessionStatus(sessionID string) (core.CollaborationSession, error) {
	if err := m.guard(); err != nil {
		return core.CollaborationSession{}, err
	}
	return m.collab.SessionStatus(sessionID)
}

// AbandonExpiredSessions abandons proposals older than the timeout (the
// configured default when <= 0) and returns their ids. Call from a scheduler
// to enforce proposal timeouts.
func (m *CoordMesh) AbandonExpiredSessions(timeout time.Duration) []string {
	if !m.ready.Load() {
		return nil
	}
	return m.collab.AbandonExpired(timeout)
}

// ---- Teams ----

// FormTeam creates a team in forming status and sends membership
// confirmation requests, returning the team id immediately.
func (m *CoordMesh) FormTeam(purpose string, members []string, problem core.ProblemDefinition) (string, error) {
	if err := m.guard(); err != nil {
		return "", err
	}
	return m.collab.FormTeam(purpose, members, problem)
}

// AcknowledgeTeam records one member's membership confirmation.
func (m *CoordMesh) AcknowledgeTeam(teamID, member string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.collab.Acknowledge(teamID, member)
}

// CompleteTeam closes an active team as having finished its problem.
func (m *CoordMesh) CompleteTeam(teamID string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.collab.Complete(teamID)
}

// DissolveTeam disbands a forming or active team.
func (m *CoordMesh) DissolveTeam(teamID string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.collab.Dissolve(teamID)
}

// GetTeamStatus returns a copy of the team.
func (m *CoordMesh) GetTeamStatus(teamID string) (core.Team, error) {
	if err := m.guard(); err != nil {
		return core.Team{}, err
	}
	return m.collab.TeamStatus(teamID)
}
