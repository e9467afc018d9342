package collab

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coordmesh/coordmesh/config"
	"github.com/coordmesh/coordmesh/core"
	"github.com/coordmesh/coordmesh/logging"
)

// dependency is the readiness surface of the components the engine builds on
// (hub and knowledge exchange).
type dependency interface {
	Ready() bool
}

// hubDependency is the slice of the Communication Hub the engine needs.
type hubDependency interface {
	core.MessageSender
	dependency
}

// Options configures an Engine instance.
type Options struct {
	// Config tunes activation policy and the proposal timeout hint.
	Config config.CollaborationConfig
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Engine is the Collaboration Engine. It exclusively owns session and team
// storage; writes are serialized internally and reads run concurrently.
type Engine struct {
	registry  core.Registry
	hub       hubDependency
	knowledge dependency
	logger    *logging.CoordLogger
	cfg       config.CollaborationConfig

	ready atomic.Bool

	mu       sync.RWMutex
	sessions map[string]*sessionState
	teams    map[string]*teamState
}

// New creates an Engine bound to the registry, hub and knowledge exchange.
// Call Initialize after both dependencies are ready.
func New(registry core.Registry, hub hubDependency, knowledge dependency, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: config.Default().Collaboration,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Engine{
		registry:  registry,
		hub:       hub,
		knowledge: knowledge,
		logger:    logging.NewCoordLogger(opts.Logger).WithComponent("collab"),
		cfg:       opts.Config,
	}
}

// Initialize is idempotent and requires the hub and knowledge exchange to be
// initialized first.
func (e *Engine) Initialize() error {
	if !e.hub.Ready() {
		return fmt.Errorf("%w: collaboration engine requires an initialized hub", core.ErrDependencyNotReady)
	}
	if !e.knowledge.Ready() {
		return fmt.Errorf("%w: collaboration engine requires an initialized knowledge exchange", core.ErrDependencyNotReady)
	}
	if e.ready.CompareAndSwap(false, true) {
		e.mu.Lock()
		e.sessions = make(map[string]*sessionState)
		e.teams = make(map[string]*teamState)
		e.mu.Unlock()
		e.logger.Info("collaboration engine initialized", "activation_policy", e.cfg.ActivationPolicy)
	}
	return nil
}

// Ready reports whether the engine has been initialized.
func (e *Engine) Ready() bool { return e.ready.Load() }

// validateParticipants checks that every name exists in the registry and that
// the list is free of duplicates and of the initiator itself (when set).
func (e *Engine) validateParticipants(initiator string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == initiator && initiator != "" {
			return fmt.Errorf("%w: initiator %q listed as participant", core.ErrDuplicateParticipant, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", core.ErrDuplicateParticipant, name)
		}
		seen[name] = true
		if !e.registry.Exists(name) {
			return fmt.Errorf("%w: %q", core.ErrUnknownAgent, name)
		}
	}
	return nil
}

// propose sends a request message requiring a response to each recipient.
// Send failures after successful validation are logged and recorded in the
// hub's delivery log; they do not undo the created entity.
func (e *Engine) propose(initiator string, recipients []string, subject string, data map[string]core.Value) {
	for _, name := range recipients {
		_, err := e.hub.Send(core.Message{
			Sender:           initiator,
			Recipient:        name,
			Type:             core.TypeRequest,
			Priority:         core.PriorityHigh,
			Content:          core.Content{Subject: subject, Data: data},
			RequiresResponse: true,
		})
		if err != nil {
			e.logger.Warn("proposal message failed", "recipient", name, "error", err)
		}
	}
}
