package hub

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coordmesh/coordmesh/config"
	"github.com/coordmesh/coordmesh/core"
	"github.com/coordmesh/coordmesh/logging"
	cache "github.com/patrickmn/go-cache"
)

// Lifecycle states. Initialize is idempotent once ready; a concurrent
// initialization attempt while another is in flight fails instead of
// corrupting routing state.
const (
	stateNew int32 = iota
	stateInitializing
	stateReady
)

// Options configures a Hub instance.
type Options struct {
	// Config tunes buffers, retention and log bounds.
	Config config.HubConfig
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Hub routes messages between registered agents. All exported methods are
// safe for concurrent use.
type Hub struct {
	registry core.Registry
	logger   *logging.CoordLogger
	cfg      config.HubConfig

	state atomic.Int32

	// mu serializes sends so that history order, correlation state and
	// inbox enqueueing stay consistent with each other.
	mu        sync.Mutex
	history   *cache.Cache
	pairOrder map[pairKey][]string
	pending   *cache.Cache // request id -> answered; expires with the retention window
	inboxes   map[string]chan core.Message

	logMu       sync.Mutex
	deliveryLog []DeliveryRecord
	delivered   map[string]bool

	subMu sync.RWMutex
	subs  map[string][]chan core.Message

	bindMu    sync.RWMutex
	knowledge core.KnowledgeSharer
	collab    core.CollaborationBroker

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type pairKey struct {
	sender    string
	recipient string
}

// New creates a Hub bound to the given registry. Call Initialize before
// sending.
func New(registry core.Registry, optFns ...func(o *Options)) *Hub {
	opts := Options{
		Config: config.Default().Hub,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Hub{
		registry: registry,
		logger:   logging.NewCoordLogger(opts.Logger).WithComponent("hub"),
		cfg:      opts.Config,
		subs:     make(map[string][]chan core.Message),
	}
}

// Initialize sets up routing state. A repeat call on a ready hub is a no-op
// success; a call racing another initialization fails with
// ErrAlreadyInitialized.
func (h *Hub) Initialize() error {
	if !h.state.CompareAndSwap(stateNew, stateInitializing) {
		if h.state.Load() == stateReady {
			return nil
		}
		return fmt.Errorf("%w: hub initialization in progress", core.ErrAlreadyInitialized)
	}

	retention := h.cfg.HistoryRetention()
	cleanup := retention / 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	h.history = cache.New(retention, cleanup)
	h.pairOrder = make(map[pairKey][]string)
	h.pending = cache.New(retention, cleanup)
	h.inboxes = make(map[string]chan core.Message)
	h.delivered = make(map[string]bool)
	h.done = make(chan struct{})

	h.state.Store(stateReady)
	h.logger.Info("communication hub initialized")
	return nil
}

// Ready reports whether the hub has been initialized.
func (h *Hub) Ready() bool { return h.state.Load() == stateReady }

// Close stops delivery workers. Pending inbox messages are dropped.
func (h *Hub) Close() {
	if !h.Ready() {
		return
	}
	h.closeOnce.Do(func() { close(h.done) })
	h.wg.Wait()
}

// Send validates the message, assigns an id and timestamp, records it in the
// audit history and enqueues it for delivery, returning the id synchronously.
// Messages from the same sender to the same recipient are delivered in send
// order; there is no ordering guarantee across pairs.
//
// For a broadcast, failure to deliver to one recipient (unknown or
// deregistered) does not abort delivery to the others; each failure is
// recorded in the delivery log.
func (h *Hub) Send(msg core.Message) (string, error) {
	if !h.Ready() {
		return "", fmt.Errorf("%w: hub not initialized", core.ErrDependencyNotReady)
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}
	if !h.registry.Exists(msg.Sender) {
		return "", fmt.Errorf("%w: sender %q", core.ErrUnknownAgent, msg.Sender)
	}

	var live, dead []string
	if msg.IsBroadcast() {
		live, dead = h.resolveGroup(msg)
	} else {
		if !h.registry.Exists(msg.Recipient) {
			return "", fmt.Errorf("%w: recipient %q", core.ErrUnknownAgent, msg.Recipient)
		}
		live = []string{msg.Recipient}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if msg.Type == core.TypeResponse {
		v, ok := h.pending.Get(msg.CorrelationID)
		if !ok || v.(bool) {
			return "", fmt.Errorf("%w: %q", core.ErrDanglingCorrelation, msg.CorrelationID)
		}
		h.pending.Set(msg.CorrelationID, true, cache.DefaultExpiration)
	}

	msg.ID = core.NewID()
	msg.Timestamp = time.Now().UTC()
	if msg.RequiresResponse {
		h.pending.Set(msg.ID, false, cache.DefaultExpiration)
	}

	h.record(msg, live)

	for _, name := range dead {
		h.recordDelivery(DeliveryRecord{
			MessageID: msg.ID,
			Recipient: name,
			Error:     core.ErrUnknownAgent.Error(),
			Time:      msg.Timestamp,
		})
	}
	for _, name := range live {
		h.enqueueLocked(name, msg)
	}

	if msg.IsBroadcast() {
		h.logger.LogBroadcast(msg.ID, len(live), len(dead))
	} else {
		h.logger.Debug("message enqueued",
			"message_id", msg.ID, "sender", msg.Sender, "type", string(msg.Type))
	}
	return msg.ID, nil
}

// resolveGroup splits a broadcast recipient set into live and unknown names.
// An empty explicit set fans out to every registered agent except the sender.
func (h *Hub) resolveGroup(msg core.Message) (live, dead []string) {
	if len(msg.Recipients) == 0 {
		for _, a := range h.registry.List() {
			if a.Name != msg.Sender {
				live = append(live, a.Name)
			}
		}
		return live, nil
	}
	for _, name := range msg.Recipients {
		if h.registry.Exists(name) {
			live = append(live, name)
		} else {
			dead = append(dead, name)
		}
	}
	return live, dead
}

// AwaitingResponse reports whether the given message id is a pending request
// that has not been answered yet. Requests older than the retention window
// expire; a late response to one fails as dangling.
func (h *Hub) AwaitingResponse(id string) bool {
	if !h.Ready() {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.pending.Get(id)
	return ok && !v.(bool)
}

// BindKnowledge wires the Knowledge Exchange behind the hub's ShareKnowledge
// delegation. Called by the orchestrator after construction.
func (h *Hub) BindKnowledge(k core.KnowledgeSharer) {
	h.bindMu.Lock()
	defer h.bindMu.Unlock()
	h.knowledge = k
}

// BindCollaboration wires the Collaboration Engine behind the hub's
// RequestCollaboration delegation.
func (h *Hub) BindCollaboration(c core.CollaborationBroker) {
	h.bindMu.Lock()
	defer h.bindMu.Unlock()
	h.collab = c
}

// ShareKnowledge forwards to the Knowledge Exchange, keeping the hub as the
// unified ingress point for cross-agent traffic.
func (h *Hub) ShareKnowledge(item core.KnowledgeItem) (string, error) {
	if !h.Ready() {
		return "", fmt.Errorf("%w: hub not initialized", core.ErrDependencyNotReady)
	}
	h.bindMu.RLock()
	k := h.knowledge
	h.bindMu.RUnlock()
	if k == nil {
		return "", fmt.Errorf("%w: knowledge exchange not bound", core.ErrDependencyNotReady)
	}
	return k.Share(item)
}

// RequestCollaboration forwards to the Collaboration Engine.
func (h *Hub) RequestCollaboration(initiator string, participants []string, goal string, context map[string]core.Value) (string, error) {
	if !h.Ready() {
		return "", fmt.Errorf("%w: hub not initialized", core.ErrDependencyNotReady)
	}
	h.bindMu.RLock()
	c := h.collab
	h.bindMu.RUnlock()
	if c == nil {
		return "", fmt.Errorf("%w: collaboration engine not bound", core.ErrDependencyNotReady)
	}
	return c.RequestCollaboration(initiator, participants, goal, context)
}
