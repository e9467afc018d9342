package knowledge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coordmesh/coordmesh/config"
	"github.com/coordmesh/coordmesh/core"
	"github.com/coordmesh/coordmesh/logging"
)

// hubDependency is the slice of the Communication Hub the exchange needs:
// readiness gating and notification sends.
type hubDependency interface {
	core.MessageSender
	Ready() bool
}

// Options configures an Exchange instance.
type Options struct {
	// Config tunes query behavior (related-closure depth).
	Config config.KnowledgeConfig
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Exchange is the in-memory Knowledge Exchange. It exclusively owns
// KnowledgeItem storage; writes are serialized internally and reads run
// concurrently.
type Exchange struct {
	registry core.Registry
	hub      hubDependency
	logger   *logging.CoordLogger
	cfg      config.KnowledgeConfig

	ready atomic.Bool

	mu         sync.RWMutex
	items      map[string]core.KnowledgeItem
	order      []string       // insertion order, oldest first
	categories map[string]int // live category set with item counts
}

// New creates an Exchange bound to the registry and hub. Call Initialize
// after the hub is ready.
func New(registry core.Registry, hub hubDependency, optFns ...func(o *Options)) *Exchange {
	opts := Options{
		Config: config.Default().Knowledge,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Exchange{
		registry: registry,
		hub:      hub,
		logger:   logging.NewCoordLogger(opts.Logger).WithComponent("knowledge"),
		cfg:      opts.Config,
	}
}

// Initialize is idempotent and requires the hub to be initialized first.
func (e *Exchange) Initialize() error {
	if !e.hub.Ready() {
		return fmt.Errorf("%w: knowledge exchange requires an initialized hub", core.ErrDependencyNotReady)
	}
	if e.ready.CompareAndSwap(false, true) {
		e.mu.Lock()
		e.items = make(map[string]core.KnowledgeItem)
		e.categories = make(map[string]int)
		e.mu.Unlock()
		e.logger.Info("knowledge exchange initialized")
	}
	return nil
}

// Ready reports whether the exchange has been initialized.
func (e *Exchange) Ready() bool { return e.ready.Load() }

// Share validates and stores a knowledge item, then notifies every agent the
// item applies to. Confidence is clamped to [0, 1]; applicability must be
// non-empty (use the wildcard for global relevance). Returns the new item id.
func (e *Exchange) Share(item core.KnowledgeItem) (string, error) {
	if !e.Ready() {
		return "", fmt.Errorf("%w: knowledge exchange not initialized", core.ErrDependencyNotReady)
	}
	if !e.registry.Exists(item.Source) {
		return "", fmt.Errorf("%w: source %q", core.ErrUnknownAgent, item.Source)
	}
	if len(item.Applicability) == 0 {
		return "", fmt.Errorf("%w: empty applicability", core.ErrInvalidKnowledge)
	}
	if item.Category == "" {
		return "", fmt.Errorf("%w: empty category", core.ErrInvalidKnowledge)
	}

	item.ID = core.NewID()
	item.Confidence = core.ClampConfidence(item.Confidence)
	item.Created = time.Now().UTC()

	e.mu.Lock()
	e.items[item.ID] = item
	e.order = append(e.order, item.ID)
	e.categories[item.Category]++
	e.mu.Unlock()

	e.notify(item)
	e.logger.Debug("knowledge shared",
		"knowledge_id", item.ID, "source", item.Source, "category", item.Category)
	return item.ID, nil
}

// notify broadcasts a notification to agents whose name or tags intersect
// the item's applicability. Delivery failures surface in the hub's delivery
// log; they do not fail the share.
func (e *Exchange) notify(item core.KnowledgeItem) {
	var recipients []string
	for _, a := range e.registry.List() {
		if a.Name != item.Source && item.AppliesTo(a) {
			recipients = append(recipients, a.Name)
		}
	}
	if len(recipients) == 0 {
		return
	}
	_, err := e.hub.Send(core.Message{
		Sender:     item.Source,
		Recipients: recipients,
		Type:       core.TypeNotification,
		Priority:   core.PriorityLow,
		Content: core.Content{
			Subject: "knowledge shared: " + item.Title,
			Data: map[string]core.Value{
				"knowledge_id": core.StringValue(item.ID),
				"category":     core.StringValue(item.Category),
				"confidence":   core.NumberValue(item.Confidence),
			},
		},
	})
	if err != nil {
		e.logger.Warn("knowledge notification failed", "knowledge_id", item.ID, "error", err)
	}
}

// Get returns a stored item by id.
func (e *Exchange) Get(id string) (core.KnowledgeItem, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	item, ok := e.items[id]
	if !ok {
		return core.KnowledgeItem{}, fmt.Errorf("%w: knowledge item %q", core.ErrNotFound, id)
	}
	return item, nil
}

// RelatedTo returns the transitive closure of items reachable from the given
// item via related-knowledge references, bounded by depth (the configured
// default when depth <= 0) and deduplicated so cycles terminate. The root
// item itself is not included. Results are in breadth-first order.
func (e *Exchange) RelatedTo(id string, depth int) ([]core.KnowledgeItem, error) {
	if !e.Ready() {
		return nil, fmt.Errorf("%w: knowledge exchange not initialized", core.ErrDependencyNotReady)
	}
	if depth <= 0 {
		depth = e.cfg.RelatedDepth
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	root, ok := e.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: knowledge item %q", core.ErrNotFound, id)
	}

	visited := map[string]bool{id: true}
	frontier := root.RelatedKnowledge
	var closure []core.KnowledgeItem
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, ref := range frontier {
			if visited[ref] {
				continue
			}
			visited[ref] = true
			item, ok := e.items[ref]
			if !ok {
				continue // dangling reference
			}
			closure = append(closure, item)
			next = append(next, item.RelatedKnowledge...)
		}
		frontier = next
	}
	return closure, nil
}
