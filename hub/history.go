package hub

import (
	cache "github.com/patrickmn/go-cache"

	"github.com/coordmesh/coordmesh/core"
)

// record stores the message in the audit history: a TTL cache keyed by
// message id (the retention window) plus a per-pair order index capped at
// HistoryPerPair. Caller holds h.mu.
func (h *Hub) record(msg core.Message, recipients []string) {
	h.history.Set(msg.ID, msg, cache.DefaultExpiration)
	for _, recipient := range recipients {
		key := pairKey{sender: msg.Sender, recipient: recipient}
		ids := append(h.pairOrder[key], msg.ID)
		if max := h.cfg.HistoryPerPair; max > 0 && len(ids) > max {
			ids = ids[len(ids)-max:]
		}
		h.pairOrder[key] = ids
	}
}

// History returns the retained messages from sender to recipient in send
// order. Messages outside the retention window or beyond the per-pair cap
// are absent.
func (h *Hub) History(sender, recipient string) []core.Message {
	if !h.Ready() {
		return nil
	}
	h.mu.Lock()
	ids := make([]string, len(h.pairOrder[pairKey{sender: sender, recipient: recipient}]))
	copy(ids, h.pairOrder[pairKey{sender: sender, recipient: recipient}])
	h.mu.Unlock()

	msgs := make([]core.Message, 0, len(ids))
	for _, id := range ids {
		if v, ok := h.history.Get(id); ok {
			msgs = append(msgs, v.(core.Message))
		}
	}
	return msgs
}

// Lookup returns a retained message by id.
func (h *Hub) Lookup(id string) (core.Message, bool) {
	if !h.Ready() {
		return core.Message{}, false
	}
	v, ok := h.history.Get(id)
	if !ok {
		return core.Message{}, false
	}
	return v.(core.Message), true
}
