package hub

import (
	"time"

	"github.com/coordmesh/coordmesh/core"
)

// DeliveryRecord captures the outcome of one delivery attempt to one
// recipient. Broadcast partial failures surface here rather than failing the
// original send.
type DeliveryRecord struct {
	MessageID string    `json:"message_id"`
	Recipient string    `json:"recipient"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}

// OK reports whether the delivery succeeded.
func (r DeliveryRecord) OK() bool { return r.Error == "" }

// enqueueLocked places the message on the recipient's inbox, starting the
// delivery worker lazily. Caller holds h.mu, which is what preserves per-pair
// send order. A full inbox is recorded as a failed delivery instead of
// blocking the sender.
func (h *Hub) enqueueLocked(recipient string, msg core.Message) {
	inbox, ok := h.inboxes[recipient]
	if !ok {
		inbox = make(chan core.Message, h.cfg.DeliveryBufferSize)
		h.inboxes[recipient] = inbox
		h.wg.Add(1)
		go h.runInbox(recipient, inbox)
	}
	select {
	case inbox <- msg:
	default:
		h.recordDelivery(DeliveryRecord{
			MessageID: msg.ID,
			Recipient: recipient,
			Error:     "delivery queue full",
			Time:      time.Now().UTC(),
		})
	}
}

// runInbox drains one recipient's inbox, applying delivery side effects in
// order.
func (h *Hub) runInbox(recipient string, inbox <-chan core.Message) {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case msg := <-inbox:
			h.deliver(recipient, msg)
		}
	}
}

func (h *Hub) deliver(recipient string, msg core.Message) {
	h.recordDelivery(DeliveryRecord{
		MessageID: msg.ID,
		Recipient: recipient,
		Time:      time.Now().UTC(),
	})
	h.logMu.Lock()
	h.delivered[msg.ID] = true
	h.logMu.Unlock()

	h.subMu.RLock()
	targets := h.subs[recipient]
	h.subMu.RUnlock()
	for _, ch := range targets {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("subscriber lagging, message dropped",
				"message_id", msg.ID, "recipient", recipient)
		}
	}
}

func (h *Hub) recordDelivery(rec DeliveryRecord) {
	h.logger.LogDelivery(rec.MessageID, rec.Recipient, rec.OK(), rec.Error)
	h.logMu.Lock()
	defer h.logMu.Unlock()
	h.deliveryLog = append(h.deliveryLog, rec)
	if max := h.cfg.DeliveryLogSize; max > 0 && len(h.deliveryLog) > max {
		h.deliveryLog = h.deliveryLog[len(h.deliveryLog)-max:]
	}
}

// Delivered reports whether the message has been delivered to at least one
// recipient. Callers poll this or subscribe for completion.
func (h *Hub) Delivered(id string) bool {
	h.logMu.Lock()
	defer h.logMu.Unlock()
	return h.delivered[id]
}

// DeliveryLog returns a copy of the bounded per-recipient delivery log.
func (h *Hub) DeliveryLog() []DeliveryRecord {
	h.logMu.Lock()
	defer h.logMu.Unlock()
	out := make([]DeliveryRecord, len(h.deliveryLog))
	copy(out, h.deliveryLog)
	return out
}

// Subscribe registers a delivery channel for the given recipient. Every
// message delivered to that recipient is forwarded; slow consumers drop. The
// returned cancel function removes the subscription.
func (h *Hub) Subscribe(recipient string) (<-chan core.Message, func()) {
	ch := make(chan core.Message, h.cfg.SubscriberBufferSize)
	h.subMu.Lock()
	h.subs[recipient] = append(h.subs[recipient], ch)
	h.subMu.Unlock()

	cancel := func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		list := h.subs[recipient]
		for i, c := range list {
			if c == ch {
				h.subs[recipient] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}
