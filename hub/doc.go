// Package hub implements the Communication Hub, the routing core that every
// other component builds on.
//
// Responsibilities:
//
//   - Validating and enqueueing point-to-point and broadcast messages
//   - Asynchronous delivery via per-recipient buffered channels drained by
//     worker goroutines, preserving send order per sender->recipient pair
//   - Response correlation tracking (a response must answer a pending,
//     not-yet-answered request)
//   - A bounded audit history with a retention window and per-pair cap
//   - A queryable delivery log recording per-recipient outcomes, including
//     partial broadcast failures
//   - Subscription channels so recipients and observers see deliveries
//
// The hub is also the unified ingress point for cross-agent traffic: it
// exposes ShareKnowledge and RequestCollaboration delegations that forward to
// the Knowledge Exchange and Collaboration Engine once the orchestrator binds
// them.
//
// Send returns after enqueue, never after delivery; callers wanting
// completion poll Delivered or subscribe.
package hub
