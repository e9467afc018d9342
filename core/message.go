package core

import (
	"fmt"
	"time"
)

// MessageType classifies a message's routing and correlation semantics.
type MessageType string

const (
	// TypeRequest expects (but does not wait for) a correlated response.
	TypeRequest MessageType = "request"
	// TypeResponse answers a prior request via its correlation id.
	TypeResponse MessageType = "response"
	// TypeNotification is informational, point-to-point or fanned out.
	TypeNotification MessageType = "notification"
	// TypeBroadcast is fanned out to a recipient group.
	TypeBroadcast MessageType = "broadcast"
)

// Priority orders competing traffic. It is carried on every message and made
// available to recipients; the hub itself delivers in send order per pair.
type Priority string

const (
	// PriorityLow marks background traffic.
	PriorityLow Priority = "low"
	// PriorityMedium is the default priority.
	PriorityMedium Priority = "medium"
	// PriorityHigh marks urgent traffic.
	PriorityHigh Priority = "high"
	// PriorityCritical marks traffic that must not be ignored.
	PriorityCritical Priority = "critical"
)

// Content is a message payload: a subject line plus structured data.
type Content struct {
	Subject string           `json:"subject"`
	Data    map[string]Value `json:"data,omitempty"`
}

// Message is the unit of communication routed by the hub. Once delivered it
// is immutable and retained in a bounded audit history. The ID and Timestamp
// fields are assigned by the hub on send.
type Message struct {
	ID               string      `json:"id"`
	Sender           string      `json:"sender"`
	Recipient        string      `json:"recipient,omitempty"`
	Recipients       []string    `json:"recipients,omitempty"`
	Type             MessageType `json:"type"`
	Priority         Priority    `json:"priority"`
	Content          Content     `json:"content"`
	RequiresResponse bool        `json:"requires_response"`
	CorrelationID    string      `json:"correlation_id,omitempty"`
	Timestamp        time.Time   `json:"timestamp"`
}

// IsBroadcast reports whether the message is addressed to a recipient group
// rather than a single agent.
func (m Message) IsBroadcast() bool {
	return m.Type == TypeBroadcast || len(m.Recipients) > 0
}

// Validate checks the structural invariants that do not require registry or
// correlation state. Registry existence and correlation liveness are checked
// by the hub at send time.
func (m Message) Validate() error {
	switch m.Type {
	case TypeRequest, TypeResponse, TypeNotification, TypeBroadcast:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, m.Type)
	}
	switch m.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidMessage, m.Priority)
	}
	if m.Sender == "" {
		return fmt.Errorf("%w: empty sender", ErrInvalidMessage)
	}
	if m.Type == TypeResponse {
		if m.CorrelationID == "" {
			return fmt.Errorf("%w: response without correlation id", ErrInvalidMessage)
		}
		if m.IsBroadcast() {
			return fmt.Errorf("%w: response cannot be broadcast", ErrInvalidMessage)
		}
	}
	if m.Type != TypeResponse && m.CorrelationID != "" {
		return fmt.Errorf("%w: correlation id on non-response message", ErrInvalidMessage)
	}
	if !m.IsBroadcast() && m.Recipient == "" {
		return fmt.Errorf("%w: empty recipient", ErrInvalidMessage)
	}
	if m.IsBroadcast() && m.Recipient != "" {
		return fmt.Errorf("%w: broadcast with single recipient set", ErrInvalidMessage)
	}
	return nil
}
