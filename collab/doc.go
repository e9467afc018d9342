// Package collab implements the Collaboration Engine: it brokers multi-agent
// collaboration sessions and forms resource-bounded, deadline-bound teams.
//
// Proposals are non-blocking: RequestCollaboration and FormTeam return ids
// immediately after creation and send request messages (requiring responses)
// to the proposed participants through the hub. Whether acknowledgment is
// required to activate is a configurable policy; under the default, a
// session activates on the first participant accept and a team once every
// member acknowledged.
//
// The engine runs no timers. Session age is exposed so an external scheduler
// can abandon stale proposals (AbandonExpired applies a cutoff when called),
// and team deadline expiry is a caller concern queried against team status.
package collab
