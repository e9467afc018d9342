// Package core provides the foundational domain types and interfaces used by
// CoordMesh. It defines the core abstractions for:
//
//   - Agents (named autonomous participants with capability tags)
//   - Messages (typed, prioritized, correlation-tracked communication records)
//   - Knowledge items (shared facts with provenance, confidence and applicability)
//   - Collaboration sessions and teams (negotiated multi-agent work containers)
//   - The Value tagged union for structured, extensible payloads
//   - Small interfaces wired between components (Registry, MessageSender, ...)
//
// The package intentionally keeps implementation concerns (routing, storage,
// brokering) out of scope, exposing small interfaces so components can be
// composed by the orchestrator through explicit dependency injection.
package core
