// Package logging provides a minimal logging interface and adapters for
// CoordMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the hub and engines use for observability. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, library embedding)
//   - CoordLogger with contextual helpers (component, agent, message id) and
//     domain helpers for delivery, broadcast and session transition events
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
