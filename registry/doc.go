// Package registry provides the in-memory Agent Registry. It is shared-read
// by every other component; membership is only mutated through the
// orchestrator or explicit admin operations. Deregistering an agent does not
// invalidate history that already references it.
package registry
