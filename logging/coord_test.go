package logging

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ Logger = (*CoordLogger)(nil)

// captureLogger records entries for assertions.
type captureLogger struct {
	mu      sync.Mutex
	entries []capturedEntry
}

type capturedEntry struct {
	level string
	msg   string
	args  []any
}

func (c *captureLogger) log(level, msg string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, capturedEntry{level: level, msg: msg, args: args})
}

func (c *captureLogger) Debug(msg string, args ...any) { c.log("debug", msg, args) }
func (c *captureLogger) Info(msg string, args ...any)  { c.log("info", msg, args) }
func (c *captureLogger) Warn(msg string, args ...any)  { c.log("warn", msg, args) }
func (c *captureLogger) Error(msg string, args ...any) { c.log("error", msg, args) }

func (c *captureLogger) last(t *testing.T) capturedEntry {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.entries)
	return c.entries[len(c.entries)-1]
}

// argsMap folds alternating key/value args into a map for lookups.
func argsMap(t *testing.T, args []any) map[string]any {
	t.Helper()
	require.Zero(t, len(args)%2, "args must be key/value pairs")
	m := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		require.True(t, ok)
		m[key] = args[i+1]
	}
	return m
}

func TestCoordLogger_ContextualHelpers(t *testing.T) {
	base := &captureLogger{}
	logger := NewCoordLogger(base).WithComponent("hub")

	logger.Info("started")
	entry := base.last(t)
	assert.Equal(t, "info", entry.level)
	assert.Equal(t, "hub", argsMap(t, entry.args)["component"])

	// With* methods clone; the parent keeps its own context.
	scoped := logger.WithAgent("infra").WithMessage("m-1").WithContext("attempt", 2)
	scoped.Warn("retrying")
	attrs := argsMap(t, base.last(t).args)
	assert.Equal(t, "hub", attrs["component"])
	assert.Equal(t, "infra", attrs["agent"])
	assert.Equal(t, "m-1", attrs["message_id"])
	assert.Equal(t, 2, attrs["attempt"])

	logger.Info("unscoped")
	attrs = argsMap(t, base.last(t).args)
	assert.NotContains(t, attrs, "agent")
	assert.NotContains(t, attrs, "message_id")
}

func TestCoordLogger_NilBase(t *testing.T) {
	logger := NewCoordLogger(nil)
	assert.NotPanics(t, func() { logger.Info("discarded") })
}

func TestCoordLogger_LogDelivery(t *testing.T) {
	base := &captureLogger{}
	logger := NewCoordLogger(base).WithComponent("hub")

	logger.LogDelivery("m-1", "quality", true, "")
	entry := base.last(t)
	assert.Equal(t, "debug", entry.level)
	attrs := argsMap(t, entry.args)
	assert.Equal(t, "m-1", attrs["message_id"])
	assert.Equal(t, "quality", attrs["recipient"])
	assert.Equal(t, true, attrs["success"])

	logger.LogDelivery("m-2", "ghost", false, "unknown agent")
	entry = base.last(t)
	assert.Equal(t, "warn", entry.level)
	attrs = argsMap(t, entry.args)
	assert.Equal(t, false, attrs["success"])
	assert.Equal(t, "unknown agent", attrs["error"])
}

func TestCoordLogger_LogBroadcast(t *testing.T) {
	base := &captureLogger{}
	logger := NewCoordLogger(base)

	logger.LogBroadcast("m-1", 3, 0)
	assert.Equal(t, "info", base.last(t).level)

	logger.LogBroadcast("m-2", 2, 1)
	entry := base.last(t)
	assert.Equal(t, "warn", entry.level)
	assert.Equal(t, 1, argsMap(t, entry.args)["failures"])
}

func TestCoordLogger_LogTransitions(t *testing.T) {
	base := &captureLogger{}
	logger := NewCoordLogger(base).WithComponent("collab")

	logger.LogSessionTransition("s-1", "proposed", "active")
	attrs := argsMap(t, base.last(t).args)
	assert.Equal(t, "s-1", attrs["session_id"])
	assert.Equal(t, "proposed", attrs["from"])
	assert.Equal(t, "active", attrs["to"])

	logger.LogTeamTransition("t-1", "forming", "active")
	attrs = argsMap(t, base.last(t).args)
	assert.Equal(t, "t-1", attrs["team_id"])
	assert.Equal(t, "active", attrs["to"])
}
