package logging

// CoordLogger wraps a Logger with contextual cloning helpers (component,
// agent, message id) and domain convenience methods for coordination events.
// The With* methods return copies, so a shared base logger can be specialized
// per component without synchronization.
type CoordLogger struct {
	base      Logger
	context   map[string]any
	component string
	agent     string
	messageID string
}

// NewCoordLogger wraps the given base logger, defaulting to NoOpLogger if nil.
func NewCoordLogger(base Logger) *CoordLogger {
	if base == nil {
		base = NoOpLogger{}
	}
	return &CoordLogger{base: base, context: map[string]any{}}
}

func (l *CoordLogger) clone() *CoordLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that is attached to every log entry.
func (l *CoordLogger) WithContext(key string, value any) *CoordLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (hub, knowledge, collab, ...).
func (l *CoordLogger) WithComponent(c string) *CoordLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithAgent attaches an agent name to every entry.
func (l *CoordLogger) WithAgent(name string) *CoordLogger {
	nl := l.clone()
	nl.agent = name
	return nl
}

// WithMessage attaches a message id to every entry.
func (l *CoordLogger) WithMessage(id string) *CoordLogger {
	nl := l.clone()
	nl.messageID = id
	return nl
}

func (l *CoordLogger) buildArgs(args []any) []any {
	out := make([]any, 0, len(args)+2*len(l.context)+6)
	if l.component != "" {
		out = append(out, "component", l.component)
	}
	if l.agent != "" {
		out = append(out, "agent", l.agent)
	}
	if l.messageID != "" {
		out = append(out, "message_id", l.messageID)
	}
	for k, v := range l.context {
		out = append(out, k, v)
	}
	return append(out, args...)
}

// Debug logs at debug level with the attached context.
func (l *CoordLogger) Debug(msg string, args ...any) { l.base.Debug(msg, l.buildArgs(args)...) }

// Info logs at info level with the attached context.
func (l *CoordLogger) Info(msg string, args ...any) { l.base.Info(msg, l.buildArgs(args)...) }

// Warn logs at warn level with the attached context.
func (l *CoordLogger) Warn(msg string, args ...any) { l.base.Warn(msg, l.buildArgs(args)...) }

// Error logs at error level with the attached context.
func (l *CoordLogger) Error(msg string, args ...any) { l.base.Error(msg, l.buildArgs(args)...) }

// LogDelivery records the outcome of one delivery attempt to one recipient.
// Successes log at debug level, failures at warn.
func (l *CoordLogger) LogDelivery(messageID, recipient string, success bool, errText string) {
	args := []any{"message_id", messageID, "recipient", recipient, "success", success}
	if success {
		l.Debug("message delivered", args...)
		return
	}
	l.Warn("message delivery failed", append(args, "error", errText)...)
}

// LogBroadcast records a broadcast fan-out summary.
func (l *CoordLogger) LogBroadcast(messageID string, recipients, failures int) {
	args := []any{"message_id", messageID, "recipients", recipients, "failures", failures}
	if failures > 0 {
		l.Warn("broadcast partially delivered", args...)
		return
	}
	l.Info("broadcast enqueued", args...)
}

// LogSessionTransition records a collaboration session status change.
func (l *CoordLogger) LogSessionTransition(sessionID, from, to string) {
	l.Info("session transition", "session_id", sessionID, "from", from, "to", to)
}

// LogTeamTransition records a team status change.
func (l *CoordLogger) LogTeamTransition(teamID, from, to string) {
	l.Info("team transition", "team_id", teamID, "from", from, "to", to)
}
