package collab

import (
	"fmt"
	"time"

	"github.com/coordmesh/coordmesh/config"
	"github.com/coordmesh/coordmesh/core"
)

// sessionState pairs the immutable session fields with acknowledgment
// tracking.
type sessionState struct {
	session core.CollaborationSession
	acks    map[string]bool
}

func (s *sessionState) isParticipant(name string) bool {
	for _, p := range s.session.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// RequestCollaboration validates the initiator and participants, creates a
// session in proposed status and sends a response-required request to each
// participant. It returns the session id without waiting for responses.
func (e *Engine) RequestCollaboration(initiator string, participants []string, goal string, context map[string]core.Value) (string, error) {
	if !e.Ready() {
		return "", fmt.Errorf("%w: collaboration engine not initialized", core.ErrDependencyNotReady)
	}
	if !e.registry.Exists(initiator) {
		return "", fmt.Errorf("%w: initiator %q", core.ErrUnknownAgent, initiator)
	}
	if len(participants) == 0 {
		return "", fmt.Errorf("%w: empty participant list", core.ErrUnknownAgent)
	}
	if err := e.validateParticipants(initiator, participants); err != nil {
		return "", err
	}

	session := core.CollaborationSession{
		ID:           core.NewID(),
		Initiator:    initiator,
		Participants: append([]string(nil), participants...),
		Goal:         goal,
		Context:      context,
		Status:       core.SessionProposed,
		Created:      time.Now().UTC(),
	}
	if e.cfg.ActivationPolicy == config.ActivateImmediately {
		session.Status = core.SessionActive
	}

	e.mu.Lock()
	e.sessions[session.ID] = &sessionState{session: session, acks: make(map[string]bool)}
	e.mu.Unlock()

	e.propose(initiator, participants, "collaboration requested: "+goal, map[string]core.Value{
		"session_id": core.StringValue(session.ID),
		"goal":       core.StringValue(goal),
	})
	e.logger.Info("collaboration proposed",
		"session_id", session.ID, "initiator", initiator, "participants", len(participants))
	return session.ID, nil
}

// Accept records a participant's acknowledgment. Under the on-ack policy the
// first accept moves the session from proposed to active. Accepting a
// terminal session fails with ErrInvalidTransition.
func (e *Engine) Accept(sessionID, participant string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if !state.isParticipant(participant) {
		return fmt.Errorf("%w: %q is not a participant of session %s", core.ErrUnknownAgent, participant, sessionID)
	}
	if state.session.Status.Terminal() {
		return fmt.Errorf("%w: session %s is %s", core.ErrInvalidTransition, sessionID, state.session.Status)
	}
	state.acks[participant] = true
	if state.session.Status == core.SessionProposed {
		state.session.Status = core.SessionActive
		e.logger.LogSessionTransition(sessionID, string(core.SessionProposed), string(core.SessionActive))
	}
	return nil
}

// Decline records a participant's refusal. If every participant declined the
// session is abandoned.
func (e *Engine) Decline(sessionID, participant string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if !state.isParticipant(participant) {
		return fmt.Errorf("%w: %q is not a participant of session %s", core.ErrUnknownAgent, participant, sessionID)
	}
	if state.session.Status.Terminal() {
		return fmt.Errorf("%w: session %s is %s", core.ErrInvalidTransition, sessionID, state.session.Status)
	}
	state.acks[participant] = false
	if state.session.Status == core.SessionProposed {
		declined := 0
		for _, accepted := range state.acks {
			if !accepted {
				declined++
			}
		}
		if declined == len(state.session.Participants) {
			state.session.Status = core.SessionAbandoned
			state.session.Resolved = time.Now().UTC()
			e.logger.LogSessionTransition(sessionID, string(core.SessionProposed), string(core.SessionAbandoned))
		}
	}
	return nil
}

// Resolve closes an active session with an outcome summary.
func (e *Engine) Resolve(sessionID, outcome string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if state.session.Status != core.SessionActive {
		return fmt.Errorf("%w: cannot resolve session %s in status %s", core.ErrInvalidTransition, sessionID, state.session.Status)
	}
	state.session.Status = core.SessionResolved
	state.session.Outcome = outcome
	state.session.Resolved = time.Now().UTC()
	e.logger.LogSessionTransition(sessionID, string(core.SessionActive), string(core.SessionResolved))
	return nil
}

// Abandon closes a proposed or active session without an outcome.
func (e *Engine) Abandon(sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abandonLocked(sessionID)
}

func (e *Engine) abandonLocked(sessionID string) error {
	state, err := e.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if state.session.Status.Terminal() {
		return fmt.Errorf("%w: session %s is %s", core.ErrInvalidTransition, sessionID, state.session.Status)
	}
	from := state.session.Status
	state.session.Status = core.SessionAbandoned
	state.session.Resolved = time.Now().UTC()
	e.logger.LogSessionTransition(sessionID, string(from), string(core.SessionAbandoned))
	return nil
}

// Cancel lets the initiator withdraw a proposal before it activates. Once
// active, cancellation is a resolution concern (Resolve or Abandon).
func (e *Engine) Cancel(sessionID, by string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if by != state.session.Initiator {
		return fmt.Errorf("%w: only initiator %q may cancel", core.ErrUnknownAgent, state.session.Initiator)
	}
	if state.session.Status != core.SessionProposed {
		return fmt.Errorf("%w: cannot cancel session %s in status %s", core.ErrInvalidTransition, sessionID, state.session.Status)
	}
	state.session.Status = core.SessionAbandoned
	state.session.Resolved = time.Now().UTC()
	e.logger.LogSessionTransition(sessionID, string(core.SessionProposed), string(core.SessionAbandoned))
	return nil
}

// SessionStatus returns a copy of the session.
func (e *Engine) SessionStatus(sessionID string) (core.CollaborationSession, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	state, err := e.sessionLocked(sessionID)
	if err != nil {
		return core.CollaborationSession{}, err
	}
	return cloneSession(state.session), nil
}

// SessionAge returns the elapsed time since the session was proposed, for
// caller-enforced timeouts.
func (e *Engine) SessionAge(sessionID string) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	state, err := e.sessionLocked(sessionID)
	if err != nil {
		return 0, err
	}
	return state.session.Age(time.Now().UTC()), nil
}

// AbandonExpired abandons every proposed session older than the configured
// proposal timeout (or the given override when positive) and returns the
// affected session ids. Intended to be driven by an external scheduler.
func (e *Engine) AbandonExpired(timeout time.Duration) []string {
	if timeout <= 0 {
		timeout = e.cfg.ProposalTimeout()
	}
	if timeout <= 0 || !e.Ready() {
		return nil
	}
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()
	var expired []string
	for id, state := range e.sessions {
		if state.session.Status == core.SessionProposed && state.session.Age(now) > timeout {
			state.session.Status = core.SessionAbandoned
			state.session.Resolved = now
			expired = append(expired, id)
			e.logger.LogSessionTransition(id, string(core.SessionProposed), string(core.SessionAbandoned))
		}
	}
	if len(expired) > 0 {
		e.logger.Info("stale proposals abandoned", "count", len(expired))
	}
	return expired
}

func (e *Engine) sessionLocked(sessionID string) (*sessionState, error) {
	if !e.Ready() {
		return nil, fmt.Errorf("%w: collaboration engine not initialized", core.ErrDependencyNotReady)
	}
	state, ok := e.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", core.ErrNotFound, sessionID)
	}
	return state, nil
}

func cloneSession(s core.CollaborationSession) core.CollaborationSession {
	s.Participants = append([]string(nil), s.Participants...)
	if s.Context != nil {
		ctx := make(map[string]core.Value, len(s.Context))
		for k, v := range s.Context {
			ctx[k] = v
		}
		s.Context = ctx
	}
	return s
}
