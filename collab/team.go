package collab

import (
	"fmt"
	"time"

	"github.com/coordmesh/coordmesh/config"
	"github.com/coordmesh/coordmesh/core"
)

// teamState pairs the team with membership acknowledgment tracking.
type teamState struct {
	team core.Team
	acks map[string]bool
}

func (t *teamState) isMember(name string) bool {
	for _, m := range t.team.Members {
		if m == name {
			return true
		}
	}
	return false
}

func (t *teamState) allAcked() bool {
	for _, m := range t.team.Members {
		if !t.acks[m] {
			return false
		}
	}
	return true
}

// FormTeam validates members, deadline and budget, creates the team in
// forming status and sends a membership confirmation request to each member.
// It returns the team id without waiting for acknowledgments.
func (e *Engine) FormTeam(purpose string, members []string, problem core.ProblemDefinition) (string, error) {
	if !e.Ready() {
		return "", fmt.Errorf("%w: collaboration engine not initialized", core.ErrDependencyNotReady)
	}
	if len(members) == 0 {
		return "", fmt.Errorf("%w: empty member list", core.ErrUnknownAgent)
	}
	if err := e.validateParticipants("", members); err != nil {
		return "", err
	}
	if !problem.Deadline.After(time.Now()) {
		return "", fmt.Errorf("%w: deadline %s is not in the future", core.ErrInvalidDeadline, problem.Deadline.Format(time.RFC3339))
	}
	if problem.Resources.Monetary < 0 {
		return "", fmt.Errorf("%w: negative monetary budget", core.ErrInvalidBudget)
	}
	if problem.Resources.ComputeCredits < 0 {
		return "", fmt.Errorf("%w: negative compute-credit budget", core.ErrInvalidBudget)
	}

	team := core.Team{
		ID:      core.NewID(),
		Purpose: purpose,
		Members: append([]string(nil), members...),
		Problem: problem,
		Status:  core.TeamForming,
		Created: time.Now().UTC(),
	}
	state := &teamState{team: team, acks: make(map[string]bool)}
	if e.cfg.ActivationPolicy == config.ActivateImmediately {
		state.team.Status = core.TeamActive
	}

	e.mu.Lock()
	e.teams[team.ID] = state
	e.mu.Unlock()

	// The first member acts as organizer: it sends the confirmation
	// requests, including one to itself, and confirms its own membership
	// through Acknowledge like everyone else. Every team starts forming.
	e.propose(members[0], members, "team forming: "+purpose, map[string]core.Value{
		"team_id": core.StringValue(team.ID),
		"purpose": core.StringValue(purpose),
	})
	e.logger.Info("team formed",
		"team_id", team.ID, "purpose", purpose, "members", len(members))
	return team.ID, nil
}

// Acknowledge records one member's membership confirmation. Under the on-ack
// policy the team activates once every member has acknowledged.
func (e *Engine) Acknowledge(teamID, member string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.teamLocked(teamID)
	if err != nil {
		return err
	}
	if !state.isMember(member) {
		return fmt.Errorf("%w: %q is not a member of team %s", core.ErrUnknownAgent, member, teamID)
	}
	if state.team.Status.Terminal() {
		return fmt.Errorf("%w: team %s is %s", core.ErrInvalidTransition, teamID, state.team.Status)
	}
	state.acks[member] = true
	if state.team.Status == core.TeamForming && state.allAcked() {
		state.team.Status = core.TeamActive
		e.logger.LogTeamTransition(teamID, string(core.TeamForming), string(core.TeamActive))
	}
	return nil
}

// Complete closes an active team as having finished its problem.
func (e *Engine) Complete(teamID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.teamLocked(teamID)
	if err != nil {
		return err
	}
	if state.team.Status != core.TeamActive {
		return fmt.Errorf("%w: cannot complete team %s in status %s", core.ErrInvalidTransition, teamID, state.team.Status)
	}
	state.team.Status = core.TeamCompleted
	e.logger.LogTeamTransition(teamID, string(core.TeamActive), string(core.TeamCompleted))
	return nil
}

// Dissolve disbands a forming or active team.
func (e *Engine) Dissolve(teamID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.teamLocked(teamID)
	if err != nil {
		return err
	}
	if state.team.Status.Terminal() {
		return fmt.Errorf("%w: team %s is %s", core.ErrInvalidTransition, teamID, state.team.Status)
	}
	from := state.team.Status
	state.team.Status = core.TeamDissolved
	e.logger.LogTeamTransition(teamID, string(from), string(core.TeamDissolved))
	return nil
}

// TeamStatus returns a copy of the team.
func (e *Engine) TeamStatus(teamID string) (core.Team, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	state, err := e.teamLocked(teamID)
	if err != nil {
		return core.Team{}, err
	}
	team := state.team
	team.Members = append([]string(nil), team.Members...)
	return team, nil
}

func (e *Engine) teamLocked(teamID string) (*teamState, error) {
	if !e.Ready() {
		return nil, fmt.Errorf("%w: collaboration engine not initialized", core.ErrDependencyNotReady)
	}
	state, ok := e.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("%w: team %q", core.ErrNotFound, teamID)
	}
	return state, nil
}
