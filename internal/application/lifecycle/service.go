// Package lifecycle is the single authority for participant state
// transitions. No other component writes lifecycle state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spin-match/spin-match/internal/clock"
	"github.com/spin-match/spin-match/internal/domain/participant"
	"github.com/spin-match/spin-match/internal/infrastructure/events"
)

// ErrIllegalTransition is returned when a requested transition is not in
// the legal transition table. It is never silently coerced.
var ErrIllegalTransition = errors.New("illegal lifecycle transition")

// Publisher receives lifecycle events.
type Publisher interface {
	Publish(events.Event)
}

// legal maps each state to the set of states reachable from it. idle is
// reachable from everywhere: a finalized disconnect always lands there.
var legal = map[participant.State]map[participant.State]bool{
	participant.StateIdle: {
		participant.StateWaiting: true,
		participant.StateIdle:    true,
	},
	participant.StateWaiting: {
		participant.StatePaired: true,
		participant.StateIdle:   true,
	},
	participant.StatePaired: {
		participant.StateVoting: true,
		participant.StateIdle:   true,
	},
	participant.StateVoting: {
		participant.StateInSession: true,
		participant.StateWaiting:   true,
		participant.StateIdle:      true,
	},
	participant.StateInSession: {
		participant.StateIdle: true,
	},
}

// Service validates and applies lifecycle transitions.
type Service struct {
	repo   participant.Repository
	hub    Publisher
	clk    clock.Clock
	logger zerolog.Logger
}

func NewService(repo participant.Repository, hub Publisher, clk clock.Clock, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hub:    hub,
		clk:    clk,
		logger: logger.With().Str("service", "lifecycle").Logger(),
	}
}

// Transition moves the participant to the target state if the transition
// is legal. Re-asserting the current state is a no-op.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to participant.State, reason string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("lifecycle transition lookup: %w", err)
	}
	if p.State == to {
		return nil
	}
	if !legal[p.State][to] {
		s.logger.Error().
			Str("participant_id", id.String()).
			Str("from", string(p.State)).
			Str("to", string(to)).
			Str("reason", reason).
			Msg("invariant violation: illegal transition requested")
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, p.State, to)
	}
	if err := s.repo.SetState(ctx, id, to); err != nil {
		return fmt.Errorf("lifecycle transition apply: %w", err)
	}
	s.logger.Debug().
		Str("participant_id", id.String()).
		Str("from", string(p.State)).
		Str("to", string(to)).
		Str("reason", reason).
		Msg("state transition")
	if s.hub != nil {
		s.hub.Publish(events.Event{
			Type:          events.TypeStateChanged,
			ParticipantID: id,
			State:         string(to),
			At:            s.clk.Now(),
		})
	}
	return nil
}

// ForceIdle finalizes a disconnect or repair: any state may drop to idle.
func (s *Service) ForceIdle(ctx context.Context, id uuid.UUID, reason string) error {
	return s.Transition(ctx, id, participant.StateIdle, reason)
}

// StateOf reads the participant's current state.
func (s *Service) StateOf(ctx context.Context, id uuid.UUID) (participant.State, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return p.State, nil
}
