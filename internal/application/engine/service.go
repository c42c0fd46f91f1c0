// Package engine is the external face of the matchmaking core. It composes
// the queue, pairing, vote and liveness services into the five operations
// clients call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spin-match/spin-match/internal/application/lifecycle"
	"github.com/spin-match/spin-match/internal/application/liveness"
	appPairing "github.com/spin-match/spin-match/internal/application/pairing"
	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/application/vote"
	"github.com/spin-match/spin-match/internal/clock"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
)

var (
	// ErrCoolingDown rejects availability requests during the
	// post-disconnect cooldown window.
	ErrCoolingDown = errors.New("participant is cooling down")

	// ErrNotAvailable rejects availability requests from a participant who
	// is mid-pairing or in a session.
	ErrNotAvailable = errors.New("participant is paired or in a session")
)

// Profile is the client-supplied identity and preferences refreshed on every
// availability request.
type Profile struct {
	ID          uuid.UUID               `json:"id"`
	DisplayName string                  `json:"displayName"`
	Age         int                     `json:"age"`
	Gender      participant.Gender      `json:"gender"`
	Lat         float64                 `json:"lat"`
	Lon         float64                 `json:"lon"`
	Preferences participant.Preferences `json:"preferences"`
}

func (p *Profile) validate() error {
	if p.ID == uuid.Nil {
		return errors.New("participant id is required")
	}
	if p.Age < 18 {
		return errors.New("age must be at least 18")
	}
	if !participant.ValidGender(p.Gender) {
		return fmt.Errorf("unknown gender %q", p.Gender)
	}
	prefs := p.Preferences
	if prefs.MinAge > prefs.MaxAge {
		return errors.New("preference age range is inverted")
	}
	if prefs.MaxDistanceKm <= 0 {
		return errors.New("max distance must be positive")
	}
	if prefs.Gender != participant.GenderPrefAny && !participant.ValidGender(prefs.Gender) {
		return fmt.Errorf("unknown gender preference %q", prefs.Gender)
	}
	return nil
}

// Status is the poll view of one participant.
type Status struct {
	ParticipantID uuid.UUID             `json:"participantId"`
	State         participant.State     `json:"state"`
	EnqueuedAt    *time.Time            `json:"enqueuedAt,omitempty"`
	Boost         float64               `json:"boost,omitempty"`
	PairingID     *uuid.UUID            `json:"pairingId,omitempty"`
	Partner       *participant.Summary  `json:"partner,omitempty"`
	VoteDeadline  *time.Time            `json:"voteDeadline,omitempty"`
	YourVote      domainPairing.Vote    `json:"yourVote,omitempty"`
	LastOutcome   domainPairing.Outcome `json:"lastOutcome,omitempty"`
	CooldownUntil *time.Time            `json:"cooldownUntil,omitempty"`
}

// Service wires the matchmaking core together.
type Service struct {
	participants participant.Repository
	pairings     domainPairing.Repository
	queue        *appQueue.Service
	matcher      *appPairing.Service
	resolver     *vote.Service
	liveness     *liveness.Service
	lifecycle    *lifecycle.Service
	clk          clock.Clock
	cooldown     time.Duration
	logger       zerolog.Logger
}

func NewService(
	participants participant.Repository,
	pairings domainPairing.Repository,
	queue *appQueue.Service,
	matcher *appPairing.Service,
	resolver *vote.Service,
	liveness *liveness.Service,
	lifecycle *lifecycle.Service,
	clk clock.Clock,
	cooldown time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		participants: participants,
		pairings:     pairings,
		queue:        queue,
		matcher:      matcher,
		resolver:     resolver,
		liveness:     liveness,
		lifecycle:    lifecycle,
		clk:          clk,
		cooldown:     cooldown,
		logger:       logger.With().Str("service", "engine").Logger(),
	}
}

// RequestAvailability registers or refreshes the participant's profile and
// places them into the waiting pool. Repeating the request while already
// waiting refreshes the profile without a duplicate entry. A pairing attempt
// runs immediately; when it succeeds the returned status already shows the
// voting phase.
func (s *Service) RequestAvailability(ctx context.Context, prof Profile) (*Status, error) {
	if err := prof.validate(); err != nil {
		return nil, err
	}

	existing, err := s.participants.Get(ctx, prof.ID)
	if err != nil && !errors.Is(err, participant.ErrNotFound) {
		return nil, err
	}
	now := s.clk.Now()
	if existing != nil {
		if existing.OnCooldown(now) {
			return nil, ErrCoolingDown
		}
		switch existing.State {
		case participant.StatePaired, participant.StateVoting, participant.StateInSession:
			return nil, ErrNotAvailable
		}
	}

	if err := s.participants.Upsert(ctx, &participant.Participant{
		ID:          prof.ID,
		DisplayName: prof.DisplayName,
		Age:         prof.Age,
		Gender:      prof.Gender,
		Lat:         prof.Lat,
		Lon:         prof.Lon,
		Preferences: prof.Preferences,
		State:       participant.StateIdle,
		LastSeenAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("availability upsert: %w", err)
	}
	if err := s.liveness.Heartbeat(ctx, prof.ID); err != nil {
		return nil, err
	}

	alreadyWaiting := existing != nil && existing.State == participant.StateWaiting
	if !alreadyWaiting {
		if err := s.lifecycle.Transition(ctx, prof.ID, participant.StateWaiting, "availability requested"); err != nil {
			return nil, err
		}
		if _, err := s.queue.Enqueue(ctx, prof.ID); err != nil {
			return nil, err
		}
	}

	if _, err := s.matcher.TryPair(ctx, prof.ID); err != nil {
		// the periodic cycle will retry; availability itself succeeded
		s.logger.Warn().Err(err).
			Str("participant_id", prof.ID.String()).
			Msg("immediate pairing attempt failed")
	}
	return s.PollStatus(ctx, prof.ID)
}

// PollStatus returns the participant's current view: state, queue position
// data while waiting, the partner and deadline while voting, and the last
// outcome once resolved.
func (s *Service) PollStatus(ctx context.Context, id uuid.UUID) (*Status, error) {
	p, err := s.participants.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	st := &Status{ParticipantID: id, State: p.State, CooldownUntil: p.CooldownUntil}

	switch p.State {
	case participant.StateWaiting:
		e, err := s.queue.Entry(ctx, id)
		if err != nil {
			return nil, err
		}
		if e != nil {
			st.EnqueuedAt = &e.EnqueuedAt
			st.Boost = e.Boost
		}
	case participant.StatePaired, participant.StateVoting:
		open, err := s.pairings.GetOpenByParticipant(ctx, id)
		if err != nil {
			return nil, err
		}
		if open != nil {
			if err := s.fillPairing(ctx, st, open, id); err != nil {
				return nil, err
			}
		}
	case participant.StateInSession, participant.StateIdle:
		latest, err := s.pairings.GetLatestByParticipant(ctx, id)
		if err != nil {
			return nil, err
		}
		if latest != nil && !latest.Open() {
			st.LastOutcome = latest.Outcome
			if p.State == participant.StateInSession {
				if err := s.fillPairing(ctx, st, latest, id); err != nil {
					return nil, err
				}
			}
		}
	}
	return st, nil
}

func (s *Service) fillPairing(ctx context.Context, st *Status, p *domainPairing.Pairing, id uuid.UUID) error {
	partnerID, ok := p.Partner(id)
	if !ok {
		return nil
	}
	st.PairingID = &p.ID
	st.VoteDeadline = &p.VoteDeadline
	st.YourVote = p.VoteOf(id)
	partner, err := s.participants.Get(ctx, partnerID)
	if err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			return nil
		}
		return err
	}
	sum := partner.Summary()
	st.Partner = &sum
	return nil
}

// SubmitVote records the participant's vote on their open pairing. The vote
// doubles as a heartbeat.
func (s *Service) SubmitVote(ctx context.Context, id uuid.UUID, v domainPairing.Vote) (*Status, error) {
	open, err := s.pairings.GetOpenByParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, domainPairing.ErrStaleInput
	}
	if err := s.liveness.Heartbeat(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.resolver.RecordVote(ctx, id, open.ID, v); err != nil {
		return nil, err
	}
	return s.PollStatus(ctx, id)
}

// Heartbeat records a liveness signal.
func (s *Service) Heartbeat(ctx context.Context, id uuid.UUID) error {
	return s.liveness.Heartbeat(ctx, id)
}

// Disconnect removes the participant from the system immediately. Leaving
// the pool or abandoning a vote window starts a re-entry cooldown; ending a
// session does not.
func (s *Service) Disconnect(ctx context.Context, id uuid.UUID) error {
	p, err := s.participants.Get(ctx, id)
	if err != nil {
		return err
	}

	switch p.State {
	case participant.StateIdle:
		return nil
	case participant.StateWaiting:
		if _, err := s.queue.Dequeue(ctx, id, true); err != nil {
			return err
		}
		if err := s.lifecycle.ForceIdle(ctx, id, "voluntary disconnect"); err != nil {
			return err
		}
		return s.participants.SetCooldown(ctx, id, s.clk.Now().Add(s.cooldown))
	case participant.StatePaired, participant.StateVoting:
		open, err := s.pairings.GetOpenByParticipant(ctx, id)
		if err != nil {
			return err
		}
		if open != nil {
			if _, err := s.resolver.ForceDisconnect(ctx, open.ID, id); err != nil {
				return err
			}
		} else if err := s.lifecycle.ForceIdle(ctx, id, "disconnect with no open pairing"); err != nil {
			return err
		}
		return s.participants.SetCooldown(ctx, id, s.clk.Now().Add(s.cooldown))
	case participant.StateInSession:
		return s.lifecycle.ForceIdle(ctx, id, "session ended")
	}
	return nil
}
