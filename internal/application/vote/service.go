// Package vote implements the vote and outcome resolver: idempotent vote
// recording and deterministic resolution of the outcome table, exactly once
// per pairing.
package vote

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/clock"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	"github.com/spin-match/spin-match/internal/infrastructure/events"
	"github.com/spin-match/spin-match/internal/infrastructure/keylock"
	"github.com/spin-match/spin-match/internal/infrastructure/metrics"
)

// Publisher receives outcome events.
type Publisher interface {
	Publish(events.Event)
}

// Lifecycle is the slice of the state machine authority the resolver needs.
type Lifecycle interface {
	Transition(ctx context.Context, id uuid.UUID, to participant.State, reason string) error
}

// Resolution is the result of a resolved pairing.
type Resolution struct {
	Outcome domainPairing.Outcome
	Pairing *domainPairing.Pairing
}

// Service records votes and resolves outcomes.
type Service struct {
	pairings  domainPairing.Repository
	history   domainPairing.HistoryRepository
	fairness  participant.FairnessRepository
	queue     *appQueue.Service
	lifecycle Lifecycle
	locks     *keylock.Map
	hub       Publisher
	clk       clock.Clock
	boostInc  float64
	boostCap  float64
	logger    zerolog.Logger
}

func NewService(
	pairings domainPairing.Repository,
	history domainPairing.HistoryRepository,
	fairness participant.FairnessRepository,
	queue *appQueue.Service,
	lifecycle Lifecycle,
	locks *keylock.Map,
	hub Publisher,
	clk clock.Clock,
	boostInc, boostCap float64,
	logger zerolog.Logger,
) *Service {
	return &Service{
		pairings:  pairings,
		history:   history,
		fairness:  fairness,
		queue:     queue,
		lifecycle: lifecycle,
		locks:     locks,
		hub:       hub,
		clk:       clk,
		boostInc:  boostInc,
		boostCap:  boostCap,
		logger:    logger.With().Str("service", "vote").Logger(),
	}
}

// RecordVote records a participant's vote. Repeated identical votes are
// no-ops; a vote may change until the partner has acted. The returned
// Resolution is nil while the outcome is still pending. When the pairing is
// already resolved the existing outcome is returned, so both sides of a
// concurrent resolution observe the same result.
func (s *Service) RecordVote(ctx context.Context, participantID, pairingID uuid.UUID, v domainPairing.Vote) (*Resolution, error) {
	if !domainPairing.ValidVote(v) {
		return nil, fmt.Errorf("invalid vote %q", v)
	}

	var (
		res *Resolution
		err error
	)
	s.locks.WithLock(func() {
		res, err = s.recordLocked(ctx, participantID, pairingID, v)
	}, pairingID)
	return res, err
}

func (s *Service) recordLocked(ctx context.Context, participantID, pairingID uuid.UUID, v domainPairing.Vote) (*Resolution, error) {
	p, err := s.pairings.Get(ctx, pairingID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainPairing.ErrStaleInput
	}
	if !p.Has(participantID) {
		return nil, domainPairing.ErrNotMember
	}
	if !p.Open() {
		return &Resolution{Outcome: p.Outcome, Pairing: p}, nil
	}

	p.SetVote(participantID, v)
	outcome, done := domainPairing.Resolve(p.VoteA, p.VoteB, p.Expired(s.clk.Now()))
	if !done {
		if err := s.pairings.Update(ctx, p); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s.finalize(ctx, p, outcome, uuid.Nil)
}

// ResolveExpired resolves a pairing whose vote window has passed, using
// whatever votes are set. Called by the expiry sweep; idempotent.
func (s *Service) ResolveExpired(ctx context.Context, pairingID uuid.UUID) (*Resolution, error) {
	var (
		res *Resolution
		err error
	)
	s.locks.WithLock(func() {
		res, err = s.resolveExpiredLocked(ctx, pairingID)
	}, pairingID)
	return res, err
}

func (s *Service) resolveExpiredLocked(ctx context.Context, pairingID uuid.UUID) (*Resolution, error) {
	p, err := s.pairings.Get(ctx, pairingID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainPairing.ErrStaleInput
	}
	if !p.Open() {
		return &Resolution{Outcome: p.Outcome, Pairing: p}, nil
	}
	if !p.Expired(s.clk.Now()) {
		return nil, nil
	}
	outcome, done := domainPairing.Resolve(p.VoteA, p.VoteB, true)
	if !done {
		return nil, nil
	}
	return s.finalize(ctx, p, outcome, uuid.Nil)
}

// ForceDisconnect resolves an open pairing because one side went offline.
// The offline participant is treated as if they had never voted; the
// surviving partner receives a fairness boost regardless of their vote.
func (s *Service) ForceDisconnect(ctx context.Context, pairingID, offlineID uuid.UUID) (*Resolution, error) {
	var (
		res *Resolution
		err error
	)
	s.locks.WithLock(func() {
		res, err = s.forceDisconnectLocked(ctx, pairingID, offlineID)
	}, pairingID)
	return res, err
}

func (s *Service) forceDisconnectLocked(ctx context.Context, pairingID, offlineID uuid.UUID) (*Resolution, error) {
	p, err := s.pairings.Get(ctx, pairingID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainPairing.ErrStaleInput
	}
	if !p.Has(offlineID) {
		return nil, domainPairing.ErrNotMember
	}
	if !p.Open() {
		return &Resolution{Outcome: p.Outcome, Pairing: p}, nil
	}

	p.SetVote(offlineID, domainPairing.VoteUnset)
	partner, _ := p.Partner(offlineID)
	outcome, _ := domainPairing.Resolve(p.VoteA, p.VoteB, true)
	return s.finalize(ctx, p, outcome, partner)
}

// finalize commits the outcome and applies per-side effects. boostExtra,
// when set, names a side that receives a boost on top of the outcome
// table's dispositions (the surviving partner of a disconnect).
func (s *Service) finalize(ctx context.Context, p *domainPairing.Pairing, outcome domainPairing.Outcome, boostExtra uuid.UUID) (*Resolution, error) {
	now := s.clk.Now()
	p.Status = domainPairing.StatusResolved
	p.Outcome = outcome
	p.ResolvedAt = &now
	if err := s.pairings.Update(ctx, p); err != nil {
		return nil, err
	}

	// permanent exclusion; Add is idempotent so concurrent resolution
	// directions still write exactly once
	if err := s.history.Add(ctx, p.SideA, p.SideB); err != nil {
		return nil, fmt.Errorf("outcome history append: %w", err)
	}

	for _, side := range []uuid.UUID{p.SideA, p.SideB} {
		d := domainPairing.DispositionFor(outcome, p.VoteOf(side))
		boosted := d.Boosted || side == boostExtra
		if boosted {
			if err := s.fairness.AddBoost(ctx, side, s.boostInc, s.boostCap); err != nil {
				return nil, fmt.Errorf("outcome boost: %w", err)
			}
		}

		switch d.NextState {
		case participant.StateInSession:
			if err := s.lifecycle.Transition(ctx, side, participant.StateInSession, "both voted yes"); err != nil {
				return nil, err
			}
			// entering a session clears accumulated fairness
			if err := s.fairness.ResetBoost(ctx, side); err != nil {
				return nil, err
			}
		case participant.StateWaiting:
			if err := s.lifecycle.Transition(ctx, side, participant.StateWaiting, "re-enqueued after "+string(outcome)); err != nil {
				return nil, err
			}
			if _, err := s.queue.Enqueue(ctx, side); err != nil {
				return nil, fmt.Errorf("outcome re-enqueue: %w", err)
			}
		default:
			if err := s.lifecycle.Transition(ctx, side, participant.StateIdle, "dropped after "+string(outcome)); err != nil {
				return nil, err
			}
		}
	}

	metrics.OutcomesTotal.WithLabelValues(string(outcome)).Inc()
	s.logger.Info().
		Str("pairing_id", p.ID.String()).
		Str("outcome", string(outcome)).
		Msg("pairing resolved")

	if s.hub != nil {
		for _, side := range []uuid.UUID{p.SideA, p.SideB} {
			partner, _ := p.Partner(side)
			s.hub.Publish(events.Event{
				Type:          events.TypeOutcome,
				ParticipantID: side,
				PairingID:     &p.ID,
				PartnerID:     &partner,
				Outcome:       string(outcome),
				At:            now,
			})
		}
	}
	return &Resolution{Outcome: outcome, Pairing: p}, nil
}
