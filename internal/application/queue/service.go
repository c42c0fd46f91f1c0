// Package queue implements the waiting pool manager: enqueue with
// duplicate prevention, fairness-ordered snapshots, preference expansion.
package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spin-match/spin-match/internal/clock"
	"github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	domainQueue "github.com/spin-match/spin-match/internal/domain/queue"
)

// Service owns access to the waiting pool.
type Service struct {
	entries      domainQueue.Repository
	pairings     pairing.Repository
	participants participant.Repository
	fairness     participant.FairnessRepository
	clk          clock.Clock
	logger       zerolog.Logger
}

func NewService(
	entries domainQueue.Repository,
	pairings pairing.Repository,
	participants participant.Repository,
	fairness participant.FairnessRepository,
	clk clock.Clock,
	logger zerolog.Logger,
) *Service {
	return &Service{
		entries:      entries,
		pairings:     pairings,
		participants: participants,
		fairness:     fairness,
		clk:          clk,
		logger:       logger.With().Str("service", "queue").Logger(),
	}
}

// Enqueue places the participant into the waiting pool. The entry carries
// whatever boost the participant has accumulated; expansion starts fresh at
// tier 0 for every wait.
func (s *Service) Enqueue(ctx context.Context, participantID uuid.UUID) (*domainQueue.Entry, error) {
	open, err := s.pairings.GetOpenByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("enqueue open-pairing check: %w", err)
	}
	if open != nil {
		return nil, domainQueue.ErrDuplicateEnqueue
	}

	boost, err := s.fairness.Boost(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("enqueue boost read: %w", err)
	}

	e := &domainQueue.Entry{
		ParticipantID: participantID,
		EnqueuedAt:    s.clk.Now(),
		Boost:         boost,
	}
	if err := s.entries.Insert(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str("participant_id", participantID.String()).
		Float64("boost", boost).
		Msg("enqueued")
	return e, nil
}

// Dequeue removes the participant from the pool. resetFairness clears the
// accumulated boost; it is false only when the removal is part of a pairing
// commit (the boost reset then belongs to entering the voting phase).
func (s *Service) Dequeue(ctx context.Context, participantID uuid.UUID, resetFairness bool) (bool, error) {
	removed, err := s.entries.Remove(ctx, participantID)
	if err != nil {
		return false, err
	}
	if removed && resetFairness {
		if err := s.fairness.ResetBoost(ctx, participantID); err != nil {
			return removed, fmt.Errorf("dequeue fairness reset: %w", err)
		}
	}
	return removed, nil
}

// Snapshot returns the pool as ordered candidates: fairness score
// descending, wait descending, enqueue sequence as the stable tiebreak.
// Scores and tiers are frozen at the snapshot instant.
func (s *Service) Snapshot(ctx context.Context) ([]*domainQueue.Candidate, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue snapshot: %w", err)
	}
	now := s.clk.Now()

	cands := make([]*domainQueue.Candidate, 0, len(entries))
	for _, e := range entries {
		p, err := s.participants.Get(ctx, e.ParticipantID)
		if err != nil {
			// entry for an unknown participant is repaired by the sweep
			s.logger.Warn().
				Str("participant_id", e.ParticipantID.String()).
				Msg("queue entry without participant record")
			continue
		}
		cands = append(cands, &domainQueue.Candidate{
			Entry:       e,
			Participant: p,
			Score:       e.Score(now),
			Tier:        e.Tier(now),
		})
	}
	domainQueue.SortCandidates(cands)
	return cands, nil
}

// Entry returns the participant's queue entry, or nil.
func (s *Service) Entry(ctx context.Context, participantID uuid.UUID) (*domainQueue.Entry, error) {
	return s.entries.Get(ctx, participantID)
}
