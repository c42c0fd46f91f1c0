// Package pairing implements the atomic pairing engine: candidate
// selection over the fairness-ordered pool and an exactly-once pairing
// commit under per-participant locks.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/clock"
	"github.com/spin-match/spin-match/internal/domain/compat"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	domainQueue "github.com/spin-match/spin-match/internal/domain/queue"
	"github.com/spin-match/spin-match/internal/infrastructure/events"
	"github.com/spin-match/spin-match/internal/infrastructure/keylock"
	"github.com/spin-match/spin-match/internal/infrastructure/metrics"
)

// StalenessChecker reports whether a participant's heartbeats have gone
// quiet. Stale participants are excluded from new pairing candidacy.
type StalenessChecker interface {
	IsStale(ctx context.Context, id uuid.UUID) (bool, error)
}

// Publisher receives pairing events.
type Publisher interface {
	Publish(events.Event)
}

// Lifecycle is the slice of the state machine authority the engine needs.
type Lifecycle interface {
	Transition(ctx context.Context, id uuid.UUID, to participant.State, reason string) error
}

// Service is the pairing engine.
type Service struct {
	queue      *appQueue.Service
	pairings   domainPairing.Repository
	history    domainPairing.HistoryRepository
	fairness   participant.FairnessRepository
	lifecycle  Lifecycle
	staleness  StalenessChecker
	locks      *keylock.Map
	rule       *compat.Rule
	hub        Publisher
	clk        clock.Clock
	voteWindow time.Duration
	logger     zerolog.Logger
}

func NewService(
	queue *appQueue.Service,
	pairings domainPairing.Repository,
	history domainPairing.HistoryRepository,
	fairness participant.FairnessRepository,
	lifecycle Lifecycle,
	staleness StalenessChecker,
	locks *keylock.Map,
	rule *compat.Rule,
	hub Publisher,
	clk clock.Clock,
	voteWindow time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		queue:      queue,
		pairings:   pairings,
		history:    history,
		fairness:   fairness,
		lifecycle:  lifecycle,
		staleness:  staleness,
		locks:      locks,
		rule:       rule,
		hub:        hub,
		clk:        clk,
		voteWindow: voteWindow,
		logger:     logger.With().Str("service", "pairing").Logger(),
	}
}

// TryPair searches the pool for the best compatible partner for the given
// participant and commits the pairing exactly once. It returns (nil, nil)
// when no match exists this cycle; candidates lost to concurrent cycles are
// skipped, never treated as failures.
func (s *Service) TryPair(ctx context.Context, participantID uuid.UUID) (*domainPairing.Pairing, error) {
	snap, err := s.queue.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var self *domainQueue.Candidate
	for _, c := range snap {
		if c.Entry.ParticipantID == participantID {
			self = c
			break
		}
	}
	if self == nil {
		// gone from the pool between trigger and scan: benign race
		return nil, nil
	}
	if stale, err := s.staleness.IsStale(ctx, participantID); err != nil {
		return nil, err
	} else if stale {
		return nil, nil
	}

	for _, cand := range snap {
		if cand.Entry.ParticipantID == participantID {
			continue
		}
		ok, err := s.eligible(ctx, self, cand)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		p, err := s.commit(ctx, self, cand)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
		// candidate vanished or was locked by a concurrent cycle: keep scanning
	}
	return nil, nil
}

// RunCycle walks the pool in fairness order and pairs whoever can be
// paired. Safe to run concurrently with itself and with on-demand TryPair
// calls.
func (s *Service) RunCycle(ctx context.Context) error {
	snap, err := s.queue.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, c := range snap {
		if _, err := s.TryPair(ctx, c.Entry.ParticipantID); err != nil {
			s.logger.Warn().Err(err).
				Str("participant_id", c.Entry.ParticipantID.String()).
				Msg("pairing attempt failed")
		}
	}
	return nil
}

// eligible applies every check that does not require locks: gender and
// mutual preference compatibility at each side's tier, the optional custom
// rule, the no-rematch exclusion, and candidate staleness.
func (s *Service) eligible(ctx context.Context, self, cand *domainQueue.Candidate) (bool, error) {
	if !compat.Mutual(self.Participant, cand.Participant, self.Tier, cand.Tier) {
		return false, nil
	}
	if ok, err := s.rule.Match(self.Participant, cand.Participant); err != nil {
		s.logger.Warn().Err(err).Msg("compatibility rule evaluation failed")
		return false, nil
	} else if !ok {
		return false, nil
	}
	matched, err := s.history.Contains(ctx, self.Participant.ID, cand.Participant.ID)
	if err != nil {
		return false, fmt.Errorf("pair history check: %w", err)
	}
	if matched {
		return false, nil
	}
	stale, err := s.staleness.IsStale(ctx, cand.Participant.ID)
	if err != nil {
		return false, err
	}
	return !stale, nil
}

// commit performs the read-check-write sequence for one pair under both
// participants' locks, acquired in canonical order. It returns (nil, nil)
// when the pair could not be taken: lock contention, or either side no
// longer available at re-check.
func (s *Service) commit(ctx context.Context, self, cand *domainQueue.Candidate) (*domainPairing.Pairing, error) {
	a, b := self.Participant.ID, cand.Participant.ID

	var (
		committed *domainPairing.Pairing
		commitErr error
	)
	acquired := s.locks.TryWithLock(func() {
		committed, commitErr = s.commitLocked(ctx, a, b)
	}, a, b)
	if !acquired {
		metrics.ContentionSkipsTotal.Inc()
		return nil, nil
	}
	return committed, commitErr
}

func (s *Service) commitLocked(ctx context.Context, a, b uuid.UUID) (*domainPairing.Pairing, error) {
	// existence re-check immediately before commit: either side may have
	// been paired, dequeued, or disconnected since the snapshot
	for _, id := range []uuid.UUID{a, b} {
		entry, err := s.queue.Entry(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, nil
		}
		open, err := s.pairings.GetOpenByParticipant(ctx, id)
		if err != nil {
			return nil, err
		}
		if open != nil {
			return nil, nil
		}
	}

	p := domainPairing.New(a, b, s.clk.Now(), s.voteWindow)
	if err := s.pairings.Create(ctx, p); err != nil {
		// uniqueness constraint is the last line of defense; losing the
		// race here is contention, not failure
		if errors.Is(err, domainPairing.ErrOpenPairingExists) {
			metrics.ContentionSkipsTotal.Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("pairing create: %w", err)
	}

	for _, id := range []uuid.UUID{a, b} {
		if _, err := s.queue.Dequeue(ctx, id, false); err != nil {
			return nil, fmt.Errorf("pairing dequeue: %w", err)
		}
		// entering the voting phase resets accumulated fairness
		if err := s.fairness.ResetBoost(ctx, id); err != nil {
			return nil, fmt.Errorf("pairing fairness reset: %w", err)
		}
		if err := s.lifecycle.Transition(ctx, id, participant.StatePaired, "pairing committed"); err != nil {
			return nil, err
		}
		// the vote window opens immediately, never left pending
		if err := s.lifecycle.Transition(ctx, id, participant.StateVoting, "vote window opened"); err != nil {
			return nil, err
		}
	}

	if err := s.history.Add(ctx, a, b); err != nil {
		return nil, fmt.Errorf("pair history append: %w", err)
	}

	metrics.PairingsTotal.Inc()
	s.logger.Info().
		Str("pairing_id", p.ID.String()).
		Str("side_a", p.SideA.String()).
		Str("side_b", p.SideB.String()).
		Time("vote_deadline", p.VoteDeadline).
		Msg("pairing committed")

	if s.hub != nil {
		for _, id := range []uuid.UUID{a, b} {
			partner, _ := p.Partner(id)
			s.hub.Publish(events.Event{
				Type:          events.TypePaired,
				ParticipantID: id,
				PairingID:     &p.ID,
				PartnerID:     &partner,
				At:            s.clk.Now(),
			})
		}
	}
	return p, nil
}
