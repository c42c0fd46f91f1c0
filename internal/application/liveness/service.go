// Package liveness supervises participant heartbeats: staleness checks for
// pairing candidacy and the offline sweep that force-resolves abandoned
// pairings.
package liveness

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/application/vote"
	"github.com/spin-match/spin-match/internal/clock"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	"github.com/spin-match/spin-match/internal/infrastructure/heartbeat"
	"github.com/spin-match/spin-match/internal/infrastructure/metrics"
)

// Resolver force-resolves a pairing abandoned by the offline side.
type Resolver interface {
	ForceDisconnect(ctx context.Context, pairingID, offlineID uuid.UUID) (*vote.Resolution, error)
}

// Lifecycle is the slice of the state machine authority the supervisor needs.
type Lifecycle interface {
	ForceIdle(ctx context.Context, id uuid.UUID, reason string) error
}

// Service tracks heartbeats and evicts participants that went quiet.
type Service struct {
	hb           *heartbeat.Store
	participants participant.Repository
	pairings     domainPairing.Repository
	queue        *appQueue.Service
	resolver     Resolver
	lifecycle    Lifecycle
	clk          clock.Clock
	staleAfter   time.Duration
	offlineAfter time.Duration
	cooldown     time.Duration
	logger       zerolog.Logger
}

func NewService(
	hb *heartbeat.Store,
	participants participant.Repository,
	pairings domainPairing.Repository,
	queue *appQueue.Service,
	resolver Resolver,
	lifecycle Lifecycle,
	clk clock.Clock,
	staleAfter, offlineAfter, cooldown time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		hb:           hb,
		participants: participants,
		pairings:     pairings,
		queue:        queue,
		resolver:     resolver,
		lifecycle:    lifecycle,
		clk:          clk,
		staleAfter:   staleAfter,
		offlineAfter: offlineAfter,
		cooldown:     cooldown,
		logger:       logger.With().Str("service", "liveness").Logger(),
	}
}

// Heartbeat records that the participant is alive. Unknown participants are
// rejected so a forgotten client cannot keep a ghost record warm.
func (s *Service) Heartbeat(ctx context.Context, id uuid.UUID) error {
	if _, err := s.participants.Get(ctx, id); err != nil {
		return err
	}
	return s.hb.Beat(ctx, id, s.clk.Now())
}

// IsStale reports whether the participant's last heartbeat is older than the
// staleness threshold. A participant with no heartbeat at all is stale; every
// live client beats at least once on arrival.
func (s *Service) IsStale(ctx context.Context, id uuid.UUID) (bool, error) {
	ts, ok, err := s.hb.LastSeen(ctx, id)
	if err != nil {
		return false, fmt.Errorf("staleness check: %w", err)
	}
	if !ok {
		return true, nil
	}
	return s.clk.Now().Sub(ts) > s.staleAfter, nil
}

// Sweep scans every active participant and evicts those offline for longer
// than the offline threshold. Waiting participants are dequeued and dropped
// to idle; a participant mid-vote triggers a forced resolution of their open
// pairing. Evicted participants get a re-entry cooldown.
func (s *Service) Sweep(ctx context.Context) error {
	metrics.SweepRunsTotal.WithLabelValues("liveness").Inc()

	all, err := s.participants.List(ctx)
	if err != nil {
		return fmt.Errorf("liveness sweep list: %w", err)
	}

	active := make([]*participant.Participant, 0, len(all))
	ids := make([]uuid.UUID, 0, len(all))
	for _, p := range all {
		switch p.State {
		case participant.StateWaiting, participant.StatePaired, participant.StateVoting:
			active = append(active, p)
			ids = append(ids, p.ID)
		}
	}
	if len(active) == 0 {
		return nil
	}

	seen, err := s.hb.LastSeenBatch(ctx, ids)
	if err != nil {
		return fmt.Errorf("liveness sweep heartbeats: %w", err)
	}

	now := s.clk.Now()
	for _, p := range active {
		ts, ok := seen[p.ID]
		if ok && now.Sub(ts) <= s.offlineAfter {
			continue
		}
		if err := s.evict(ctx, p); err != nil {
			s.logger.Warn().Err(err).
				Str("participant_id", p.ID.String()).
				Msg("offline eviction failed")
		}
	}
	return nil
}

func (s *Service) evict(ctx context.Context, p *participant.Participant) error {
	s.logger.Info().
		Str("participant_id", p.ID.String()).
		Str("state", string(p.State)).
		Msg("participant offline, evicting")

	switch p.State {
	case participant.StateWaiting:
		if _, err := s.queue.Dequeue(ctx, p.ID, true); err != nil {
			return err
		}
		if err := s.lifecycle.ForceIdle(ctx, p.ID, "offline while waiting"); err != nil {
			return err
		}
	case participant.StatePaired, participant.StateVoting:
		open, err := s.pairings.GetOpenByParticipant(ctx, p.ID)
		if err != nil {
			return err
		}
		if open != nil {
			if _, err := s.resolver.ForceDisconnect(ctx, open.ID, p.ID); err != nil {
				return err
			}
		} else if err := s.lifecycle.ForceIdle(ctx, p.ID, "offline with no open pairing"); err != nil {
			return err
		}
	}
	return s.participants.SetCooldown(ctx, p.ID, s.clk.Now().Add(s.cooldown))
}
