// Package sweeper drives the background loops: periodic match cycles,
// vote-window expiry, liveness eviction, and the repair sweep that reconciles
// lifecycle state with queue and pairing artifacts.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spin-match/spin-match/internal/application/liveness"
	appPairing "github.com/spin-match/spin-match/internal/application/pairing"
	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/application/vote"
	"github.com/spin-match/spin-match/internal/clock"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	domainQueue "github.com/spin-match/spin-match/internal/domain/queue"
	"github.com/spin-match/spin-match/internal/infrastructure/metrics"
)

// Lifecycle is the slice of the state machine authority the repair sweep needs.
type Lifecycle interface {
	ForceIdle(ctx context.Context, id uuid.UUID, reason string) error
}

// Runner owns the background loops. Start launches them; they stop when the
// context is cancelled and Wait returns once all have exited.
type Runner struct {
	participants participant.Repository
	entries      domainQueue.Repository
	pairings     domainPairing.Repository
	queue        *appQueue.Service
	matcher      *appPairing.Service
	resolver     *vote.Service
	liveness     *liveness.Service
	lifecycle    Lifecycle
	clk          clock.Clock

	matchInterval time.Duration
	sweepInterval time.Duration

	wg     sync.WaitGroup
	logger zerolog.Logger
}

func NewRunner(
	participants participant.Repository,
	entries domainQueue.Repository,
	pairings domainPairing.Repository,
	queue *appQueue.Service,
	matcher *appPairing.Service,
	resolver *vote.Service,
	liveness *liveness.Service,
	lifecycle Lifecycle,
	clk clock.Clock,
	matchInterval, sweepInterval time.Duration,
	logger zerolog.Logger,
) *Runner {
	return &Runner{
		participants:  participants,
		entries:       entries,
		pairings:      pairings,
		queue:         queue,
		matcher:       matcher,
		resolver:      resolver,
		liveness:      liveness,
		lifecycle:     lifecycle,
		clk:           clk,
		matchInterval: matchInterval,
		sweepInterval: sweepInterval,
		logger:        logger.With().Str("service", "sweeper").Logger(),
	}
}

// Start launches the match loop and the sweep loop.
func (r *Runner) Start(ctx context.Context) {
	r.loop(ctx, r.matchInterval, "match", func(ctx context.Context) error {
		return r.matcher.RunCycle(ctx)
	})
	r.loop(ctx, r.sweepInterval, "expiry", r.ExpirySweep)
	r.loop(ctx, r.sweepInterval, "liveness", r.liveness.Sweep)
	r.loop(ctx, r.sweepInterval, "repair", r.RepairSweep)
}

// Wait blocks until every loop started by Start has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, every time.Duration, name string, fn func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					r.logger.Warn().Err(err).Str("loop", name).Msg("background run failed")
				}
			}
		}
	}()
}

// ExpirySweep resolves every open pairing whose vote window has passed.
func (r *Runner) ExpirySweep(ctx context.Context) error {
	metrics.SweepRunsTotal.WithLabelValues("expiry").Inc()
	expired, err := r.pairings.ListOpenExpired(ctx, r.clk.Now())
	if err != nil {
		return err
	}
	for _, p := range expired {
		if _, err := r.resolver.ResolveExpired(ctx, p.ID); err != nil {
			r.logger.Warn().Err(err).
				Str("pairing_id", p.ID.String()).
				Msg("expiry resolution failed")
		}
	}
	return nil
}

// RepairSweep reconciles lifecycle state with queue and pairing artifacts.
// A participant whose state claims an artifact that does not exist is reset
// to idle; an artifact whose participant left the matching state is removed.
// It also refreshes the depth gauges.
func (r *Runner) RepairSweep(ctx context.Context) error {
	metrics.SweepRunsTotal.WithLabelValues("repair").Inc()

	all, err := r.participants.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		switch p.State {
		case participant.StateWaiting:
			e, err := r.entries.Get(ctx, p.ID)
			if err != nil {
				return err
			}
			if e == nil {
				r.reset(ctx, p, "waiting without queue entry")
			}
		case participant.StatePaired, participant.StateVoting:
			open, err := r.pairings.GetOpenByParticipant(ctx, p.ID)
			if err != nil {
				return err
			}
			if open == nil {
				r.reset(ctx, p, "mid-pairing without open pairing")
			}
		}
	}

	// orphaned queue entries: participant gone or no longer waiting
	entries, err := r.entries.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p, err := r.participants.Get(ctx, e.ParticipantID)
		if err == nil && p.State == participant.StateWaiting {
			continue
		}
		if _, err := r.queue.Dequeue(ctx, e.ParticipantID, true); err != nil {
			r.logger.Warn().Err(err).
				Str("participant_id", e.ParticipantID.String()).
				Msg("orphan entry removal failed")
			continue
		}
		r.logger.Info().
			Str("participant_id", e.ParticipantID.String()).
			Msg("removed orphaned queue entry")
	}

	return r.updateGauges(ctx)
}

func (r *Runner) reset(ctx context.Context, p *participant.Participant, reason string) {
	if err := r.lifecycle.ForceIdle(ctx, p.ID, reason); err != nil {
		r.logger.Warn().Err(err).
			Str("participant_id", p.ID.String()).
			Msg("repair reset failed")
		return
	}
	metrics.RepairResetsTotal.Inc()
	r.logger.Info().
		Str("participant_id", p.ID.String()).
		Str("was", string(p.State)).
		Str("reason", reason).
		Msg("repaired inconsistent participant")
}

func (r *Runner) updateGauges(ctx context.Context) error {
	entries, err := r.entries.List(ctx)
	if err != nil {
		return err
	}
	metrics.QueueDepth.Set(float64(len(entries)))

	now := r.clk.Now()
	var longest float64
	for _, e := range entries {
		if w := now.Sub(e.EnqueuedAt).Seconds(); w > longest {
			longest = w
		}
	}
	metrics.LongestWaitSeconds.Set(longest)

	open, err := r.pairings.ListOpen(ctx)
	if err != nil {
		return err
	}
	metrics.OpenPairings.Set(float64(len(open)))
	return nil
}
