package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spin-match/spin-match/internal/application/lifecycle"
	"github.com/spin-match/spin-match/internal/application/liveness"
	appPairing "github.com/spin-match/spin-match/internal/application/pairing"
	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/application/vote"
	"github.com/spin-match/spin-match/internal/clock"
	"github.com/spin-match/spin-match/internal/domain/compat"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	"github.com/spin-match/spin-match/internal/infrastructure/heartbeat"
	"github.com/spin-match/spin-match/internal/infrastructure/keylock"
	"github.com/spin-match/spin-match/internal/infrastructure/memstore"
)

type fixture struct {
	runner       *Runner
	participants *memstore.ParticipantStore
	entries      *memstore.QueueStore
	pairings     *memstore.PairingStore
	queue        *appQueue.Service
	lifecycle    *lifecycle.Service
	liveness     *liveness.Service
	clk          *clock.Fake
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	hb := heartbeat.NewStore(heartbeat.NewClient(mr.Addr(), "", 0))

	f := &fixture{
		participants: memstore.NewParticipantStore(),
		entries:      memstore.NewQueueStore(),
		pairings:     memstore.NewPairingStore(),
		clk:          clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	history := memstore.NewHistoryStore()
	fairness := memstore.NewFairnessStore()

	f.lifecycle = lifecycle.NewService(f.participants, nil, f.clk, zerolog.Nop())
	f.queue = appQueue.NewService(f.entries, f.pairings, f.participants, fairness, f.clk, zerolog.Nop())
	resolver := vote.NewService(f.pairings, history, fairness, f.queue, f.lifecycle,
		keylock.NewMap(), nil, f.clk, 10, 30, zerolog.Nop())
	f.liveness = liveness.NewService(hb, f.participants, f.pairings, f.queue, resolver, f.lifecycle, f.clk,
		5*time.Second, 15*time.Second, 10*time.Second, zerolog.Nop())
	rule, err := compat.NewRule("")
	require.NoError(t, err)
	matcher := appPairing.NewService(f.queue, f.pairings, history, fairness, f.lifecycle, f.liveness,
		keylock.NewMap(), rule, nil, f.clk, 10*time.Second, zerolog.Nop())

	f.runner = NewRunner(f.participants, f.entries, f.pairings, f.queue, matcher, resolver,
		f.liveness, f.lifecycle, f.clk, time.Second, 2*time.Second, zerolog.Nop())
	return f
}

func (f *fixture) add(t *testing.T, state participant.State) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.participants.Upsert(context.Background(), &participant.Participant{
		ID: id, State: state,
		Preferences: participant.Preferences{MinAge: 18, MaxAge: 99, MaxDistanceKm: 1000, Gender: participant.GenderPrefAny},
	}))
	return id
}

func TestExpirySweepResolvesOverduePairings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := f.add(t, participant.StateVoting)
	b := f.add(t, participant.StateVoting)
	p := domainPairing.New(a, b, f.clk.Now(), 10*time.Second)
	require.NoError(t, f.pairings.Create(ctx, p))

	// too early: nothing happens
	require.NoError(t, f.runner.ExpirySweep(ctx))
	got, err := f.pairings.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Open())

	f.clk.Advance(11 * time.Second)
	require.NoError(t, f.runner.ExpirySweep(ctx))
	got, err = f.pairings.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domainPairing.StatusResolved, got.Status)
	assert.Equal(t, domainPairing.OutcomeIdleIdle, got.Outcome)
}

func TestRepairResetsWaiterWithoutEntry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.add(t, participant.StateWaiting)

	require.NoError(t, f.runner.RepairSweep(ctx))
	p, err := f.participants.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, participant.StateIdle, p.State)
}

func TestRepairResetsVoterWithoutPairing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.add(t, participant.StateVoting)

	require.NoError(t, f.runner.RepairSweep(ctx))
	p, err := f.participants.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, participant.StateIdle, p.State)
}

func TestRepairRemovesOrphanedEntry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// entry held by a participant who already dropped to idle
	id := f.add(t, participant.StateIdle)
	_, err := f.queue.Enqueue(ctx, id)
	require.NoError(t, err)

	require.NoError(t, f.runner.RepairSweep(ctx))
	e, err := f.entries.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestRepairLeavesConsistentStateAlone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	waiting := f.add(t, participant.StateWaiting)
	_, err := f.queue.Enqueue(ctx, waiting)
	require.NoError(t, err)

	a := f.add(t, participant.StateVoting)
	b := f.add(t, participant.StateVoting)
	require.NoError(t, f.pairings.Create(ctx, domainPairing.New(a, b, f.clk.Now(), 10*time.Second)))

	require.NoError(t, f.runner.RepairSweep(ctx))

	for id, want := range map[uuid.UUID]participant.State{
		waiting: participant.StateWaiting,
		a:       participant.StateVoting,
		b:       participant.StateVoting,
	} {
		p, err := f.participants.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, p.State)
	}
	e, err := f.entries.Get(ctx, waiting)
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestStartStopsOnCancel(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.runner.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		f.runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner loops did not stop on cancel")
	}
}
