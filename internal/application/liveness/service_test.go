package liveness

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
	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/application/vote"
	"github.com/spin-match/spin-match/internal/clock"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	"github.com/spin-match/spin-match/internal/infrastructure/heartbeat"
	"github.com/spin-match/spin-match/internal/infrastructure/keylock"
	"github.com/spin-match/spin-match/internal/infrastructure/memstore"
)

type fixture struct {
	svc          *Service
	queue        *appQueue.Service
	participants *memstore.ParticipantStore
	pairings     *memstore.PairingStore
	fairness     *memstore.FairnessStore
	clk          *clock.Fake
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	hb := heartbeat.NewStore(heartbeat.NewClient(mr.Addr(), "", 0))

	f := &fixture{
		participants: memstore.NewParticipantStore(),
		pairings:     memstore.NewPairingStore(),
		fairness:     memstore.NewFairnessStore(),
		clk:          clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	lc := lifecycle.NewService(f.participants, nil, f.clk, zerolog.Nop())
	f.queue = appQueue.NewService(memstore.NewQueueStore(), f.pairings, f.participants, f.fairness, f.clk, zerolog.Nop())
	resolver := vote.NewService(f.pairings, memstore.NewHistoryStore(), f.fairness, f.queue, lc,
		keylock.NewMap(), nil, f.clk, 10, 30, zerolog.Nop())
	f.svc = NewService(hb, f.participants, f.pairings, f.queue, resolver, lc, f.clk,
		5*time.Second, 15*time.Second, 10*time.Second, zerolog.Nop())
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

func (f *fixture) get(t *testing.T, id uuid.UUID) *participant.Participant {
	t.Helper()
	p, err := f.participants.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func TestHeartbeatAndStaleness(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.add(t, participant.StateWaiting)

	require.NoError(t, f.svc.Heartbeat(ctx, id))
	stale, err := f.svc.IsStale(ctx, id)
	require.NoError(t, err)
	assert.False(t, stale)

	f.clk.Advance(4 * time.Second)
	stale, err = f.svc.IsStale(ctx, id)
	require.NoError(t, err)
	assert.False(t, stale)

	f.clk.Advance(2 * time.Second)
	stale, err = f.svc.IsStale(ctx, id)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestNoHeartbeatIsStale(t *testing.T) {
	f := setup(t)
	id := f.add(t, participant.StateWaiting)

	stale, err := f.svc.IsStale(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestHeartbeatUnknownParticipant(t *testing.T) {
	f := setup(t)
	err := f.svc.Heartbeat(context.Background(), uuid.New())
	assert.ErrorIs(t, err, participant.ErrNotFound)
}

func TestSweepEvictsOfflineWaiter(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.add(t, participant.StateWaiting)
	require.NoError(t, f.svc.Heartbeat(ctx, id))
	_, err := f.queue.Enqueue(ctx, id)
	require.NoError(t, err)

	f.clk.Advance(16 * time.Second)
	require.NoError(t, f.svc.Sweep(ctx))

	got := f.get(t, id)
	assert.Equal(t, participant.StateIdle, got.State)
	assert.True(t, got.OnCooldown(f.clk.Now()))

	e, err := f.queue.Entry(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestSweepLeavesFreshWaiterAlone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.add(t, participant.StateWaiting)
	require.NoError(t, f.svc.Heartbeat(ctx, id))
	_, err := f.queue.Enqueue(ctx, id)
	require.NoError(t, err)

	f.clk.Advance(10 * time.Second)
	require.NoError(t, f.svc.Heartbeat(ctx, id))
	f.clk.Advance(10 * time.Second)
	require.NoError(t, f.svc.Sweep(ctx))

	assert.Equal(t, participant.StateWaiting, f.get(t, id).State)
}

func TestSweepForceResolvesAbandonedPairing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	offline := f.add(t, participant.StateVoting)
	partner := f.add(t, participant.StateVoting)

	p := domainPairing.New(offline, partner, f.clk.Now(), 10*time.Second)
	require.NoError(t, f.pairings.Create(ctx, p))
	require.NoError(t, f.svc.Heartbeat(ctx, partner))

	f.clk.Advance(16 * time.Second)
	require.NoError(t, f.svc.Heartbeat(ctx, partner))
	require.NoError(t, f.svc.Sweep(ctx))

	got, err := f.pairings.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domainPairing.StatusResolved, got.Status)
	assert.Equal(t, domainPairing.OutcomeIdleIdle, got.Outcome)

	off := f.get(t, offline)
	assert.Equal(t, participant.StateIdle, off.State)
	assert.True(t, off.OnCooldown(f.clk.Now()))

	// the surviving partner is compensated, not penalized
	surv := f.get(t, partner)
	assert.Equal(t, participant.StateIdle, surv.State)
	assert.False(t, surv.OnCooldown(f.clk.Now()))
	boost, err := f.fairness.Boost(ctx, partner)
	require.NoError(t, err)
	assert.Equal(t, 10.0, boost)
}

func TestSweepIgnoresIdleAndInSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	idle := f.add(t, participant.StateIdle)
	inSession := f.add(t, participant.StateInSession)

	f.clk.Advance(time.Minute)
	require.NoError(t, f.svc.Sweep(ctx))

	assert.Equal(t, participant.StateIdle, f.get(t, idle).State)
	assert.Equal(t, participant.StateInSession, f.get(t, inSession).State)
	assert.False(t, f.get(t, idle).OnCooldown(f.clk.Now()))
}
