package vote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spin-match/spin-match/internal/application/lifecycle"
	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/clock"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	"github.com/spin-match/spin-match/internal/infrastructure/keylock"
	"github.com/spin-match/spin-match/internal/infrastructure/memstore"
)

type fixture struct {
	svc          *Service
	queue        *appQueue.Service
	participants *memstore.ParticipantStore
	pairings     *memstore.PairingStore
	history      *memstore.HistoryStore
	fairness     *memstore.FairnessStore
	clk          *clock.Fake
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		participants: memstore.NewParticipantStore(),
		pairings:     memstore.NewPairingStore(),
		history:      memstore.NewHistoryStore(),
		fairness:     memstore.NewFairnessStore(),
		clk:          clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	lc := lifecycle.NewService(f.participants, nil, f.clk, zerolog.Nop())
	f.queue = appQueue.NewService(memstore.NewQueueStore(), f.pairings, f.participants, f.fairness, f.clk, zerolog.Nop())
	f.svc = NewService(f.pairings, f.history, f.fairness, f.queue, lc, keylock.NewMap(), nil, f.clk, 10, 30, zerolog.Nop())
	return f
}

// pair creates two voting participants with an open pairing.
func (f *fixture) pair(t *testing.T) (a, b uuid.UUID, p *domainPairing.Pairing) {
	t.Helper()
	ctx := context.Background()
	a, b = uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{a, b} {
		require.NoError(t, f.participants.Upsert(ctx, &participant.Participant{
			ID: id, State: participant.StateVoting,
			Preferences: participant.Preferences{MinAge: 18, MaxAge: 99, MaxDistanceKm: 1000, Gender: participant.GenderPrefAny},
		}))
	}
	p = domainPairing.New(a, b, f.clk.Now(), 10*time.Second)
	require.NoError(t, f.pairings.Create(ctx, p))
	return a, b, p
}

func (f *fixture) stateOf(t *testing.T, id uuid.UUID) participant.State {
	t.Helper()
	got, err := f.participants.Get(context.Background(), id)
	require.NoError(t, err)
	return got.State
}

func (f *fixture) boostOf(t *testing.T, id uuid.UUID) float64 {
	t.Helper()
	v, err := f.fairness.Boost(context.Background(), id)
	require.NoError(t, err)
	return v
}

func TestBothYes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	res, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)
	assert.Nil(t, res, "outcome resolved with only one vote")

	res, err = f.svc.RecordVote(ctx, b, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomeBothYes, res.Outcome)

	assert.Equal(t, participant.StateInSession, f.stateOf(t, a))
	assert.Equal(t, participant.StateInSession, f.stateOf(t, b))

	excluded, err := f.history.Contains(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, excluded)
}

func TestMixedBoostsTheYesVoter(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	_, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)
	res, err := f.svc.RecordVote(ctx, b, p.ID, domainPairing.VotePass)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomeMixed, res.Outcome)

	// both re-enqueued, only the betrayed yes-voter boosted
	assert.Equal(t, participant.StateWaiting, f.stateOf(t, a))
	assert.Equal(t, participant.StateWaiting, f.stateOf(t, b))
	assert.Equal(t, 10.0, f.boostOf(t, a))
	assert.Zero(t, f.boostOf(t, b))

	ea, err := f.queue.Entry(ctx, a)
	require.NoError(t, err)
	require.NotNil(t, ea)
	assert.Equal(t, 10.0, ea.Boost)
}

func TestBothPassReenqueuesWithoutBoost(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	_, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VotePass)
	require.NoError(t, err)
	res, err := f.svc.RecordVote(ctx, b, p.ID, domainPairing.VotePass)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomeBothPass, res.Outcome)

	assert.Equal(t, participant.StateWaiting, f.stateOf(t, a))
	assert.Equal(t, participant.StateWaiting, f.stateOf(t, b))
	assert.Zero(t, f.boostOf(t, a))
	assert.Zero(t, f.boostOf(t, b))
}

func TestYesIdleOnExpiry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	_, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)

	f.clk.Advance(11 * time.Second)
	res, err := f.svc.ResolveExpired(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomeYesIdle, res.Outcome)

	assert.Equal(t, participant.StateWaiting, f.stateOf(t, a))
	assert.Equal(t, 10.0, f.boostOf(t, a))
	assert.Equal(t, participant.StateIdle, f.stateOf(t, b))
}

func TestPassIdleOnExpiry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	_, err := f.svc.RecordVote(ctx, b, p.ID, domainPairing.VotePass)
	require.NoError(t, err)

	f.clk.Advance(11 * time.Second)
	res, err := f.svc.ResolveExpired(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomePassIdle, res.Outcome)

	assert.Equal(t, participant.StateWaiting, f.stateOf(t, b))
	assert.Zero(t, f.boostOf(t, b))
	assert.Equal(t, participant.StateIdle, f.stateOf(t, a))
}

func TestIdleIdleOnExpiry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	f.clk.Advance(11 * time.Second)
	res, err := f.svc.ResolveExpired(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomeIdleIdle, res.Outcome)
	assert.Equal(t, participant.StateIdle, f.stateOf(t, a))
	assert.Equal(t, participant.StateIdle, f.stateOf(t, b))
}

func TestResolveExpiredBeforeDeadlineIsNoOp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, _, p := f.pair(t)

	res, err := f.svc.ResolveExpired(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, res)

	got, err := f.pairings.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Open())
}

func TestVoteIdempotentAndChangeable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	_, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VotePass)
	require.NoError(t, err)
	// repeat: no-op
	_, err = f.svc.RecordVote(ctx, a, p.ID, domainPairing.VotePass)
	require.NoError(t, err)
	// change before partner acted: allowed
	_, err = f.svc.RecordVote(ctx, a, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)

	res, err := f.svc.RecordVote(ctx, b, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomeBothYes, res.Outcome)
}

func TestVoteAfterResolutionReturnsExistingOutcome(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	_, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VotePass)
	require.NoError(t, err)
	res, err := f.svc.RecordVote(ctx, b, p.ID, domainPairing.VotePass)
	require.NoError(t, err)
	require.NotNil(t, res)

	// a late vote observes the resolved outcome, does not change it
	res2, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)
	require.NotNil(t, res2)
	assert.Equal(t, domainPairing.OutcomeBothPass, res2.Outcome)
}

func TestVoteOnUnknownPairing(t *testing.T) {
	f := setup(t)
	a, _, _ := f.pair(t)
	_, err := f.svc.RecordVote(context.Background(), a, uuid.New(), domainPairing.VoteYes)
	assert.ErrorIs(t, err, domainPairing.ErrStaleInput)
}

func TestVoteByNonMember(t *testing.T) {
	f := setup(t)
	_, _, p := f.pair(t)
	_, err := f.svc.RecordVote(context.Background(), uuid.New(), p.ID, domainPairing.VoteYes)
	assert.ErrorIs(t, err, domainPairing.ErrNotMember)
}

func TestInvalidVoteRejected(t *testing.T) {
	f := setup(t)
	a, _, p := f.pair(t)
	_, err := f.svc.RecordVote(context.Background(), a, p.ID, domainPairing.Vote("maybe"))
	assert.Error(t, err)
}

func TestOutcomeDeterministicRegardlessOfArrivalOrder(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := setup(t)
		ctx := context.Background()
		a, b, p := f.pair(t)

		var wg sync.WaitGroup
		results := make([]*Resolution, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VotePass)
			assert.NoError(t, err)
			results[0] = res
		}()
		go func() {
			defer wg.Done()
			res, err := f.svc.RecordVote(ctx, b, p.ID, domainPairing.VotePass)
			assert.NoError(t, err)
			results[1] = res
		}()
		wg.Wait()

		// exactly one submitter triggers resolution; the other either saw
		// pending or the already-resolved outcome — never a different one
		var resolved int
		for _, r := range results {
			if r != nil {
				assert.Equal(t, domainPairing.OutcomeBothPass, r.Outcome)
				resolved++
			}
		}
		assert.GreaterOrEqual(t, resolved, 1)

		got, err := f.pairings.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domainPairing.StatusResolved, got.Status)
	}
}

func TestForceDisconnectIgnoresOfflineVote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	// the offline side had voted yes; the forced resolution discards it
	_, err := f.svc.RecordVote(ctx, b, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)

	res, err := f.svc.ForceDisconnect(ctx, p.ID, b)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomeIdleIdle, res.Outcome)
	assert.Equal(t, participant.StateIdle, f.stateOf(t, a))
	assert.Equal(t, participant.StateIdle, f.stateOf(t, b))
	// the surviving partner is compensated for the lost window
	assert.Equal(t, 10.0, f.boostOf(t, a))
}

func TestForceDisconnectPartnerVotedYes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, p := f.pair(t)

	_, err := f.svc.RecordVote(ctx, a, p.ID, domainPairing.VoteYes)
	require.NoError(t, err)

	res, err := f.svc.ForceDisconnect(ctx, p.ID, b)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domainPairing.OutcomeYesIdle, res.Outcome)
	assert.Equal(t, participant.StateWaiting, f.stateOf(t, a))
	assert.Equal(t, 10.0, f.boostOf(t, a))
	assert.Equal(t, participant.StateIdle, f.stateOf(t, b))
}

func TestForceDisconnectIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, b, p := f.pair(t)

	res1, err := f.svc.ForceDisconnect(ctx, p.ID, b)
	require.NoError(t, err)
	res2, err := f.svc.ForceDisconnect(ctx, p.ID, b)
	require.NoError(t, err)
	assert.Equal(t, res1.Outcome, res2.Outcome)
}
