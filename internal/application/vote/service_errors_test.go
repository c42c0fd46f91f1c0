package vote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spin-match/spin-match/internal/application/lifecycle"
	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/clock"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	pairingMocks "github.com/spin-match/spin-match/internal/domain/pairing/mocks"
	"github.com/spin-match/spin-match/internal/infrastructure/keylock"
	"github.com/spin-match/spin-match/internal/infrastructure/memstore"
)

func mockedService(t *testing.T, ctrl *gomock.Controller) (*Service, *pairingMocks.MockRepository, *pairingMocks.MockHistoryRepository) {
	t.Helper()
	pairings := pairingMocks.NewMockRepository(ctrl)
	history := pairingMocks.NewMockHistoryRepository(ctrl)
	participants := memstore.NewParticipantStore()
	fairness := memstore.NewFairnessStore()
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	lc := lifecycle.NewService(participants, nil, clk, zerolog.Nop())
	queue := appQueue.NewService(memstore.NewQueueStore(), pairings, participants, fairness, clk, zerolog.Nop())
	svc := NewService(pairings, history, fairness, queue, lc, keylock.NewMap(), nil, clk, 10, 30, zerolog.Nop())
	return svc, pairings, history
}

func TestRecordVoteStorageErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, pairings, _ := mockedService(t, ctrl)
	boom := errors.New("connection reset")
	pairings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := svc.RecordVote(context.Background(), uuid.New(), uuid.New(), domainPairing.VoteYes)
	assert.ErrorIs(t, err, boom)
}

func TestRecordVotePendingUpdateError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, pairings, _ := mockedService(t, ctrl)
	a, b := uuid.New(), uuid.New()
	p := domainPairing.New(a, b, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 10*time.Second)

	boom := errors.New("write failed")
	pairings.EXPECT().Get(gomock.Any(), p.ID).Return(p, nil)
	pairings.EXPECT().Update(gomock.Any(), gomock.Any()).Return(boom)

	_, err := svc.RecordVote(context.Background(), a, p.ID, domainPairing.VoteYes)
	assert.ErrorIs(t, err, boom)
}

func TestFinalizeHistoryErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, pairings, history := mockedService(t, ctrl)
	a, b := uuid.New(), uuid.New()
	p := domainPairing.New(a, b, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 10*time.Second)
	p.VoteA = domainPairing.VoteYes

	boom := errors.New("history write failed")
	pairings.EXPECT().Get(gomock.Any(), p.ID).Return(p, nil)
	pairings.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	history.EXPECT().Add(gomock.Any(), p.SideA, p.SideB).Return(boom)

	_, err := svc.RecordVote(context.Background(), p.SideB, p.ID, domainPairing.VoteYes)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
