package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/spin-match/spin-match/internal/domain/queue"
)

// QueueStore implements queue.Repository. Sequence numbers are assigned at
// insert and give the pool a stable, deterministic tiebreak.
type QueueStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*queue.Entry
	nextSeq uint64
}

func NewQueueStore() *QueueStore {
	return &QueueStore{entries: make(map[uuid.UUID]*queue.Entry)}
}

func (s *QueueStore) Insert(_ context.Context, e *queue.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ParticipantID]; ok {
		return queue.ErrDuplicateEnqueue
	}
	s.nextSeq++
	cp := *e
	cp.Seq = s.nextSeq
	s.entries[e.ParticipantID] = &cp
	e.Seq = cp.Seq
	return nil
}

func (s *QueueStore) Remove(_ context.Context, participantID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[participantID]; !ok {
		return false, nil
	}
	delete(s.entries, participantID)
	return true, nil
}

func (s *QueueStore) Get(_ context.Context, participantID uuid.UUID) (*queue.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[participantID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *QueueStore) List(_ context.Context) ([]*queue.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*queue.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
