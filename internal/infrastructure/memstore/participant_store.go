// Package memstore provides concurrency-safe in-memory implementations of
// the domain repositories. It is the default backend and the one used by
// the engine's tests; the Postgres implementations mirror its semantics.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spin-match/spin-match/internal/domain/participant"
)

// ParticipantStore implements participant.Repository.
type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[uuid.UUID]*participant.Participant
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{participants: make(map[uuid.UUID]*participant.Participant)}
}

func (s *ParticipantStore) Get(_ context.Context, id uuid.UUID) (*participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, participant.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *ParticipantStore) Upsert(_ context.Context, p *participant.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	if existing, ok := s.participants[p.ID]; ok {
		// lifecycle state and cooldown are owned by their authorities,
		// not by profile refreshes
		cp.State = existing.State
		cp.CooldownUntil = existing.CooldownUntil
		cp.CreatedAt = existing.CreatedAt
	}
	s.participants[p.ID] = &cp
	return nil
}

func (s *ParticipantStore) List(_ context.Context) ([]*participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*participant.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *ParticipantStore) SetState(_ context.Context, id uuid.UUID, state participant.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return participant.ErrNotFound
	}
	p.State = state
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *ParticipantStore) SetCooldown(_ context.Context, id uuid.UUID, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return participant.ErrNotFound
	}
	p.CooldownUntil = &until
	return nil
}

// FairnessStore implements participant.FairnessRepository.
type FairnessStore struct {
	mu     sync.Mutex
	boosts map[uuid.UUID]float64
}

func NewFairnessStore() *FairnessStore {
	return &FairnessStore{boosts: make(map[uuid.UUID]float64)}
}

func (s *FairnessStore) Boost(_ context.Context, id uuid.UUID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boosts[id], nil
}

func (s *FairnessStore) AddBoost(_ context.Context, id uuid.UUID, delta, cap float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.boosts[id] + delta
	if v > cap {
		v = cap
	}
	s.boosts[id] = v
	return nil
}

func (s *FairnessStore) ResetBoost(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boosts, id)
	return nil
}
