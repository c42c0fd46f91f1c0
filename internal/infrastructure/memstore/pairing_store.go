package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spin-match/spin-match/internal/domain/pairing"
)

// PairingStore implements pairing.Repository. An index of open pairings by
// participant enforces the one-open-pairing constraint on insert, the last
// line of defense behind the engine's locking.
type PairingStore struct {
	mu       sync.RWMutex
	pairings map[uuid.UUID]*pairing.Pairing
	open     map[uuid.UUID]uuid.UUID // participant -> open pairing ID
}

func NewPairingStore() *PairingStore {
	return &PairingStore{
		pairings: make(map[uuid.UUID]*pairing.Pairing),
		open:     make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *PairingStore) Create(_ context.Context, p *pairing.Pairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.open[p.SideA]; busy {
		return pairing.ErrOpenPairingExists
	}
	if _, busy := s.open[p.SideB]; busy {
		return pairing.ErrOpenPairingExists
	}
	cp := *p
	s.pairings[p.ID] = &cp
	s.open[p.SideA] = p.ID
	s.open[p.SideB] = p.ID
	return nil
}

func (s *PairingStore) Get(_ context.Context, id uuid.UUID) (*pairing.Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pairings[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *PairingStore) Update(_ context.Context, p *pairing.Pairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pairings[p.ID]; !ok {
		return pairing.ErrStaleInput
	}
	cp := *p
	s.pairings[p.ID] = &cp
	if !cp.Open() {
		delete(s.open, cp.SideA)
		delete(s.open, cp.SideB)
	}
	return nil
}

func (s *PairingStore) GetOpenByParticipant(_ context.Context, participantID uuid.UUID) (*pairing.Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.open[participantID]
	if !ok {
		return nil, nil
	}
	cp := *s.pairings[id]
	return &cp, nil
}

func (s *PairingStore) GetLatestByParticipant(_ context.Context, participantID uuid.UUID) (*pairing.Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *pairing.Pairing
	for _, p := range s.pairings {
		if !p.Has(participantID) {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *PairingStore) ListOpenExpired(_ context.Context, now time.Time) ([]*pairing.Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*pairing.Pairing
	for _, id := range s.open {
		p := s.pairings[id]
		if p.Open() && p.Expired(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return dedupe(out), nil
}

func (s *PairingStore) ListOpen(_ context.Context) ([]*pairing.Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*pairing.Pairing
	for _, id := range s.open {
		p := s.pairings[id]
		if p.Open() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return dedupe(out), nil
}

// dedupe drops the duplicate produced by a pairing being indexed under both
// of its sides.
func dedupe(in []*pairing.Pairing) []*pairing.Pairing {
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// HistoryStore implements pairing.HistoryRepository.
type HistoryStore struct {
	mu    sync.RWMutex
	pairs map[string]struct{}
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{pairs: make(map[string]struct{})}
}

func (s *HistoryStore) Add(_ context.Context, x, y uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[pairing.PairKey(x, y)] = struct{}{}
	return nil
}

func (s *HistoryStore) Contains(_ context.Context, x, y uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pairs[pairing.PairKey(x, y)]
	return ok, nil
}
