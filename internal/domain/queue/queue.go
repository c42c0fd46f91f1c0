package queue

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/spin-match/spin-match/internal/domain/participant"
)

// Tier is a discrete preference-expansion step. Higher tiers loosen the
// effective search preferences; expansion is monotonic while waiting.
type Tier int

const (
	TierExact Tier = iota
	TierNear
	TierWide
	TierAnyCompatible
)

// Expansion thresholds: how long a participant must have been waiting to
// reach each tier.
const (
	TierNearAfter          = 10 * time.Second
	TierWideAfter          = 15 * time.Second
	TierAnyCompatibleAfter = 20 * time.Second
)

// TierFor returns the expansion tier for a given continuous wait duration.
func TierFor(waited time.Duration) Tier {
	switch {
	case waited >= TierAnyCompatibleAfter:
		return TierAnyCompatible
	case waited >= TierWideAfter:
		return TierWide
	case waited >= TierNearAfter:
		return TierNear
	default:
		return TierExact
	}
}

// Widen returns the age and radius widening applied at a tier. At
// TierAnyCompatible preferences collapse to gender-only and the returned
// values are not consulted.
func (t Tier) Widen() (ageYears int, radiusKm int) {
	switch t {
	case TierNear:
		return 2, 10
	case TierWide:
		return 5, 25
	default:
		return 0, 0
	}
}

// Entry is one waiting participant's slot in the pool. At most one Entry
// exists per participant; an entry exists iff the participant's state is
// waiting.
type Entry struct {
	ParticipantID uuid.UUID `json:"participantId"`
	EnqueuedAt    time.Time `json:"enqueuedAt"`
	Seq           uint64    `json:"seq"`
	Boost         float64   `json:"boost"`
}

// Score is the fairness score at instant now: base wait-time contribution
// plus the boost carried into this wait.
func (e *Entry) Score(now time.Time) float64 {
	wait := now.Sub(e.EnqueuedAt)
	if wait < 0 {
		wait = 0
	}
	return wait.Seconds() + e.Boost
}

// Tier returns the entry's current expansion tier.
func (e *Entry) Tier(now time.Time) Tier {
	return TierFor(now.Sub(e.EnqueuedAt))
}

// Candidate pairs a queue entry with the participant it references,
// with score and tier frozen at snapshot time so ordering is stable.
type Candidate struct {
	Entry       *Entry
	Participant *participant.Participant
	Score       float64
	Tier        Tier
}

// SortCandidates orders candidates by fairness score descending, then wait
// duration descending, then enqueue sequence ascending. The final tiebreak
// is total, so the order is deterministic.
func SortCandidates(cands []*Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Entry.EnqueuedAt.Equal(b.Entry.EnqueuedAt) {
			return a.Entry.EnqueuedAt.Before(b.Entry.EnqueuedAt)
		}
		return a.Entry.Seq < b.Entry.Seq
	})
}
