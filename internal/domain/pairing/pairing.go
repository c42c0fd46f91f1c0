package pairing

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a pairing's lifecycle status.
type Status string

const (
	StatusPaired   Status = "paired"
	StatusVoting   Status = "voting"
	StatusResolved Status = "resolved"
)

// Vote is one side's recorded vote. The zero value means unset.
type Vote string

const (
	VoteUnset Vote = ""
	VoteYes   Vote = "yes"
	VotePass  Vote = "pass"
)

var (
	// ErrNotOpen is returned for votes against a pairing that is already
	// resolved or does not exist.
	ErrNotOpen = errors.New("pairing is not open")

	// ErrNotMember is returned when the voter is not part of the pairing.
	ErrNotMember = errors.New("participant is not part of this pairing")

	// ErrContention signals that a concurrent attempt holds a needed lock
	// or already consumed a candidate. Callers retry on their next cycle;
	// it is never surfaced to end users as a failure.
	ErrContention = errors.New("contention: entity busy, retry next cycle")

	// ErrStaleInput marks input referencing queue or pairing artifacts
	// that no longer exist. Benign race, treated as a no-op.
	ErrStaleInput = errors.New("stale input: referenced artifact no longer exists")
)

// Pairing links two participants through the paired/voting phases. The two
// sides are stored in canonical order (lexically smaller UUID first) so
// duplicate detection is a single key comparison.
type Pairing struct {
	ID           uuid.UUID  `json:"id"`
	SideA        uuid.UUID  `json:"sideA"`
	SideB        uuid.UUID  `json:"sideB"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	VoteDeadline time.Time  `json:"voteDeadline"`
	VoteA        Vote       `json:"voteA"`
	VoteB        Vote       `json:"voteB"`
	Outcome      Outcome    `json:"outcome,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
}

// Canonicalize orders two participant IDs lexically. All storage and
// history keys use this ordering.
func Canonicalize(x, y uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(x.String(), y.String()) <= 0 {
		return x, y
	}
	return y, x
}

// PairKey is the canonical, order-independent key for a participant pair.
func PairKey(x, y uuid.UUID) string {
	a, b := Canonicalize(x, y)
	return a.String() + "|" + b.String()
}

// New creates an open pairing between two participants with votes unset.
func New(x, y uuid.UUID, now time.Time, voteWindow time.Duration) *Pairing {
	a, b := Canonicalize(x, y)
	return &Pairing{
		ID:           uuid.New(),
		SideA:        a,
		SideB:        b,
		Status:       StatusVoting,
		CreatedAt:    now,
		VoteDeadline: now.Add(voteWindow),
	}
}

// Open reports whether the pairing still accepts votes.
func (p *Pairing) Open() bool {
	return p.Status != StatusResolved
}

// Has reports whether the participant is one of the pairing's sides.
func (p *Pairing) Has(id uuid.UUID) bool {
	return p.SideA == id || p.SideB == id
}

// Partner returns the other side of the pairing.
func (p *Pairing) Partner(id uuid.UUID) (uuid.UUID, bool) {
	switch id {
	case p.SideA:
		return p.SideB, true
	case p.SideB:
		return p.SideA, true
	}
	return uuid.Nil, false
}

// VoteOf returns the recorded vote for the given side.
func (p *Pairing) VoteOf(id uuid.UUID) Vote {
	switch id {
	case p.SideA:
		return p.VoteA
	case p.SideB:
		return p.VoteB
	}
	return VoteUnset
}

// SetVote records a vote for the given side. The caller is responsible for
// idempotency and open-state checks.
func (p *Pairing) SetVote(id uuid.UUID, v Vote) {
	switch id {
	case p.SideA:
		p.VoteA = v
	case p.SideB:
		p.VoteB = v
	}
}

// Expired reports whether the vote window has passed.
func (p *Pairing) Expired(now time.Time) bool {
	return !now.Before(p.VoteDeadline)
}

func ValidVote(v Vote) bool {
	return v == VoteYes || v == VotePass
}
