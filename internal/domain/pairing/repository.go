//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,HistoryRepository
package pairing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrOpenPairingExists is the uniqueness-constraint violation raised when a
// create would give a participant a second simultaneously-open pairing.
var ErrOpenPairingExists = errors.New("participant already has an open pairing")

// Repository persists pairings. Create must enforce, as a last line of
// defense, that neither side already appears in an open pairing.
type Repository interface {
	Create(ctx context.Context, p *Pairing) error
	Get(ctx context.Context, id uuid.UUID) (*Pairing, error)
	Update(ctx context.Context, p *Pairing) error

	// GetOpenByParticipant returns the participant's open pairing, or nil.
	GetOpenByParticipant(ctx context.Context, participantID uuid.UUID) (*Pairing, error)

	// GetLatestByParticipant returns the most recently created pairing
	// involving the participant, open or resolved, or nil.
	GetLatestByParticipant(ctx context.Context, participantID uuid.UUID) (*Pairing, error)

	// ListOpenExpired returns open pairings whose vote deadline has passed.
	ListOpenExpired(ctx context.Context, now time.Time) ([]*Pairing, error)

	// ListOpen returns all open pairings.
	ListOpen(ctx context.Context) ([]*Pairing, error)
}

// HistoryRepository is the append-only record of every pair ever formed.
// Membership tests are symmetric in the two participants.
type HistoryRepository interface {
	// Add records the pair. Idempotent: recording an existing pair is a
	// no-op, so concurrent resolution attempts write exactly once.
	Add(ctx context.Context, x, y uuid.UUID) error
	Contains(ctx context.Context, x, y uuid.UUID) (bool, error)
}
