package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicateEnqueue is returned when a participant who already holds a
// queue entry or an open pairing tries to enqueue again.
var ErrDuplicateEnqueue = errors.New("participant already enqueued or paired")

// Repository owns the waiting pool. Implementations must be safe for
// concurrent use; the raw collection is never exposed.
type Repository interface {
	// Insert adds an entry, assigning its sequence number. Returns
	// ErrDuplicateEnqueue if the participant already has an entry.
	Insert(ctx context.Context, e *Entry) error

	// Remove deletes the participant's entry if present and reports
	// whether one existed.
	Remove(ctx context.Context, participantID uuid.UUID) (bool, error)

	Get(ctx context.Context, participantID uuid.UUID) (*Entry, error)

	// List returns a copy of all entries in no particular order.
	List(ctx context.Context) ([]*Entry, error)
}
