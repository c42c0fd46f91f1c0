//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,FairnessRepository
package participant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no participant exists for the given ID.
var ErrNotFound = errors.New("participant not found")

// Repository defines the interface for participant persistence.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Participant, error)
	Upsert(ctx context.Context, p *Participant) error
	List(ctx context.Context) ([]*Participant, error)

	// SetState is called exclusively by the lifecycle authority.
	SetState(ctx context.Context, id uuid.UUID, state State) error
	SetCooldown(ctx context.Context, id uuid.UUID, until time.Time) error
}

// FairnessRepository tracks accumulated boost per participant. Boost is
// bounded above; adding past the cap is a no-op beyond the cap.
type FairnessRepository interface {
	Boost(ctx context.Context, id uuid.UUID) (float64, error)
	AddBoost(ctx context.Context, id uuid.UUID, delta, cap float64) error
	ResetBoost(ctx context.Context, id uuid.UUID) error
}
