package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FairnessRepository implements participant.FairnessRepository.
type FairnessRepository struct {
	pool *pgxpool.Pool
}

func NewFairnessRepository(pool *pgxpool.Pool) *FairnessRepository {
	return &FairnessRepository{pool: pool}
}

func (r *FairnessRepository) Boost(ctx context.Context, id uuid.UUID) (float64, error) {
	var boost float64
	err := r.pool.QueryRow(ctx, `
		SELECT boost FROM fairness_boosts WHERE participant_id=$1
	`, id).Scan(&boost)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return boost, err
}

func (r *FairnessRepository) AddBoost(ctx context.Context, id uuid.UUID, delta, cap float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fairness_boosts (participant_id, boost) VALUES ($1, LEAST($2, $3))
		ON CONFLICT (participant_id) DO UPDATE
		SET boost = LEAST($3, fairness_boosts.boost + $2)
	`, id, delta, cap)
	return err
}

func (r *FairnessRepository) ResetBoost(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM fairness_boosts WHERE participant_id=$1`, id)
	return err
}
