package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spin-match/spin-match/internal/domain/queue"
)

// QueueRepository implements queue.Repository.
type QueueRepository struct {
	pool *pgxpool.Pool
}

func NewQueueRepository(pool *pgxpool.Pool) *QueueRepository {
	return &QueueRepository{pool: pool}
}

func (r *QueueRepository) Insert(ctx context.Context, e *queue.Entry) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO queue_entries (participant_id, enqueued_at, boost)
		VALUES ($1,$2,$3)
		ON CONFLICT (participant_id) DO NOTHING
		RETURNING seq
	`, e.ParticipantID, e.EnqueuedAt.UTC(), e.Boost)
	if err := row.Scan(&e.Seq); err != nil {
		if err == pgx.ErrNoRows {
			return queue.ErrDuplicateEnqueue
		}
		return err
	}
	return nil
}

func (r *QueueRepository) Remove(ctx context.Context, participantID uuid.UUID) (bool, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM queue_entries WHERE participant_id=$1`, participantID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *QueueRepository) Get(ctx context.Context, participantID uuid.UUID) (*queue.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT participant_id, seq, enqueued_at, boost
		FROM queue_entries WHERE participant_id=$1
	`, participantID)
	return scanEntry(row)
}

func (r *QueueRepository) List(ctx context.Context) ([]*queue.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT participant_id, seq, enqueued_at, boost FROM queue_entries
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*queue.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (*queue.Entry, error) {
	var e queue.Entry
	if err := row.Scan(&e.ParticipantID, &e.Seq, &e.EnqueuedAt, &e.Boost); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
