package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spin-match/spin-match/internal/domain/pairing"
)

const uniqueViolation = "23505"

// PairingRepository implements pairing.Repository. The open_pairing_slots
// table carries the one-open-pairing-per-participant constraint; its rows
// live and die in the same transaction as the pairing row.
type PairingRepository struct {
	pool *pgxpool.Pool
}

func NewPairingRepository(pool *pgxpool.Pool) *PairingRepository {
	return &PairingRepository{pool: pool}
}

const pairingColumns = `
	id, side_a, side_b, status, created_at, vote_deadline,
	vote_a, vote_b, outcome, resolved_at`

func (r *PairingRepository) Create(ctx context.Context, p *pairing.Pairing) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO pairings
		(id, side_a, side_b, status, created_at, vote_deadline, vote_a, vote_b, outcome)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, p.ID, p.SideA, p.SideB, p.Status, p.CreatedAt.UTC(), p.VoteDeadline.UTC(),
		p.VoteA, p.VoteB, p.Outcome); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO open_pairing_slots (participant_id, pairing_id) VALUES ($1,$3), ($2,$3)
	`, p.SideA, p.SideB, p.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return pairing.ErrOpenPairingExists
		}
		return err
	}
	return tx.Commit(ctx)
}

func (r *PairingRepository) Get(ctx context.Context, id uuid.UUID) (*pairing.Pairing, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+pairingColumns+` FROM pairings WHERE id=$1`, id)
	return scanPairing(row)
}

func (r *PairingRepository) Update(ctx context.Context, p *pairing.Pairing) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var resolvedAt *time.Time
	if p.ResolvedAt != nil {
		t := p.ResolvedAt.UTC()
		resolvedAt = &t
	}
	res, err := tx.Exec(ctx, `
		UPDATE pairings
		SET status=$1, vote_a=$2, vote_b=$3, outcome=$4, resolved_at=$5
		WHERE id=$6
	`, p.Status, p.VoteA, p.VoteB, p.Outcome, resolvedAt, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return pairing.ErrStaleInput
	}
	if !p.Open() {
		if _, err := tx.Exec(ctx, `DELETE FROM open_pairing_slots WHERE pairing_id=$1`, p.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PairingRepository) GetOpenByParticipant(ctx context.Context, participantID uuid.UUID) (*pairing.Pairing, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+pairingColumns+`
		FROM pairings p
		JOIN open_pairing_slots s ON s.pairing_id = p.id
		WHERE s.participant_id=$1
	`, participantID)
	return scanPairing(row)
}

func (r *PairingRepository) GetLatestByParticipant(ctx context.Context, participantID uuid.UUID) (*pairing.Pairing, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+pairingColumns+`
		FROM pairings WHERE side_a=$1 OR side_b=$1
		ORDER BY created_at DESC LIMIT 1
	`, participantID)
	return scanPairing(row)
}

func (r *PairingRepository) ListOpenExpired(ctx context.Context, now time.Time) ([]*pairing.Pairing, error) {
	return r.list(ctx, `
		SELECT`+pairingColumns+`
		FROM pairings WHERE status <> 'resolved' AND vote_deadline <= $1
	`, now.UTC())
}

func (r *PairingRepository) ListOpen(ctx context.Context) ([]*pairing.Pairing, error) {
	return r.list(ctx, `SELECT`+pairingColumns+` FROM pairings WHERE status <> 'resolved'`)
}

func (r *PairingRepository) list(ctx context.Context, sql string, args ...any) ([]*pairing.Pairing, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*pairing.Pairing
	for rows.Next() {
		p, err := scanPairing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPairing(row pgx.Row) (*pairing.Pairing, error) {
	var p pairing.Pairing
	if err := row.Scan(
		&p.ID, &p.SideA, &p.SideB, &p.Status, &p.CreatedAt, &p.VoteDeadline,
		&p.VoteA, &p.VoteB, &p.Outcome, &p.ResolvedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// HistoryRepository implements pairing.HistoryRepository on the append-only
// pair_history table.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Add(ctx context.Context, x, y uuid.UUID) error {
	a, b := pairing.Canonicalize(x, y)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pair_history (side_a, side_b) VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, a, b)
	return err
}

func (r *HistoryRepository) Contains(ctx context.Context, x, y uuid.UUID) (bool, error) {
	a, b := pairing.Canonicalize(x, y)
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pair_history WHERE side_a=$1 AND side_b=$2)
	`, a, b).Scan(&exists)
	return exists, err
}
