package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spin-match/spin-match/internal/domain/participant"
)

// ParticipantRepository implements participant.Repository.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

const participantColumns = `
	id, display_name, age, gender, lat, lon,
	pref_min_age, pref_max_age, pref_max_distance_km, pref_gender,
	state, last_seen_at, cooldown_until, created_at, updated_at`

func (r *ParticipantRepository) Get(ctx context.Context, id uuid.UUID) (*participant.Participant, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+participantColumns+` FROM participants WHERE id=$1`, id)
	return scanParticipant(row)
}

// Upsert inserts or refreshes the profile attributes. State, cooldown and
// creation time survive a refresh; state writes go through SetState only.
func (r *ParticipantRepository) Upsert(ctx context.Context, p *participant.Participant) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO participants
		(id, display_name, age, gender, lat, lon,
		 pref_min_age, pref_max_age, pref_max_distance_km, pref_gender,
		 state, last_seen_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
		ON CONFLICT (id) DO UPDATE SET
			display_name=EXCLUDED.display_name,
			age=EXCLUDED.age,
			gender=EXCLUDED.gender,
			lat=EXCLUDED.lat,
			lon=EXCLUDED.lon,
			pref_min_age=EXCLUDED.pref_min_age,
			pref_max_age=EXCLUDED.pref_max_age,
			pref_max_distance_km=EXCLUDED.pref_max_distance_km,
			pref_gender=EXCLUDED.pref_gender,
			last_seen_at=EXCLUDED.last_seen_at,
			updated_at=EXCLUDED.updated_at
	`, p.ID, p.DisplayName, p.Age, p.Gender, p.Lat, p.Lon,
		p.Preferences.MinAge, p.Preferences.MaxAge, p.Preferences.MaxDistanceKm, p.Preferences.Gender,
		p.State, p.LastSeenAt.UTC(), now)
	return err
}

func (r *ParticipantRepository) List(ctx context.Context) ([]*participant.Participant, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+participantColumns+` FROM participants`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*participant.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ParticipantRepository) SetState(ctx context.Context, id uuid.UUID, state participant.State) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE participants SET state=$1, updated_at=$2 WHERE id=$3
	`, state, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return participant.ErrNotFound
	}
	return nil
}

func (r *ParticipantRepository) SetCooldown(ctx context.Context, id uuid.UUID, until time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE participants SET cooldown_until=$1, updated_at=$2 WHERE id=$3
	`, until.UTC(), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return participant.ErrNotFound
	}
	return nil
}

func scanParticipant(row pgx.Row) (*participant.Participant, error) {
	var p participant.Participant
	if err := row.Scan(
		&p.ID, &p.DisplayName, &p.Age, &p.Gender, &p.Lat, &p.Lon,
		&p.Preferences.MinAge, &p.Preferences.MaxAge, &p.Preferences.MaxDistanceKm, &p.Preferences.Gender,
		&p.State, &p.LastSeenAt, &p.CooldownUntil, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, participant.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
