// Package heartbeat stores participant liveness signals in Redis. Writes
// are plain SETs keyed by participant, so heartbeats never contend with the
// engine's locks.
package heartbeat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "hb:"

// Store records and reads last-seen timestamps.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// NewClient builds a Redis client for the given address.
func NewClient(addr, password string, db int) *redis.Client {
	opts := &redis.Options{Addr: addr}
	if password != "" {
		opts.Password = password
	}
	if db != 0 {
		opts.DB = db
	}
	return redis.NewClient(opts)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Beat records that the participant was seen at ts. The key carries a long
// TTL purely as garbage collection; staleness decisions belong to the
// liveness supervisor.
func (s *Store) Beat(ctx context.Context, id uuid.UUID, ts time.Time) error {
	key := keyPrefix + id.String()
	return s.client.Set(ctx, key, ts.UTC().Format(time.RFC3339Nano), 24*time.Hour).Err()
}

// LastSeen returns the participant's last heartbeat. ok is false when no
// heartbeat has ever been recorded (or it aged out).
func (s *Store) LastSeen(ctx context.Context, id uuid.UUID) (ts time.Time, ok bool, err error) {
	key := keyPrefix + id.String()
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ts, err = time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed heartbeat for %s: %w", id, err)
	}
	return ts, true, nil
}

// LastSeenBatch fetches heartbeats for many participants in one round trip.
// Participants without a heartbeat are absent from the result.
func (s *Store) LastSeenBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]time.Time{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id.String()
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]time.Time, len(ids))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			continue
		}
		out[ids[i]] = ts
	}
	return out, nil
}
