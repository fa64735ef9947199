// Package session keeps interview conversation history in Redis so any API
// instance can continue a session.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codeprep/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "interview_session:"

type Store struct {
	rdb      *redis.Client
	ttl      time.Duration
	maxTurns int64
}

func NewStore(rdb *redis.Client, ttl time.Duration, maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Store{rdb: rdb, ttl: ttl, maxTurns: int64(maxTurns)}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Append adds turns in order, keeps only the most recent maxTurns and
// refreshes the TTL.
func (s *Store) Append(ctx context.Context, sessionID string, turns ...model.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		if t.At.IsZero() {
			t.At = time.Now().UTC()
		}
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("session: marshal turn: %w", err)
		}
		values = append(values, b)
	}

	k := key(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, k, values...)
	pipe.LTrim(ctx, k, -s.maxTurns, -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: append %s: %w", sessionID, err)
	}
	return nil
}

// History returns the retained turns, oldest first. A missing or expired
// session yields an empty slice.
func (s *Store) History(ctx context.Context, sessionID string) ([]model.Turn, error) {
	raw, err := s.rdb.LRange(ctx, key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("session: history %s: %w", sessionID, err)
	}
	turns := make([]model.Turn, 0, len(raw))
	for _, r := range raw {
		var t model.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, key(sessionID)).Err()
}
