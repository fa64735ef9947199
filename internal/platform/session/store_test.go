package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"codeprep/internal/domain/model"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestAppendAndHistory(t *testing.T) {
	_, rdb := setupTestRedis(t)
	s := NewStore(rdb, time.Hour, 10)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "iv1",
		model.Turn{Role: model.TurnCandidate, Content: "Hi"},
		model.Turn{Role: model.TurnInterviewer, Content: "Tell me about yourself."},
	))

	turns, err := s.History(ctx, "iv1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "Hi", turns[0].Content)
	assert.Equal(t, model.TurnInterviewer, turns[1].Role)
}

func TestHistoryIsTrimmedToMostRecent(t *testing.T) {
	_, rdb := setupTestRedis(t)
	s := NewStore(rdb, time.Hour, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, "iv1", model.Turn{Role: model.TurnCandidate, Content: fmt.Sprint(i)}))
	}

	turns, err := s.History(ctx, "iv1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "2", turns[0].Content)
	assert.Equal(t, "4", turns[2].Content)
}

func TestSessionsAreIsolatedAndExpire(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	s := NewStore(rdb, time.Minute, 10)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", model.Turn{Role: model.TurnCandidate, Content: "for a"}))
	require.NoError(t, s.Append(ctx, "b", model.Turn{Role: model.TurnCandidate, Content: "for b"}))

	turns, err := s.History(ctx, "a")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "for a", turns[0].Content)

	mr.FastForward(2 * time.Minute)

	turns, err = s.History(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestClear(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	s := NewStore(rdb, time.Hour, 10)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "iv1", model.Turn{Role: model.TurnCandidate, Content: "x"}))
	require.NoError(t, s.Clear(ctx, "iv1"))
	assert.False(t, mr.Exists(keyPrefix+"iv1"))
}
