package testhelpers

import (
	"context"
	"database/sql"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Transactor runs fn without a real transaction. Commits counts calls that
// returned nil and Rollbacks counts the rest.
type Transactor struct {
	Commits   int
	Rollbacks int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if err := fn(ctx, nil); err != nil {
		t.Rollbacks++
		return err
	}
	t.Commits++
	return nil
}

// SetupTestRedis starts an in-memory Redis for the duration of the test.
func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}
