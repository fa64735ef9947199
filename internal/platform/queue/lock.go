package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

type Locker struct {
	rdb    *redis.Client
	prefix string
}

func NewLocker(rdb *redis.Client, prefix string) *Locker {
	return &Locker{rdb: rdb, prefix: prefix}
}

// Acquire takes the lock named key for ttl. It returns the token needed to
// release it, or ok=false when someone else holds it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = l.rdb.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Release reports whether the lock was still ours when deleted.
func (l *Locker) Release(ctx context.Context, key, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{l.prefix + key}, token).Int64()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}
