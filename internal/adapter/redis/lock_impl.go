package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tableLockPrefix = "scraper:lock:"

// releaseScript deletes the lock only while it still holds our token, so a
// lock that expired and was taken by another process is never released.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TableLockRepoImpl provides a concrete implementation for the TableLocker interface using Redis.
// It serializes schema changes per table across processes sharing one store.
type TableLockRepoImpl struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewTableLockRepo creates a new instance of TableLockRepoImpl. ttl bounds how
// long a crashed holder can block others.
func NewTableLockRepo(client *redis.Client, ttl time.Duration) *TableLockRepoImpl {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &TableLockRepoImpl{client: client, ttl: ttl, retry: 50 * time.Millisecond}
}

// Lock polls SET NX until the lock is acquired or ctx is done.
func (r *TableLockRepoImpl) Lock(ctx context.Context, table string) (func(), error) {
	key := tableLockPrefix + table
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock for table %s: %w", table, err)
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err()
			}, nil
		}

		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
