package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const seenRecordPrefix = "scraper:seen:"

// SeenRepoImpl provides a concrete implementation for the SeenRepository interface using Redis.
type SeenRepoImpl struct {
	client *redis.Client
}

// NewSeenRepo creates a new instance of SeenRepoImpl.
func NewSeenRepo(client *redis.Client) *SeenRepoImpl {
	return &SeenRepoImpl{client: client}
}

func (r *SeenRepoImpl) key(fingerprint string) string {
	return seenRecordPrefix + fingerprint
}

// MarkSeen records a fingerprint with a specific expiry time.
func (r *SeenRepoImpl) MarkSeen(ctx context.Context, fingerprint string, expiry time.Duration) error {
	// SETEX is atomic and sets the key with an expiry.
	return r.client.SetEx(ctx, r.key(fingerprint), "1", expiry).Err()
}

// IsSeen checks if a fingerprint was recorded within its expiry.
func (r *SeenRepoImpl) IsSeen(ctx context.Context, fingerprint string) (bool, error) {
	// EXISTS returns 1 if the key exists, 0 otherwise.
	val, err := r.client.Exists(ctx, r.key(fingerprint)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}
