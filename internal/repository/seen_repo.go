package repository

import (
	"context"
	"time"
)

// SeenRepository defines the interface for the opt-in record dedup window.
type SeenRepository interface {
	// MarkSeen records a fingerprint with a specific expiry time.
	MarkSeen(ctx context.Context, fingerprint string, expiry time.Duration) error
	// IsSeen checks whether a fingerprint was recorded within its expiry.
	IsSeen(ctx context.Context, fingerprint string) (bool, error)
}
