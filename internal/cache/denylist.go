package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "reset:used:"

// TokenDenylist records consumed password-reset token IDs in Redis so each
// token authorizes at most one password change. Entries expire together with
// the token itself, so the set never grows unbounded.
type TokenDenylist struct {
	client *redis.Client
}

// NewTokenDenylist returns a denylist backed by the given client. A nil
// client yields a denylist whose IsDenied always answers false.
func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// Deny marks a token ID as consumed for the given duration.
func (d *TokenDenylist) Deny(ctx context.Context, jti string, ttl time.Duration) error {
	if d.client == nil {
		return fmt.Errorf("redis unavailable")
	}
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+jti, "1", ttl).Err()
}

// IsDenied reports whether a token ID has been consumed. Redis errors are
// swallowed: an unavailable denylist degrades to allowing replay within the
// validity window rather than locking users out of password recovery.
func (d *TokenDenylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	if d.client == nil {
		return false, nil
	}
	err := d.client.Get(ctx, denylistPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, nil
	}
	return true, nil
}
