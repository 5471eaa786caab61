package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "denylist:access:"

// Denylist records access-token ids revoked before their natural expiry.
// Key format: denylist:access:<jti>, expiring when the token itself would.
type Denylist struct {
	client *redis.Client
	now    func() time.Time
}

// NewDenylist creates a Denylist wrapping the given Redis client.
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client, now: time.Now}
}

// Revoke marks tokenID as revoked until the given instant. Tokens that have
// already expired are not recorded.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := revocationTTL(until, d.now())
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denylistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, denylistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

func denylistKey(tokenID string) string {
	return denylistPrefix + tokenID
}

// revocationTTL rounds up to whole seconds so the entry never expires before the token.
func revocationTTL(until, now time.Time) time.Duration {
	ttl := until.Sub(now)
	if ttl <= 0 {
		return 0
	}
	return ttl.Truncate(time.Second) + time.Second
}
