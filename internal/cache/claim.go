package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lbryio/comment-server/internal/model"
)

const (
	// ClaimCachePrefix is the key prefix for resolved claims
	ClaimCachePrefix = "claim:"

	// DefaultClaimTTL is how long a resolved claim is trusted
	DefaultClaimTTL = time.Minute
)

// RedisClaimCache keeps resolved claims as JSON strings with a TTL.
type RedisClaimCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClaimCache creates a claim cache backed by Redis.
func NewClaimCache(client *redis.Client, ttl time.Duration) *RedisClaimCache {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &RedisClaimCache{client: client, ttl: ttl}
}

func claimKey(claimID string) string {
	return ClaimCachePrefix + claimID
}

// GetClaim returns (claim, true, nil) on a hit and (nil, false, nil) on a miss.
func (c *RedisClaimCache) GetClaim(ctx context.Context, claimID string) (*model.Claim, bool, error) {
	raw, err := c.client.Get(ctx, claimKey(claimID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get claim: %w", err)
	}

	var claim model.Claim
	if err := json.Unmarshal(raw, &claim); err != nil {
		// drop the unreadable entry and treat it as a miss
		c.client.Del(ctx, claimKey(claimID))
		return nil, false, nil
	}
	return &claim, true, nil
}

// SetClaim stores claim under its own id.
func (c *RedisClaimCache) SetClaim(ctx context.Context, claim *model.Claim) error {
	raw, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	if err := c.client.Set(ctx, claimKey(claim.ClaimID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set claim: %w", err)
	}
	return nil
}
