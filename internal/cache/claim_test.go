package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbryio/comment-server/internal/model"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisClaimCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewClaimCache(client, ttl), mr
}

func TestClaimCache_RoundTripAndExpiry(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	_, ok, err := c.GetClaim(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	claim := &model.Claim{ClaimID: "abc", Name: "@chan", Value: model.ClaimValue{PublicKey: "01"}}
	require.NoError(t, c.SetClaim(ctx, claim))
	assert.Equal(t, 30*time.Second, mr.TTL("claim:abc"))

	got, ok, err := c.GetClaim(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, claim, got)

	mr.FastForward(31 * time.Second)
	_, ok, err = c.GetClaim(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaimCache_CorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t, 0)
	require.NoError(t, mr.Set("claim:abc", "{not json"))

	_, ok, err := c.GetClaim(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("claim:abc"))
}

func TestClaimCache_Unavailable(t *testing.T) {
	c, mr := newTestCache(t, 0)
	mr.Close()

	_, _, err := c.GetClaim(context.Background(), "abc")
	assert.Error(t, err)
}
