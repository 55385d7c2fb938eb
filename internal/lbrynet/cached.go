package lbrynet

import (
	"context"
	"log"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/observability"
)

// ClaimCache stores resolved claims.
type ClaimCache interface {
	GetClaim(ctx context.Context, claimID string) (*model.Claim, bool, error)
	SetClaim(ctx context.Context, claim *model.Claim) error
}

// CachedResolver serves claims from a cache and falls back to the daemon.
// Cache failures are logged and never fail a lookup.
type CachedResolver struct {
	next  Resolver
	cache ClaimCache
}

func NewCachedResolver(next Resolver, cache ClaimCache) *CachedResolver {
	return &CachedResolver{next: next, cache: cache}
}

func (r *CachedResolver) ResolveClaim(ctx context.Context, claimID string) (*model.Claim, error) {
	claim, ok, err := r.cache.GetClaim(ctx, claimID)
	if err != nil {
		log.Printf("[Lbrynet] Cache read failed: claim_id=%s err=%v", claimID, err)
	} else if ok {
		observability.ResolverCalls.WithLabelValues("cache").Inc()
		return claim, nil
	}

	claim, err = r.next.ResolveClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetClaim(ctx, claim); err != nil {
		log.Printf("[Lbrynet] Cache write failed: claim_id=%s err=%v", claimID, err)
	}
	return claim, nil
}
