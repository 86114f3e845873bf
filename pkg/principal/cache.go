package principal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/observability"
)

const cacheKeyPrefix = "guardrail:principal:"

// CachedResolver caches Principal snapshots in redis in front of another
// resolver. Keys are a hash of the credential so raw tokens never land in
// redis. Cache failures fall through to the inner resolver; a stale snapshot
// is bounded by the TTL, which should stay short (role and tier changes take
// up to one TTL to propagate).
type CachedResolver struct {
	inner   Resolver
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedResolver creates a redis-backed caching resolver.
func NewCachedResolver(inner Resolver, client *redis.Client, ttl time.Duration, metrics *observability.Metrics) *CachedResolver {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedResolver{inner: inner, client: client, ttl: ttl, metrics: metrics}
}

// Resolve returns a cached snapshot when present, otherwise resolves through
// the inner resolver and caches the result. Only successful resolutions are
// cached; not-found and inactive outcomes always re-resolve so bootstrap
// completion becomes visible immediately.
func (r *CachedResolver) Resolve(ctx context.Context, credential string) (*authz.Principal, error) {
	key := cacheKey(credential)

	if data, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var p authz.Principal
		if err := json.Unmarshal(data, &p); err == nil {
			r.hit()
			return &p, nil
		}
		// Corrupt entry: drop it and fall through.
		r.client.Del(ctx, key)
	}
	r.miss()

	p, err := r.inner.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		// Best effort; a failed SET just means the next call re-resolves.
		r.client.Set(ctx, key, data, r.ttl)
	}
	return p, nil
}

// Invalidate drops the cached snapshot for a credential. Called after role
// or tier mutations that must be visible before the TTL elapses.
func (r *CachedResolver) Invalidate(ctx context.Context, credential string) error {
	return r.client.Del(ctx, cacheKey(credential)).Err()
}

func (r *CachedResolver) hit() {
	if r.metrics != nil {
		r.metrics.ResolverCacheHitsTotal.Inc()
	}
}

func (r *CachedResolver) miss() {
	if r.metrics != nil {
		r.metrics.ResolverCacheMissesTotal.Inc()
	}
}

func cacheKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
