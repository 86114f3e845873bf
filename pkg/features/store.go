package features

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/coachly/guardrail/pkg/authz"
)

// cached is one memoized registry lookup. Unknown keys are cached too, so a
// burst of checks against a bad key does not hammer the database.
type cached struct {
	tier  authz.Tier
	known bool
}

// StoreRegistry reads feature definitions from the feature_definitions
// table, fronted by an expirable LRU. Definitions change rarely; a short TTL
// keeps admin edits visible without a restart.
type StoreRegistry struct {
	db    *sql.DB
	cache *expirable.LRU[string, cached]
}

// NewStoreRegistry creates a database-backed registry. cacheSize bounds the
// number of memoized keys; ttl bounds staleness after a definition change.
func NewStoreRegistry(db *sql.DB, cacheSize int, ttl time.Duration) *StoreRegistry {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StoreRegistry{
		db:    db,
		cache: expirable.NewLRU[string, cached](cacheSize, nil, ttl),
	}
}

// RequiredTier returns the minimum tier for the key, or ErrUnknownFeature.
func (r *StoreRegistry) RequiredTier(ctx context.Context, key string) (authz.Tier, error) {
	if entry, ok := r.cache.Get(key); ok {
		if !entry.known {
			return "", ErrUnknownFeature
		}
		return entry.tier, nil
	}

	query := `SELECT required_tier FROM feature_definitions WHERE feature_key = $1`

	var raw string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if err == sql.ErrNoRows {
		r.cache.Add(key, cached{known: false})
		return "", ErrUnknownFeature
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up feature %q: %w", key, err)
	}

	tier, err := authz.ParseTier(raw)
	if err != nil {
		// A malformed row denies rather than allowing; do not cache it so a
		// fix becomes visible immediately.
		return "", fmt.Errorf("feature %q has invalid tier: %w", key, err)
	}

	r.cache.Add(key, cached{tier: tier, known: true})
	return tier, nil
}

// Upsert creates or replaces a feature definition and invalidates the cached
// entry. Admin/tooling path, not used at evaluation time.
func (r *StoreRegistry) Upsert(ctx context.Context, def Definition) error {
	if !def.RequiredTier.Valid() {
		return fmt.Errorf("unknown tier %q for feature %q", def.RequiredTier, def.Key)
	}

	query := `
		INSERT INTO feature_definitions (feature_key, required_tier, description, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (feature_key)
		DO UPDATE SET required_tier = EXCLUDED.required_tier, description = EXCLUDED.description, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, def.Key, def.RequiredTier, def.Description); err != nil {
		return fmt.Errorf("failed to upsert feature %q: %w", def.Key, err)
	}
	r.cache.Remove(def.Key)
	return nil
}
