package features

import (
	"context"
	"errors"
	"sync"

	"github.com/coachly/guardrail/pkg/authz"
)

// ErrUnknownFeature is returned for feature keys with no definition. The
// gate folds it into a deny; it is exported so registries can agree on it.
var ErrUnknownFeature = errors.New("unknown feature key")

// Definition maps a feature key to the minimum tier required to use it
type Definition struct {
	Key          string     `json:"key"`
	RequiredTier authz.Tier `json:"required_tier"`
	Description  string     `json:"description,omitempty"`
}

// Registry is a read-only lookup of feature definitions
type Registry interface {
	// RequiredTier returns the minimum tier for the key, or ErrUnknownFeature.
	RequiredTier(ctx context.Context, key string) (authz.Tier, error)
}

// StaticRegistry is a fixed in-memory registry
type StaticRegistry struct {
	mu   sync.RWMutex
	defs map[string]authz.Tier
}

// NewStaticRegistry creates a registry from a key→tier map.
func NewStaticRegistry(defs map[string]authz.Tier) *StaticRegistry {
	copied := make(map[string]authz.Tier, len(defs))
	for k, v := range defs {
		copied[k] = v
	}
	return &StaticRegistry{defs: copied}
}

// RequiredTier returns the minimum tier for the key.
func (r *StaticRegistry) RequiredTier(_ context.Context, key string) (authz.Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tier, ok := r.defs[key]
	if !ok {
		return "", ErrUnknownFeature
	}
	return tier, nil
}

// Set adds or replaces a definition. Used by tests and embedded setups.
func (r *StaticRegistry) Set(key string, tier authz.Tier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[key] = tier
}
