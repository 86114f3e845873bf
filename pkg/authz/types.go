package authz

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the resolved identity a decision is made for. It is a
// snapshot: the resolver fills it in once per request and the evaluator never
// re-reads storage.
type Principal struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"` // nil only during the bootstrap window
	Role      Role       `json:"role"`
	Tier      Tier       `json:"subscription_tier"`
	IsActive  bool       `json:"is_active"`
	Email     string     `json:"email,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ResourceRef identifies the resource an action targets and the tenant scope
// it belongs to. A nil OwningTenantID marks a global resource, which only
// super admins may touch.
type ResourceRef struct {
	Type           string     `json:"resource_type"`
	ID             string     `json:"resource_id"`
	OwningTenantID *uuid.UUID `json:"owning_tenant_id,omitempty"`
}

// DenyReason explains a denied decision
type DenyReason string

const (
	DenyPrincipalInactive       DenyReason = "principal_inactive"
	DenyTenantMismatch          DenyReason = "tenant_mismatch"
	DenyRoleInsufficient        DenyReason = "role_insufficient"
	DenyFeatureTierInsufficient DenyReason = "feature_tier_insufficient"
)

// Decision is the outcome of one evaluation. It is ephemeral and never
// persisted; audit records are written separately.
type Decision struct {
	Allowed   bool       `json:"allowed"`
	Reason    DenyReason `json:"reason,omitempty"`
	CheckedAt time.Time  `json:"checked_at"`
}

// Allow returns an allowed decision.
func Allow() Decision {
	return Decision{Allowed: true, CheckedAt: time.Now().UTC()}
}

// Deny returns a denied decision with the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason, CheckedAt: time.Now().UTC()}
}

// CheckRequest describes one access check.
type CheckRequest struct {
	Principal       *Principal  `json:"principal"`
	Action          string      `json:"action"`
	Resource        ResourceRef `json:"resource"`
	RequiredRole    Role        `json:"required_role"`
	RequiredFeature string      `json:"required_feature,omitempty"` // empty means no feature gate
}
