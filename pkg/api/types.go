package api

import (
	"github.com/google/uuid"

	"github.com/coachly/guardrail/pkg/authz"
)

// DecisionRequest is the body of POST /v1/decisions. The subject principal
// is referenced by ID and resolved server-side so decisions always use the
// stored snapshot, never caller-supplied attributes.
type DecisionRequest struct {
	PrincipalID     uuid.UUID         `json:"principal_id"`
	Action          string            `json:"action"`
	Resource        authz.ResourceRef `json:"resource"`
	RequiredRole    authz.Role        `json:"required_role"`
	RequiredFeature string            `json:"required_feature,omitempty"`
}

// BootstrapRequest is the body of POST /v1/bootstrap
type BootstrapRequest struct {
	IdentityID uuid.UUID `json:"identity_id"`
}

// BootstrapResponse reports the provisioning outcome
type BootstrapResponse struct {
	PrincipalID  uuid.UUID  `json:"principal_id"`
	Role         authz.Role `json:"role"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	IsSuperAdmin bool       `json:"is_super_admin"`
	Created      bool       `json:"created"`
}

// RepairResponse summarizes an orphan repair run
type RepairResponse struct {
	Scanned  int             `json:"scanned"`
	Repaired int             `json:"repaired"`
	Failed   []RepairFailure `json:"failed,omitempty"`
}

// RepairFailure identifies one identity the repair could not provision
type RepairFailure struct {
	IdentityID uuid.UUID `json:"identity_id"`
	Error      string    `json:"error"`
}

// RoleChangeRequest is the body of PUT /v1/admin/principals/{id}/role
type RoleChangeRequest struct {
	Role authz.Role `json:"role"`
}

// TierChangeRequest is the body of PUT /v1/admin/principals/{id}/tier
type TierChangeRequest struct {
	Tier authz.Tier `json:"tier"`
}

// FeatureUpsertRequest is the body of PUT /v1/admin/features/{key}
type FeatureUpsertRequest struct {
	RequiredTier authz.Tier `json:"required_tier"`
	Description  string     `json:"description,omitempty"`
}
