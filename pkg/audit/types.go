package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a single append-only audit record. Entries are created once and
// never mutated.
type Entry struct {
	ID             int64                  `json:"id"`
	ActorID        uuid.UUID              `json:"actor_id"`
	ActingTenantID *uuid.UUID             `json:"acting_tenant_id,omitempty"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	OldData        map[string]interface{} `json:"old_data,omitempty"`
	NewData        map[string]interface{} `json:"new_data,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// Well-known audit actions
const (
	ActionBootstrapPromote = "bootstrap.super_admin_promote"
	ActionBootstrapCreate  = "bootstrap.principal_create"
	ActionOrphanRepair     = "bootstrap.orphan_repair"
	ActionRoleChange       = "authz.role_change"
	ActionTierChange       = "billing.tier_change"
	ActionDeactivate       = "authz.principal_deactivate"
	ActionAccessDenied     = "authz.access_denied"
)
