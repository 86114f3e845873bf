package tenancy

import (
	"time"

	"github.com/google/uuid"
)

// Status represents tenant lifecycle status
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
)

// Well-known tenant slugs. Configurable via pkg/config; these are the
// defaults the bootstrap coordinator provisions.
const (
	SuperAdminSlug = "super-admin"
	DefaultSlug    = "default"
)

// Tenant is an isolation boundary
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
