package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/tenancy"
)

// ErrIdentitySourceMissing means the identity being bootstrapped does not
// exist at all in the identity source, as opposed to "not yet confirmed".
// This is a hard error: creating a principal for it would dangle.
var ErrIdentitySourceMissing = errors.New("identity does not exist in identity source")

// Identity is an account in the external identity system
type Identity struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// Confirmed reports whether the identity has confirmed its account.
func (i *Identity) Confirmed() bool {
	return i.ConfirmedAt != nil
}

// IdentitySource is the external identity system the coordinator consults.
// It is a side channel: nothing here is policy-gated.
type IdentitySource interface {
	// Lookup returns the identity or ErrIdentitySourceMissing.
	Lookup(ctx context.Context, id uuid.UUID) (*Identity, error)

	// CountOtherConfirmed returns the number of confirmed identities other
	// than the given one, at this moment. Deliberately unsynchronized with
	// principal creation; see the package doc on the first-user race.
	CountOtherConfirmed(ctx context.Context, exclude uuid.UUID) (int, error)

	// ListOrphaned returns confirmed identities that have no principal.
	ListOrphaned(ctx context.Context) ([]Identity, error)
}

// PrincipalStore is the subset of pkg/principal.Store the coordinator needs
type PrincipalStore interface {
	Get(ctx context.Context, id uuid.UUID) (*authz.Principal, error)
	CreateIfAbsent(ctx context.Context, p *authz.Principal) (*authz.Principal, bool, error)
}

// TenantStore is the subset of pkg/tenancy.Store the coordinator needs
type TenantStore interface {
	Ensure(ctx context.Context, slug, name string, status tenancy.Status) (*tenancy.Tenant, error)
}

// Result is the outcome of one bootstrap invocation
type Result struct {
	Role         authz.Role `json:"role"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	IsSuperAdmin bool       `json:"is_super_admin"`
	Created      bool       `json:"created"` // false when the principal already existed
}

// RepairResult is the outcome of repairing one orphaned identity
type RepairResult struct {
	IdentityID uuid.UUID `json:"identity_id"`
	Created    bool      `json:"created"`
	Err        error     `json:"error,omitempty"`
}
