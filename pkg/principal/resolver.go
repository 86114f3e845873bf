package principal

import (
	"context"
	"errors"

	"github.com/coachly/guardrail/pkg/authz"
)

var (
	// ErrPrincipalNotFound means the identity has no principal record yet.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalInactive means the principal exists but was deactivated.
	ErrPrincipalInactive = errors.New("principal inactive")
)

// Resolver turns an authenticated credential into a Principal snapshot. The
// credential is opaque to callers: an identity id for StoreResolver, a raw
// ID token for ClaimsResolver. Implementations must never query a table
// whose own access is gated by the evaluator.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*authz.Principal, error)
}
