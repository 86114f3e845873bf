package middleware

import (
	"net/http"

	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/contextkeys"
	"github.com/coachly/guardrail/pkg/httputil"
)

// Authorizer gates handlers on the decision pipeline. It must run behind
// Authenticator.RequirePrincipal; a missing principal denies outright.
type Authorizer struct {
	evaluator *authz.Evaluator
}

// NewAuthorizer creates an authorizer over the given evaluator.
func NewAuthorizer(evaluator *authz.Evaluator) *Authorizer {
	return &Authorizer{evaluator: evaluator}
}

// RequireRole denies with 403 unless the caller's role satisfies required.
// action labels the decision for metrics and the deny body.
func (a *Authorizer) RequireRole(required authz.Role, action string) func(http.Handler) http.Handler {
	return a.require(authz.CheckRequest{RequiredRole: required, Action: action})
}

// RequireFeature denies with 403 unless the caller's subscription tier
// satisfies the feature's required tier.
func (a *Authorizer) RequireFeature(featureKey, action string) func(http.Handler) http.Handler {
	return a.require(authz.CheckRequest{RequiredRole: authz.RoleUser, RequiredFeature: featureKey, Action: action})
}

func (a *Authorizer) require(template authz.CheckRequest) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := contextkeys.Principal(r.Context())
			if p == nil {
				httputil.WriteUnauthorized(w, "no principal in request context")
				return
			}

			req := template
			req.Principal = p
			// Endpoint guards have no concrete target resource; scope the
			// check to the caller's own tenant so only role and tier apply.
			req.Resource = authz.ResourceRef{Type: "endpoint", ID: r.URL.Path, OwningTenantID: p.TenantID}

			if dec := a.evaluator.Evaluate(r.Context(), req); !dec.Allowed {
				httputil.WriteForbidden(w, string(dec.Reason))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
