package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/coachly/guardrail/pkg/contextkeys"
	"github.com/coachly/guardrail/pkg/httputil"
	"github.com/coachly/guardrail/pkg/observability"
	"github.com/coachly/guardrail/pkg/principal"
)

// Authenticator resolves request credentials into principal snapshots.
type Authenticator struct {
	resolver principal.Resolver
	logger   *observability.Logger
}

// NewAuthenticator creates an authenticator backed by the given resolver.
func NewAuthenticator(resolver principal.Resolver, logger *observability.Logger) *Authenticator {
	return &Authenticator{resolver: resolver, logger: logger}
}

// RequirePrincipal extracts the bearer credential, resolves it, and stores
// the principal in the request context. Unresolvable or inactive principals
// get 401; resolver failures get 503 so callers can retry.
func (a *Authenticator) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := extractBearer(r)
		if credential == "" {
			httputil.WriteUnauthorized(w, "missing bearer credential")
			return
		}

		p, err := a.resolver.Resolve(r.Context(), credential)
		if err != nil {
			switch {
			case errors.Is(err, principal.ErrPrincipalNotFound):
				httputil.WriteUnauthorized(w, "unknown principal")
			case errors.Is(err, principal.ErrPrincipalInactive):
				httputil.WriteUnauthorized(w, "principal is deactivated")
			default:
				a.logger.WithError(err).Error("principal resolution failed")
				httputil.WriteServiceUnavailable(w, "principal resolution unavailable")
			}
			return
		}

		ctx := contextkeys.WithPrincipal(r.Context(), p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
