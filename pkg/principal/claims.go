package principal

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"

	"github.com/coachly/guardrail/pkg/authz"
)

// Token is the verified-token surface the resolver reads: the subject and
// the custom claims payload.
type Token interface {
	Subject() string
	Claims(v interface{}) error
}

// TokenVerifier verifies a raw ID token. The indirection over go-oidc keeps
// tests off the network and lets them hand the resolver synthetic tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (Token, error)
}

// oidcVerifier adapts *oidc.IDTokenVerifier to TokenVerifier.
type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (o oidcVerifier) Verify(ctx context.Context, rawIDToken string) (Token, error) {
	token, err := o.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	return oidcToken{token: token}, nil
}

type oidcToken struct {
	token *oidc.IDToken
}

func (o oidcToken) Subject() string { return o.token.Subject }

func (o oidcToken) Claims(v interface{}) error { return o.token.Claims(v) }

// guardrailClaims are the custom claims the identity issuer embeds once a
// principal has been bootstrapped. Tokens minted before bootstrap carry none
// of them.
type guardrailClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Tier     string `json:"subscription_tier"`
	IsActive *bool  `json:"is_active"`
	Email    string `json:"email"`
}

// ClaimsResolver builds Principal snapshots from signed ID-token claims,
// never touching the tables the evaluator protects. Tokens issued during the
// bootstrap window (no role claim yet) fall back to the inner resolver when
// one is configured, otherwise resolve to ErrPrincipalNotFound.
type ClaimsResolver struct {
	verifier TokenVerifier
	fallback Resolver
}

// NewClaimsResolver creates a claims-based resolver. fallback may be nil.
func NewClaimsResolver(verifier TokenVerifier, fallback Resolver) *ClaimsResolver {
	return &ClaimsResolver{verifier: verifier, fallback: fallback}
}

// NewOIDCResolver discovers the issuer and builds a ClaimsResolver over its
// ID-token verifier.
func NewOIDCResolver(ctx context.Context, issuerURL, clientID string, fallback Resolver) (*ClaimsResolver, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC issuer %s: %w", issuerURL, err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return NewClaimsResolver(oidcVerifier{verifier: verifier}, fallback), nil
}

// Resolve verifies the token and builds a snapshot from its claims.
func (r *ClaimsResolver) Resolve(ctx context.Context, rawIDToken string) (*authz.Principal, error) {
	token, err := r.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	id, err := uuid.Parse(token.Subject())
	if err != nil {
		return nil, fmt.Errorf("token subject is not a valid identity id: %w", err)
	}

	var claims guardrailClaims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	if claims.Role == "" {
		// Pre-bootstrap token: no role claim assigned yet.
		if r.fallback != nil {
			return r.fallback.Resolve(ctx, id.String())
		}
		return nil, ErrPrincipalNotFound
	}

	role, err := authz.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("token carries invalid role claim: %w", err)
	}
	tier, err := authz.ParseTier(claims.Tier)
	if err != nil {
		return nil, fmt.Errorf("token carries invalid tier claim: %w", err)
	}

	active := claims.IsActive == nil || *claims.IsActive
	if !active {
		return nil, ErrPrincipalInactive
	}

	p := &authz.Principal{
		ID:       id,
		Role:     role,
		Tier:     tier,
		IsActive: true,
		Email:    claims.Email,
	}
	if claims.TenantID != "" {
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return nil, fmt.Errorf("token carries invalid tenant claim: %w", err)
		}
		p.TenantID = &tenantID
	}
	return p, nil
}
