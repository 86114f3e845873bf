// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/coachly/guardrail/pkg/authz"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PrincipalKey contains *authz.Principal
	// Set by: middleware.RequirePrincipal (pkg/middleware/principal.go)
	// Required by: all protected endpoints, authorization middleware
	PrincipalKey Key = "principal"

	// RequestIDKey contains request ID string (UUID)
	// Set by: HTTP middleware
	// Used by: logger, audit trail, tracing
	RequestIDKey Key = "request_id"
)

// WithPrincipal adds the resolved principal to the context
func WithPrincipal(ctx context.Context, p *authz.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// Principal retrieves the resolved principal, or nil when unauthenticated
func Principal(ctx context.Context) *authz.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*authz.Principal); ok {
		return p
	}
	return nil
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID, or empty string
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
