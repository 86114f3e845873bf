// Package api implements Guardrail's HTTP API.
//
// # Overview
//
// The server exposes the decision endpoint, the bootstrap trigger, orphan
// repair, and a small admin surface over principals and feature definitions.
//
// # Endpoints
//
// Decision and bootstrap:
//
//	POST /v1/decisions       evaluate one access check
//	POST /v1/bootstrap       provision a principal for a confirmed identity
//	POST /v1/repair/orphans  re-run bootstrap for identities without principals
//
// Admin (super admin only):
//
//	PUT    /v1/admin/features/{key}        upsert a feature definition
//	PUT    /v1/admin/principals/{id}/role  change a principal's role
//	PUT    /v1/admin/principals/{id}/tier  change a principal's tier
//	DELETE /v1/admin/principals/{id}       deactivate a principal
//
// Operational:
//
//	GET /healthz   liveness
//	GET /readyz    readiness (checks postgres and redis)
//	GET /metrics   prometheus metrics
//
// # Authentication
//
// The admin surface sits behind middleware.Authenticator and requires the
// super_admin role. The decision endpoint resolves the subject principal
// from the request body, so callers (internal services) do not authenticate
// as the subject they are checking.
package api
