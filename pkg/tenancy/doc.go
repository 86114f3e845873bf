// Package tenancy manages tenants, the isolation boundary of Guardrail.
//
// # Overview
//
// Every principal and every tenant-scoped resource belongs to exactly one
// tenant. Two well-known tenants are provisioned by bootstrap: a singleton
// super-admin tenant and a singleton default tenant shared by ordinary
// principals. Both must exist before principal resolution is valid.
//
// Tenant creation is an atomic upsert keyed on the globally unique slug, so
// two concurrent creators always collapse onto one physical row.
package tenancy
