// Package bootstrap provisions principals and the well-known tenants when
// identities confirm.
//
// # Overview
//
// The first confirmed identity in a deployment's lifetime becomes the super
// admin with its own tenant; every later identity gets a user principal in
// the shared default tenant. The decision runs once per signup, upstream of
// principal resolution becoming valid.
//
// # Two paths, one end state
//
// The primary path runs inline on identity confirmation and swallows its own
// errors; a broken audit table or a slow tenant insert must never block a
// signup. The repair path (FixOrphans, optionally on a cron schedule) is
// idempotent and independently invocable; it converges any identity that the
// primary path missed onto the same end state without duplicating tenants or
// audit entries.
//
// # The first-user race
//
// "Is this the first user" is decided from a point-in-time count of other
// confirmed identities, with no transactional guard. Two identities
// confirming at nearly the same instant can both observe a zero count and
// both take the first-user path. The slug upsert guarantees they share one
// super-admin tenant row, but both principals may end up super_admin. This
// is a known, deliberate property of the count-then-act design. Do not
// "fix" it here with an invented tie-break; any change needs an explicit
// ordering decision first.
package bootstrap
