// Package middleware provides authentication and authorization middleware for
// Guardrail's HTTP surface.
//
// # Overview
//
// Two layers compose on top of pkg/httputil's generic middleware:
//
//   - Authenticator.RequirePrincipal resolves the bearer credential into a
//     Principal snapshot and stores it in the request context. Requests that
//     cannot be resolved get 401.
//   - Authorizer.RequireRole and Authorizer.RequireFeature run the decision
//     pipeline against the resolved principal. Denied requests get 403 with
//     the deny reason in the body.
//
// # Usage
//
//	authn := middleware.NewAuthenticator(resolver, logger)
//	authzMW := middleware.NewAuthorizer(evaluator)
//
//	r.Handle("/v1/admin/tenants",
//		authn.RequirePrincipal(
//			authzMW.RequireRole(authz.RoleTenantAdmin, "tenants.manage")(handler)))
//
// Handlers behind RequirePrincipal read the principal with
// contextkeys.Principal(r.Context()).
package middleware
