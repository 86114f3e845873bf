package authz

// InScope reports whether the principal may act on the resource's tenant
// scope. Super admins bypass isolation entirely. Everyone else needs a
// non-nil tenant matching the resource's owning tenant; resources without an
// owning tenant are global and reachable only by super admins.
//
// The check uses only attributes already present on the Principal snapshot.
// It must never issue a lookup of its own, because any lookup gated by this
// same guard would recurse.
func InScope(p *Principal, resource ResourceRef) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleSuperAdmin {
		return true
	}
	if p.TenantID == nil || resource.OwningTenantID == nil {
		return false
	}
	return *p.TenantID == *resource.OwningTenantID
}
