package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/coachly/guardrail/pkg/audit"
	"github.com/coachly/guardrail/pkg/contextkeys"
	"github.com/coachly/guardrail/pkg/features"
	"github.com/coachly/guardrail/pkg/httputil"
	"github.com/coachly/guardrail/pkg/principal"
)

// upsertFeature handles PUT /v1/admin/features/{key}
func (s *Server) upsertFeature(w http.ResponseWriter, r *http.Request) {
	if s.featureAdm == nil {
		httputil.WriteNotFoundError(w, "feature definitions are file-managed")
		return
	}
	key, ok := httputil.ParsePathStringOrError(w, r, "key")
	if !ok {
		return
	}
	var req FeatureUpsertRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.RequiredTier.Valid() {
		httputil.WriteBadRequest(w, "unknown required_tier: "+string(req.RequiredTier))
		return
	}

	def := features.Definition{Key: key, RequiredTier: req.RequiredTier, Description: req.Description}
	if err := s.featureAdm.Upsert(r.Context(), def); err != nil {
		s.logger.WithError(err).WithField("feature_key", key).Error("feature upsert failed")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, def)
}

// changeRole handles PUT /v1/admin/principals/{id}/role
func (s *Server) changeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathUUID(w, r)
	if !ok {
		return
	}
	var req RoleChangeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, "unknown role: "+string(req.Role))
		return
	}

	if err := s.principals.SetRole(r.Context(), id, req.Role); err != nil {
		s.writeStoreError(w, err, "role change failed")
		return
	}
	s.recordChange(r, audit.ActionRoleChange, id, map[string]interface{}{"role": string(req.Role)})
	httputil.WriteSuccess(w, map[string]string{"id": id.String(), "role": string(req.Role)})
}

// changeTier handles PUT /v1/admin/principals/{id}/tier
func (s *Server) changeTier(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathUUID(w, r)
	if !ok {
		return
	}
	var req TierChangeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Tier.Valid() {
		httputil.WriteBadRequest(w, "unknown tier: "+string(req.Tier))
		return
	}

	if err := s.principals.SetTier(r.Context(), id, req.Tier); err != nil {
		s.writeStoreError(w, err, "tier change failed")
		return
	}
	s.recordChange(r, audit.ActionTierChange, id, map[string]interface{}{"subscription_tier": string(req.Tier)})
	httputil.WriteSuccess(w, map[string]string{"id": id.String(), "subscription_tier": string(req.Tier)})
}

// deactivatePrincipal handles DELETE /v1/admin/principals/{id}
func (s *Server) deactivatePrincipal(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathUUID(w, r)
	if !ok {
		return
	}
	if err := s.principals.Deactivate(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "deactivation failed")
		return
	}
	s.recordChange(r, audit.ActionDeactivate, id, map[string]interface{}{"is_active": false})
	httputil.WriteSuccess(w, map[string]string{"id": id.String(), "status": "deactivated"})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, principal.ErrPrincipalNotFound) {
		httputil.WriteNotFoundError(w, "principal not found")
		return
	}
	s.logger.WithError(err).Error(msg)
	httputil.WriteInternalError(w, err)
}

// recordChange writes a best-effort audit entry attributing the change to the
// authenticated admin, when one is present.
func (s *Server) recordChange(r *http.Request, action string, target uuid.UUID, newData map[string]interface{}) {
	entry := &audit.Entry{
		Action:       action,
		ResourceType: "principal",
		ResourceID:   target.String(),
		NewData:      newData,
	}
	if actor := contextkeys.Principal(r.Context()); actor != nil {
		entry.ActorID = actor.ID
		entry.ActingTenantID = actor.TenantID
	}
	_ = s.recorder.Record(r.Context(), entry)
}

func parsePathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return httputil.ParsePathUUIDOrError(w, r, "id")
}
