package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/coachly/guardrail/pkg/audit"
	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/httputil"
	"github.com/coachly/guardrail/pkg/principal"
)

// evaluateDecision handles POST /v1/decisions
func (s *Server) evaluateDecision(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.PrincipalID == (uuid.UUID{}) {
		httputil.WriteBadRequest(w, "principal_id is required")
		return
	}
	if req.Action == "" {
		httputil.WriteBadRequest(w, "action is required")
		return
	}
	if !req.RequiredRole.Valid() {
		httputil.WriteBadRequest(w, "unknown required_role: "+string(req.RequiredRole))
		return
	}

	p, err := s.principals.Get(r.Context(), req.PrincipalID)
	if err != nil {
		if errors.Is(err, principal.ErrPrincipalNotFound) {
			httputil.WriteNotFoundError(w, "principal not found")
			return
		}
		s.logger.WithError(err).Error("principal lookup failed")
		httputil.WriteInternalError(w, err)
		return
	}

	dec := s.evaluator.Evaluate(r.Context(), authz.CheckRequest{
		Principal:       p,
		Action:          req.Action,
		Resource:        req.Resource,
		RequiredRole:    req.RequiredRole,
		RequiredFeature: req.RequiredFeature,
	})

	if !dec.Allowed {
		_ = s.recorder.Record(r.Context(), &audit.Entry{
			ActorID:        p.ID,
			ActingTenantID: p.TenantID,
			Action:         audit.ActionAccessDenied,
			ResourceType:   req.Resource.Type,
			ResourceID:     req.Resource.ID,
			NewData: map[string]interface{}{
				"requested_action": req.Action,
				"reason":           string(dec.Reason),
			},
		})
	}

	httputil.WriteSuccess(w, dec)
}
