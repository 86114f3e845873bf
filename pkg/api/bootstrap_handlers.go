package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/coachly/guardrail/pkg/bootstrap"
	"github.com/coachly/guardrail/pkg/httputil"
)

// triggerBootstrap handles POST /v1/bootstrap
func (s *Server) triggerBootstrap(w http.ResponseWriter, r *http.Request) {
	var req BootstrapRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.IdentityID == (uuid.UUID{}) {
		httputil.WriteBadRequest(w, "identity_id is required")
		return
	}

	result, err := s.coordinator.Bootstrap(r.Context(), req.IdentityID, "", "", "")
	if err != nil {
		if errors.Is(err, bootstrap.ErrIdentitySourceMissing) {
			httputil.WriteNotFoundError(w, "identity not found")
			return
		}
		s.logger.WithError(err).
			WithField("identity_id", req.IdentityID.String()).
			Error("bootstrap failed")
		httputil.WriteInternalError(w, err)
		return
	}

	resp := BootstrapResponse{
		PrincipalID:  req.IdentityID,
		Role:         result.Role,
		TenantID:     result.TenantID,
		IsSuperAdmin: result.IsSuperAdmin,
		Created:      result.Created,
	}
	if result.Created {
		httputil.WriteCreated(w, resp)
		return
	}
	httputil.WriteSuccess(w, resp)
}

// repairOrphans handles POST /v1/repair/orphans
func (s *Server) repairOrphans(w http.ResponseWriter, r *http.Request) {
	results, err := s.coordinator.FixOrphans(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("orphan repair failed")
		httputil.WriteInternalError(w, err)
		return
	}

	resp := RepairResponse{Scanned: len(results)}
	for _, res := range results {
		if res.Err != nil {
			resp.Failed = append(resp.Failed, RepairFailure{
				IdentityID: res.IdentityID,
				Error:      res.Err.Error(),
			})
			continue
		}
		if res.Created {
			resp.Repaired++
		}
	}
	httputil.WriteSuccess(w, resp)
}
