package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/coachly/guardrail/pkg/audit"
	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/bootstrap"
	"github.com/coachly/guardrail/pkg/features"
	"github.com/coachly/guardrail/pkg/httputil"
	"github.com/coachly/guardrail/pkg/middleware"
	"github.com/coachly/guardrail/pkg/observability"
)

// PrincipalDirectory is the slice of the principal store the API needs.
type PrincipalDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*authz.Principal, error)
	SetRole(ctx context.Context, id uuid.UUID, role authz.Role) error
	SetTier(ctx context.Context, id uuid.UUID, tier authz.Tier) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// FeatureAdmin writes feature definitions. Satisfied by features.StoreRegistry;
// nil when the registry is file-backed, which disables the endpoint.
type FeatureAdmin interface {
	Upsert(ctx context.Context, def features.Definition) error
}

// Server represents our API server
type Server struct {
	router      *mux.Router
	evaluator   *authz.Evaluator
	coordinator *bootstrap.Coordinator
	principals  PrincipalDirectory
	featureAdm  FeatureAdmin
	recorder    audit.Logger
	health      *observability.HealthChecker
	metrics     *observability.Metrics
	logger      *observability.Logger
	authn       *middleware.Authenticator
	authorize   *middleware.Authorizer
}

// NewServer creates a new API server. featureAdm may be nil when feature
// definitions come from a file; authn may be nil to leave the admin surface
// unauthenticated (tests only).
func NewServer(
	evaluator *authz.Evaluator,
	coordinator *bootstrap.Coordinator,
	principals PrincipalDirectory,
	featureAdm FeatureAdmin,
	recorder audit.Logger,
	health *observability.HealthChecker,
	metrics *observability.Metrics,
	logger *observability.Logger,
	authn *middleware.Authenticator,
) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		evaluator:   evaluator,
		coordinator: coordinator,
		principals:  principals,
		featureAdm:  featureAdm,
		recorder:    recorder,
		health:      health,
		metrics:     metrics,
		logger:      logger,
		authn:       authn,
		authorize:   middleware.NewAuthorizer(evaluator),
	}
	if s.recorder == nil {
		s.recorder = audit.NopLogger{}
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Decision and bootstrap routes
	s.router.HandleFunc("/v1/decisions", s.evaluateDecision).Methods("POST")
	s.router.HandleFunc("/v1/bootstrap", s.triggerBootstrap).Methods("POST")
	s.router.HandleFunc("/v1/repair/orphans", s.repairOrphans).Methods("POST")

	// Admin routes, super admin only
	admin := s.router.PathPrefix("/v1/admin").Subrouter()
	admin.HandleFunc("/features/{key}", s.upsertFeature).Methods("PUT")
	admin.HandleFunc("/principals/{id}/role", s.changeRole).Methods("PUT")
	admin.HandleFunc("/principals/{id}/tier", s.changeTier).Methods("PUT")
	admin.HandleFunc("/principals/{id}", s.deactivatePrincipal).Methods("DELETE")
	if s.authn != nil {
		admin.Use(s.authn.RequirePrincipal)
		admin.Use(s.authorize.RequireRole(authz.RoleSuperAdmin, "admin"))
	}

	// Operational routes
	if s.health != nil {
		s.router.HandleFunc("/healthz", s.health.Liveness).Methods("GET")
		s.router.HandleFunc("/readyz", s.health.Readiness).Methods("GET")
	}
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the router wrapped in the shared middleware chain.
func (s *Server) Handler() http.Handler {
	return httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
	)(s.router)
}
