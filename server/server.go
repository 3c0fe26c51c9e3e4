package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/sso-service/auth"
	"github.com/jrsteele09/sso-service/internal/config"
	"github.com/jrsteele09/sso-service/server/authflowrepo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// LoginProvider drives the upstream authorization code flow.
type LoginProvider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (string, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps holds the collaborators the HTTP layer needs.
type Deps struct {
	Sessions  *auth.SessionService
	Ledger    RevocationChecker
	Provider  LoginProvider     // Optional, login routes answer 503 without it
	AuthState authflowrepo.Repo // Login state cache
	Health    HealthChecker     // Optional
	Registry  *prometheus.Registry
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PRODUCTION")
	mux       *http.ServeMux
	handler   http.HandlerFunc
	routes    []string
	config    config.Config
	sessions  *auth.SessionService
	provider  LoginProvider
	authState authflowrepo.Repo
	health    HealthChecker
	gate      *RevocationGate
	metrics   *Metrics
}

func New(config config.Config, deps Deps) (*Server, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("[Server New] session service is required")
	}
	if deps.AuthState == nil {
		deps.AuthState = authflowrepo.NewInMemoryRepo()
	}

	metrics, err := NewMetrics(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to register metrics: %w", err)
	}
	gate, err := NewRevocationGate(deps.Ledger, WithDecisionCounter(metrics.GateDecisions))
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create revocation gate: %w", err)
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		sessions:  deps.Sessions,
		provider:  deps.Provider,
		authState: deps.AuthState,
		health:    deps.Health,
		gate:      gate,
		metrics:   metrics,
	}

	s.initRoutes()
	s.logRoutes()

	// The gate wraps the mux so unknown paths are screened too.
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.LoggingMiddleware, s.RecoverMiddleware, s.CorsMiddleware, s.gate.Middleware)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Str("method", method).Str("path", path).Msg("route registered")
	}
}
