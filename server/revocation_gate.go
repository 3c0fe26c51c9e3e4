package server

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// RevocationChecker answers whether a bearer token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RevocationGate rejects requests that carry a revoked bearer token. It does
// not validate tokens; downstream handlers still decode them. The gate is
// immutable after construction.
type RevocationGate struct {
	publicPaths map[string]struct{}
	checker     RevocationChecker
	decisions   *prometheus.CounterVec
}

type GateOption func(*RevocationGate)

// WithPublicPaths replaces the default set of paths that bypass the gate.
func WithPublicPaths(paths ...string) GateOption {
	return func(g *RevocationGate) {
		g.publicPaths = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			g.publicPaths[p] = struct{}{}
		}
	}
}

func WithDecisionCounter(counter *prometheus.CounterVec) GateOption {
	return func(g *RevocationGate) {
		g.decisions = counter
	}
}

func NewRevocationGate(checker RevocationChecker, options ...GateOption) (*RevocationGate, error) {
	if checker == nil {
		return nil, errors.New("[NewRevocationGate] revocation checker is required")
	}
	g := &RevocationGate{checker: checker}
	WithPublicPaths(DefaultPublicPaths...)(g)
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

func (g *RevocationGate) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.publicPaths[r.URL.Path]; ok {
			g.record(OutcomePublic)
			next(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			g.record(OutcomeNoToken)
			next(w, r)
			return
		}

		revoked, err := g.checker.IsRevoked(r.Context(), token)
		if err != nil {
			g.record(OutcomeError)
			log.Err(err).Str("path", r.URL.Path).Msg("revocation check failed")
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if revoked {
			g.record(OutcomeRevoked)
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSONError(w, "Token has been revoked", http.StatusUnauthorized)
			return
		}

		g.record(OutcomeAllowed)
		next(w, r)
	}
}

func (g *RevocationGate) record(outcome string) {
	if g.decisions != nil {
		g.decisions.WithLabelValues(outcome).Inc()
	}
}
