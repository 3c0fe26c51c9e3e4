package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gate decision outcomes
const (
	OutcomePublic  = "public"
	OutcomeNoToken = "no_token"
	OutcomeAllowed = "allowed"
	OutcomeRevoked = "revoked"
	OutcomeError   = "error"
)

type Metrics struct {
	registry      *prometheus.Registry
	GateDecisions *prometheus.CounterVec
	Requests      *prometheus.CounterVec
}

// NewMetrics registers the service collectors on reg, or on a fresh registry
// when reg is nil.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_gate_decisions_total",
			Help: "Revocation gate decisions by outcome.",
		}, []string{"outcome"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	for _, c := range []prometheus.Collector{m.GateDecisions, m.Requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
