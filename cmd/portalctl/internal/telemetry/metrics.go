// Package telemetry exposes Prometheus metrics for identity service calls and
// session transitions.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
	"github.com/terraconstructs/portal/pkg/sdk"
)

const namespace = "portal"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	IdentityCalls    *prometheus.CounterVec
	IdentityDuration *prometheus.HistogramVec
	Transitions      *prometheus.CounterVec
	SessionStatus    *prometheus.GaugeVec
}

// New creates the metrics and registers them along with the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		IdentityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "calls_total",
			Help:      "Identity service calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		IdentityDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "call_duration_seconds",
			Help:      "Identity service call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state changes.",
		}, []string{"from", "to"}),
		SessionStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "status",
			Help:      "1 for the current session status, 0 otherwise.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.IdentityCalls,
		m.IdentityDuration,
		m.Transitions,
		m.SessionStatus,
	)
	m.setStatus(session.StatusResolving)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Track times fn and records it under op.
func (m *Metrics) Track(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	m.IdentityDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.IdentityCalls.WithLabelValues(op, Outcome(err)).Inc()
	return err
}

// ObserveTransition is a session.Listener.
func (m *Metrics) ObserveTransition(prev, next session.Snapshot) {
	m.Transitions.WithLabelValues(prev.Status().String(), next.Status().String()).Inc()
	m.setStatus(next.Status())
}

func (m *Metrics) setStatus(current session.Status) {
	for _, s := range []session.Status{session.StatusResolving, session.StatusAuthenticated, session.StatusAnonymous} {
		v := 0.0
		if s == current {
			v = 1
		}
		m.SessionStatus.WithLabelValues(s.String()).Set(v)
	}
}

// Outcome labels err by its sdk error kind.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, sdk.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, sdk.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, sdk.ErrValidation):
		return "validation"
	case errors.Is(err, sdk.ErrConflict):
		return "conflict"
	case errors.Is(err, sdk.ErrNetwork):
		return "network"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// Instrument wraps svc so every call is recorded.
func (m *Metrics) Instrument(svc session.IdentityService) session.IdentityService {
	return &instrumented{next: svc, metrics: m}
}

type instrumented struct {
	next    session.IdentityService
	metrics *Metrics
}

func (i *instrumented) Validate(ctx context.Context, token string) (id sdk.Identity, err error) {
	err = i.metrics.Track("validate", func() error {
		id, err = i.next.Validate(ctx, token)
		return err
	})
	return id, err
}

func (i *instrumented) Revoke(ctx context.Context, token string) error {
	return i.metrics.Track("revoke", func() error {
		return i.next.Revoke(ctx, token)
	})
}

func (i *instrumented) Login(ctx context.Context, identifier, password string) (res *sdk.AuthResult, err error) {
	err = i.metrics.Track("login", func() error {
		res, err = i.next.Login(ctx, identifier, password)
		return err
	})
	return res, err
}

func (i *instrumented) Register(ctx context.Context, reg sdk.Registration) (res *sdk.AuthResult, err error) {
	err = i.metrics.Track("register", func() error {
		res, err = i.next.Register(ctx, reg)
		return err
	})
	return res, err
}
