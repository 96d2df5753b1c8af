// Package metrics exposes Prometheus counters for the session lifecycle.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sessionly"

// Metrics holds the session counters. A nil *Metrics is a valid no-op.
type Metrics struct {
	logins    *prometheus.CounterVec
	revoked   *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	denied    *prometheus.CounterVec
	logouts   *prometheus.CounterVec
}

// New registers the counters on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		revoked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_revoked_total",
			Help:      "Sessions deactivated, by reason.",
		}, []string{"reason"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh token rotations by result.",
		}, []string{"result"}),
		denied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_denied_total",
			Help:      "Requests rejected by the session gate, by reason.",
		}, []string{"reason"}),
		logouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logout calls by scope.",
		}, []string{"scope"}),
	}
}

// Login counts a login attempt. result is "success", "invalid_credentials" or "error".
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// Revoked counts n sessions ended for reason ("origin_change", "logout", "logout_all")
func (m *Metrics) Revoked(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.revoked.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Denied(reason string) {
	if m == nil {
		return
	}
	m.denied.WithLabelValues(reason).Inc()
}

func (m *Metrics) Logout(scope string) {
	if m == nil {
		return
	}
	m.logouts.WithLabelValues(scope).Inc()
}

// Handler serves the Prometheus exposition format for g
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
