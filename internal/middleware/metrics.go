package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginFailures counts rejected login attempts. Only the count is
	// recorded, never the credentials.
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_login_failures_total",
		Help: "Total number of failed login attempts",
	})

	// ResetEmails counts password-reset emails by delivery outcome. Delivery
	// failure is invisible to the requesting user, so this counter is the
	// only place it surfaces.
	ResetEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_reset_emails_total",
		Help: "Total number of password reset emails by outcome",
	}, []string{"outcome"})

	// PostMutations counts post create/update/delete operations.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_post_mutations_total",
		Help: "Total number of post mutations by operation",
	}, []string{"operation"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware adapts the Prometheus collector into a Fiber handler.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
