package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

type Collector struct {
	registry          *prometheus.Registry
	movementsAdded    *prometheus.CounterVec
	movementConflicts prometheus.Counter
	loginAttempts     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

func NewCollector(registry *prometheus.Registry) *Collector {
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		movementsAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_movements_added_total",
			Help: "Movements committed to customer accounts",
		}, []string{"type"}),
		movementConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_movement_conflicts_total",
			Help: "Add-movement writes rejected by a concurrent account update",
		}),
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (c *Collector) MovementAdded(t domain.MovementType) {
	c.movementsAdded.WithLabelValues(string(t)).Inc()
}

func (c *Collector) MovementConflict() {
	c.movementConflicts.Inc()
}

func (c *Collector) LoginAttempt(outcome string) {
	c.loginAttempts.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
