package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vibecheck"

// Registry owns every collector the process exports. Each instance has its own
// prometheus.Registry so tests can build several without duplicate registration.
type Registry struct {
	reg *prometheus.Registry

	interactions  *prometheus.CounterVec
	matches       *prometheus.CounterVec
	chatRequests  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		reg: reg,
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Recorded interactions by action and outcome.",
		}, []string{"action", "outcome"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_formed_total",
			Help:      "Match formation calls by source and whether a row was inserted.",
		}, []string{"source", "created"}),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat request transitions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		r.interactions,
		r.matches,
		r.chatRequests,
		r.notifications,
		r.httpRequests,
		r.httpDuration,
	)

	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) InteractionRecorded(action, outcome string) {
	if r == nil {
		return
	}
	r.interactions.WithLabelValues(action, outcome).Inc()
}

func (r *Registry) MatchFormed(source string, created bool) {
	if r == nil {
		return
	}
	r.matches.WithLabelValues(source, strconv.FormatBool(created)).Inc()
}

func (r *Registry) ChatRequest(operation, outcome string) {
	if r == nil {
		return
	}
	r.chatRequests.WithLabelValues(operation, outcome).Inc()
}

func (r *Registry) NotificationDelivered(sink, outcome string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(sink, outcome).Inc()
}

func (r *Registry) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
