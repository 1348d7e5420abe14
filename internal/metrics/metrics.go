// Package metrics exposes the Prometheus collectors shared by both binaries.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	TelegramIncoming *prometheus.CounterVec
	TelegramOutgoing *prometheus.CounterVec
	LLMRequests      *prometheus.CounterVec
	LLMLatency       *prometheus.HistogramVec
	TaskRuns         *prometheus.CounterVec
	TaskDuration     *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPLatency      *prometheus.HistogramVec
	AuthEvents       *prometheus.CounterVec
	Errors           *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
// Only the first call's namespace takes effect.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace)
		metricsInstance.MustRegister(prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// New builds an unregistered set of collectors.
func New(namespace string) *Metrics {
	return &Metrics{
		TelegramIncoming: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_incoming_messages_total",
			Help:      "Inbound Telegram messages by handling branch.",
		}, []string{"branch"}),
		TelegramOutgoing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_outgoing_messages_total",
			Help:      "Outbound Telegram messages by outcome.",
		}, []string{"status"}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM completion requests by backend and outcome.",
		}, []string{"backend", "status"}),
		LLMLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency distribution for LLM completions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "status"}),
		TaskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_task_runs_total",
			Help:      "Scheduled task runs by task and outcome.",
		}, []string{"task", "status"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduled_task_duration_seconds",
			Help:      "Duration of scheduled task runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		AuthEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication events by kind and outcome.",
		}, []string{"event", "status"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors grouped by component.",
		}, []string{"component"}),
	}
}

// MustRegister registers every collector with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.TelegramIncoming,
		m.TelegramOutgoing,
		m.LLMRequests,
		m.LLMLatency,
		m.TaskRuns,
		m.TaskDuration,
		m.HTTPRequests,
		m.HTTPLatency,
		m.AuthEvents,
		m.Errors,
	)
}

// Error increments the error counter for component. Safe on a nil receiver.
func (m *Metrics) Error(component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(component).Inc()
}

// Incoming counts an inbound Telegram message for branch.
func (m *Metrics) Incoming(branch string) {
	if m == nil {
		return
	}
	m.TelegramIncoming.WithLabelValues(branch).Inc()
}

// Outgoing counts an outbound Telegram message by status.
func (m *Metrics) Outgoing(status string) {
	if m == nil {
		return
	}
	m.TelegramOutgoing.WithLabelValues(status).Inc()
}

// LLM records one completion call.
func (m *Metrics) LLM(backend, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(backend, status).Inc()
	m.LLMLatency.WithLabelValues(backend, status).Observe(d.Seconds())
}

// Task records one scheduled task run.
func (m *Metrics) Task(task, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.TaskRuns.WithLabelValues(task, status).Inc()
	m.TaskDuration.WithLabelValues(task).Observe(d.Seconds())
}

// HTTP records one served request.
func (m *Metrics) HTTP(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
}

// Auth counts an authentication event.
func (m *Metrics) Auth(event, status string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, status).Inc()
}
