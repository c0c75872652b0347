// Package metrics exposes the Prometheus implementation of port.MetricsRecorder.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
)

var executionDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600, 14400}

// Metrics holds the Prometheus instruments
type Metrics struct {
	WorkflowActivationsTotal *prometheus.CounterVec
	WorkflowExecutionsTotal  *prometheus.CounterVec
	ExecutionDuration        *prometheus.HistogramVec

	BotMessagesTotal *prometheus.CounterVec
	BotCommandsTotal *prometheus.CounterVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	LongRunningExecutions prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers all instruments on reg.
// reg is also used to serve /metrics when it implements prometheus.Gatherer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WorkflowActivationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "javaflow_workflow_activations_total",
			Help: "Total number of workflow activations.",
		}, []string{"workflow"}),
		WorkflowExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "javaflow_workflow_executions_total",
			Help: "Total number of workflow execution status changes.",
		}, []string{"workflow", "status"}),
		ExecutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "javaflow_workflow_execution_duration_seconds",
			Help:    "Duration of finished workflow executions in seconds.",
			Buckets: executionDurationBuckets,
		}, []string{"workflow"}),

		BotMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "javaflow_bot_messages_total",
			Help: "Total number of bot messages by direction.",
		}, []string{"bot_type", "direction"}),
		BotCommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "javaflow_bot_commands_total",
			Help: "Total number of bot commands handled.",
		}, []string{"bot_type", "command"}),

		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "javaflow_cache_hits_total",
			Help: "Total number of cache hits.",
		}, []string{"cache"}),
		CacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "javaflow_cache_misses_total",
			Help: "Total number of cache misses.",
		}, []string{"cache"}),

		LongRunningExecutions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "javaflow_long_running_executions",
			Help: "RUNNING executions older than the configured threshold at the last sweep.",
		}),
	}

	reg.MustRegister(
		m.WorkflowActivationsTotal,
		m.WorkflowExecutionsTotal,
		m.ExecutionDuration,
		m.BotMessagesTotal,
		m.BotCommandsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.LongRunningExecutions,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordWorkflowActivation(workflow string) {
	m.WorkflowActivationsTotal.WithLabelValues(workflow).Inc()
}

func (m *Metrics) RecordExecution(workflow string, status string) {
	m.WorkflowExecutionsTotal.WithLabelValues(workflow, strings.ToLower(status)).Inc()
}

func (m *Metrics) RecordExecutionDuration(workflow string, d time.Duration) {
	m.ExecutionDuration.WithLabelValues(workflow).Observe(d.Seconds())
}

func (m *Metrics) RecordBotMessage(botType string, direction string) {
	m.BotMessagesTotal.WithLabelValues(botType, strings.ToLower(direction)).Inc()
}

func (m *Metrics) RecordBotCommand(botType string, command string) {
	m.BotCommandsTotal.WithLabelValues(botType, command).Inc()
}

func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func (m *Metrics) SetLongRunningExecutions(n int) {
	m.LongRunningExecutions.Set(float64(n))
}

var _ port.MetricsRecorder = (*Metrics)(nil)
