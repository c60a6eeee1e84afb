// Package monitoring exposes Prometheus metrics for the shell service.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Registry metrics
	ActivitiesTracked  prometheus.Gauge
	ActivitiesWindowed prometheus.Gauge
	ActivitiesAdded    prometheus.Counter
	ActivitiesRemoved  prometheus.Counter
	SignalsEmitted     *prometheus.CounterVec

	// Launch metrics
	LaunchesStarted prometheus.Counter
	LaunchesFailed  prometheus.Counter

	// Remote control metrics
	ControlCalls  *prometheus.CounterVec
	ControlErrors prometheus.Counter

	// Window event metrics
	WindowEvents *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		ActivitiesTracked: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_activities_tracked",
				Help: "Number of activities currently tracked by the home registry",
			},
		),
		ActivitiesWindowed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_activities_windowed",
				Help: "Number of tracked activities that have a mapped window",
			},
		),
		ActivitiesAdded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_activities_added_total",
				Help: "Total number of activity records added",
			},
		),
		ActivitiesRemoved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_activities_removed_total",
				Help: "Total number of activity records removed",
			},
		),
		SignalsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_signals_emitted_total",
				Help: "Total registry signals emitted by kind",
			},
			[]string{"signal"},
		),

		LaunchesStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_launches_started_total",
				Help: "Total launch notifications received",
			},
		),
		LaunchesFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_launches_failed_total",
				Help: "Total launch failure notifications received",
			},
		),

		ControlCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_control_calls_total",
				Help: "Total remote activity control calls by direction",
			},
			[]string{"active"},
		),
		ControlErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_control_errors_total",
				Help: "Total remote activity control call failures",
			},
		),

		WindowEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_window_events_total",
				Help: "Total window manager events processed by kind",
			},
			[]string{"event"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_ws_connections",
				Help: "Number of active signal-stream subscribers",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
