package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all worker metrics
type Metrics struct {
	// Task related metrics
	TasksProcessed *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	TasksUnknown   prometheus.Counter

	// Mail metrics
	MailDeliveries *prometheus.CounterVec

	// Error tracking
	ErrorsCaptured *prometheus.CounterVec
}

// New creates the worker metrics and registers them with reg. A nil reg
// leaves them unregistered.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TasksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_processed_total",
			Help:      "Total number of tasks run, by task name and status",
		}, []string{"task", "status"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time spent running a task",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"task"}),
		TasksUnknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_unknown_total",
			Help:      "Total number of dropped tasks with no registered handler or a malformed envelope",
		}),
		MailDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_deliveries_total",
			Help:      "Total number of mail delivery attempts, by template and status",
		}, []string{"template", "status"}),
		ErrorsCaptured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_captured_total",
			Help:      "Total number of errors reported to the error tracker, by kind",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TasksProcessed,
			m.TaskDuration,
			m.TasksUnknown,
			m.MailDeliveries,
			m.ErrorsCaptured,
		)
	}
	return m
}
