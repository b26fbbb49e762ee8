package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/reset-mailer/internal/model"
	apperrors "github.com/jwalitptl/reset-mailer/pkg/errors"
	"github.com/jwalitptl/reset-mailer/pkg/logger"
	"github.com/jwalitptl/reset-mailer/pkg/messaging"
	"github.com/jwalitptl/reset-mailer/pkg/metrics"
)

type WorkerConfig struct {
	Channel     string
	Concurrency int
}

// Worker pulls tasks from the broker and runs each one in its own goroutine,
// at most Concurrency at a time. Failed tasks are logged and dropped.
type Worker struct {
	broker   messaging.Broker
	registry *Registry
	config   WorkerConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics

	wg sync.WaitGroup
}

// NewWorker builds a worker. m may be nil.
func NewWorker(broker messaging.Broker, registry *Registry, config WorkerConfig, log *logger.Logger, m *metrics.Metrics) *Worker {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Worker{
		broker:   broker,
		registry: registry,
		config:   config,
		logger:   log.WithComponent("task_worker"),
		metrics:  m,
	}
}

// Start blocks until ctx is done and every running task has returned.
// Running tasks are not cancelled.
func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.broker.Subscribe(ctx, w.config.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.config.Channel, err)
	}

	w.logger.Info("Worker started",
		"channel", w.config.Channel,
		"concurrency", w.config.Concurrency,
		"tasks", w.registry.Names())

	sem := make(chan struct{}, w.config.Concurrency)
	taskCtx := context.WithoutCancel(ctx)

	for payload := range msgs {
		sem <- struct{}{}
		w.wg.Add(1)
		go func(payload []byte) {
			defer func() {
				<-sem
				w.wg.Done()
			}()
			w.process(taskCtx, payload)
		}(payload)
	}

	w.wg.Wait()
	w.logger.Info("Worker stopped")
	return nil
}

func (w *Worker) process(ctx context.Context, payload []byte) {
	var task model.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		w.unknown()
		w.logger.Error(err, "Dropping malformed task")
		return
	}

	handler, ok := w.registry.Lookup(task.Name)
	if !ok {
		w.unknown()
		w.logger.Warn("Dropping task with no handler", "task", task.Name, "task_id", task.ID.String())
		return
	}

	var timer *prometheus.Timer
	if w.metrics != nil {
		timer = prometheus.NewTimer(w.metrics.TaskDuration.WithLabelValues(task.Name))
	}

	err := run(ctx, handler, task.Args)

	if timer != nil {
		timer.ObserveDuration()
	}

	status := "success"
	if err != nil {
		status = "failure"
		w.logger.Error(err, "Task failed", "task", task.Name, "task_id", task.ID.String())
	} else {
		w.logger.Debug("Task done",
			"task", task.Name,
			"task_id", task.ID.String(),
			"queued_for", time.Since(task.EnqueuedAt).String())
	}
	if w.metrics != nil {
		w.metrics.TasksProcessed.WithLabelValues(task.Name, status).Inc()
	}
}

func (w *Worker) unknown() {
	if w.metrics != nil {
		w.metrics.TasksUnknown.Inc()
	}
}

// run calls h and turns a panic into an error.
func run(ctx context.Context, h HandlerFunc, args []interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Internal(fmt.Errorf("task panicked: %v\n%s", r, debug.Stack()))
		}
	}()
	return h(ctx, args)
}
