package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/reset-mailer/pkg/errors"
	"github.com/jwalitptl/reset-mailer/pkg/logger"
	"github.com/jwalitptl/reset-mailer/pkg/messaging"
)

// Tracker receives errors that were handled locally but still need to be
// seen by someone.
type Tracker interface {
	CaptureException(ctx context.Context, err error)
}

// Report is the payload published for each captured error.
type Report struct {
	ID         uuid.UUID `json:"id"`
	Message    string    `json:"message"`
	Kind       string    `json:"kind,omitempty"`
	Source     string    `json:"source,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

type kinded interface {
	Kind() string
}

// KindOf returns the Kind() of the first error in the chain that has one.
func KindOf(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// NewReport describes err.
func NewReport(err error, source string) Report {
	return Report{
		ID:         uuid.New(),
		Message:    err.Error(),
		Kind:       KindOf(err),
		Source:     source,
		CapturedAt: time.Now().UTC(),
	}
}

// BrokerTracker publishes reports for an external collector. If publishing
// fails the report is logged instead, so nothing is lost silently.
type BrokerTracker struct {
	publisher messaging.Publisher
	source    string
	logger    *logger.Logger
}

func NewBrokerTracker(publisher messaging.Publisher, source string, log *logger.Logger) *BrokerTracker {
	return &BrokerTracker{
		publisher: publisher,
		source:    source,
		logger:    log.WithComponent("error_tracker"),
	}
}

func (t *BrokerTracker) CaptureException(ctx context.Context, err error) {
	if err == nil {
		return
	}
	report := NewReport(err, t.source)
	if pubErr := t.publisher.Publish(ctx, report); pubErr != nil {
		t.logger.Error(err, "Captured exception (tracker unavailable)",
			"report_id", report.ID.String(),
			"kind", report.Kind,
			"publish_error", pubErr.Error(),
			"publish_code", int(apperrors.CodeOf(pubErr)))
	}
}

// LogTracker only logs. It is the tracker used when no broker is configured.
type LogTracker struct {
	logger *logger.Logger
}

func NewLogTracker(log *logger.Logger) *LogTracker {
	return &LogTracker{logger: log.WithComponent("error_tracker")}
}

func (t *LogTracker) CaptureException(_ context.Context, err error) {
	if err == nil {
		return
	}
	report := NewReport(err, "")
	t.logger.Error(err, "Captured exception", "report_id", report.ID.String(), "kind", report.Kind)
}
