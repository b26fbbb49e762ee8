package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/reset-mailer/internal/model"
	"github.com/jwalitptl/reset-mailer/pkg/messaging"
)

// Client enqueues tasks for a Worker.
type Client struct {
	publisher messaging.Publisher
	now       func() time.Time
}

func NewClient(broker messaging.Broker, channel string) *Client {
	return &Client{
		publisher: messaging.NewChannelPublisher(broker, channel),
		now:       time.Now,
	}
}

// Enqueue publishes a task and returns its ID.
func (c *Client) Enqueue(ctx context.Context, name string, args ...interface{}) (uuid.UUID, error) {
	if args == nil {
		args = []interface{}{}
	}
	task := model.Task{
		ID:         uuid.New(),
		Name:       name,
		Args:       args,
		EnqueuedAt: c.now().UTC(),
	}
	if err := c.publisher.Publish(ctx, task); err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue task %s: %w", name, err)
	}
	return task.ID, nil
}

// ForgotPassword enqueues the forgot_password task.
func (c *Client) ForgotPassword(ctx context.Context, firstName, email, uidb64, token, currentSite string) (uuid.UUID, error) {
	return c.Enqueue(ctx, ForgotPasswordTask, firstName, email, uidb64, token, currentSite)
}
