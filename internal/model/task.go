package model

import (
	"time"

	"github.com/google/uuid"
)

// Task is the envelope the dispatcher moves between producers and workers.
// Args are positional, in the order the task handler declares them.
type Task struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Args       []interface{} `json:"args"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// ForgotPasswordArgs are the arguments of the forgot_password task.
type ForgotPasswordArgs struct {
	FirstName  string `json:"first_name"`
	Email      string `json:"email"`
	UIDB64     string `json:"uidb64"`
	Token      string `json:"token"`
	SiteOrigin string `json:"current_site"`
}
