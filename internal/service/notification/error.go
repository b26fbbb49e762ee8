package notification

import "fmt"

// Kind is the stage of a reset email that failed. It is diagnostic only;
// callers handle every kind the same way.
type Kind string

const (
	KindTemplate      Kind = "template"
	KindConfiguration Kind = "configuration"
	KindConnection    Kind = "connection"
	KindSend          Kind = "send"
)

// Sentinels for errors.Is.
var (
	ErrTemplate      = &Error{kind: KindTemplate}
	ErrConfiguration = &Error{kind: KindConfiguration}
	ErrConnection    = &Error{kind: KindConnection}
	ErrSend          = &Error{kind: KindSend}
)

// Error is a failed reset email.
type Error struct {
	kind Kind
	err  error
}

func newError(kind Kind, err error) *Error {
	return &Error{kind: kind, err: err}
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("password reset email: %s failed", e.kind)
	}
	return fmt.Sprintf("password reset email: %s failed: %v", e.kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Kind() string {
	return string(e.kind)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}
