package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WrapAndMatch(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("task: %w", Unavailable("redis unreachable", cause))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, New(ErrUnavailable, ""))
	assert.NotErrorIs(t, err, New(ErrBadRequest, ""))
	assert.Equal(t, ErrUnavailable, CodeOf(err))
	assert.Equal(t, "task: redis unreachable: connection refused", err.Error())
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrInternal, CodeOf(errors.New("x")))
}
