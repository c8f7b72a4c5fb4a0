package apperror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("Message does not exist."), ErrNotFound, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("username", "username is required"), ErrValidation, true},
		{"Conflict wraps ErrConflict", Conflict("email", "Email already used"), ErrConflict, true},
		{"Unauthorized wraps ErrUnauthorized", Unauthorized("Incorrect username or password"), ErrUnauthorized, true},
		{"Unavailable wraps ErrUnavailable", Unavailable(context.DeadlineExceeded), ErrUnavailable, true},
		{"Unavailable keeps the cause", Unavailable(context.DeadlineExceeded), context.DeadlineExceeded, true},
		{"NotFound does not match ErrValidation", NotFound("x"), ErrValidation, false},
		{"Conflict does not match ErrNotFound", Conflict("username", "Username already used"), ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, errors.Is(tt.err, tt.target))
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", Conflict("username", "Username already used"), "Username already used"},
		{"wrapped app error", fmt.Errorf("service/user: register: %w", Conflict("email", "Email already used")), "Email already used"},
		{"plain error keeps its text", errors.New("connection refused"), "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email address")
	assert.Equal(t, "email", err.Field)
	assert.Equal(t, ErrValidation, err.Unwrap())
}
