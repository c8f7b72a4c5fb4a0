// Package service holds the operations behind the gateway: account
// registration and credential checks, user listing, avatars, message
// persistence, conversations and quote resolution.
//
// Services return *apperror.AppError for anything a client should see and
// never panic on store failures; the gateway turns every error into an
// envelope.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"chatty/apperror"
)

// Options shared by all services
type Options struct {
	// StoreTimeout bounds every store call. Zero disables the bound.
	StoreTimeout time.Duration
	// HashCost is the bcrypt cost for new passwords
	HashCost int
}

// DefaultOptions matches the production settings
func DefaultOptions() Options {
	return Options{
		StoreTimeout: 5 * time.Second,
		HashCost:     10,
	}
}

func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.StoreTimeout)
}

func (o Options) hashCost() int {
	if o.HashCost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return o.HashCost
}

// storeFailure converts an unexpected store error. A timed out call is a
// persistence failure like any other.
func storeFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Unavailable(fmt.Errorf("store timeout: %w", err))
	}
	return apperror.Unavailable(err)
}
