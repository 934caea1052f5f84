package registry

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists is returned by Register when the endpoint is stored.
	ErrAlreadyExists = errors.New("subscription already exists")
	// ErrNotFound is returned by Get when the endpoint is not stored.
	ErrNotFound = errors.New("subscription not found")
	// ErrUnavailable wraps storage failures.
	ErrUnavailable = errors.New("registry unavailable")
)

// unavailable wraps a storage failure. Context cancellation and deadlines
// belong to the caller and are passed through without ErrUnavailable.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("registry: %s: %w", op, err)
	}
	return fmt.Errorf("registry: %s: %w: %w", op, ErrUnavailable, err)
}
