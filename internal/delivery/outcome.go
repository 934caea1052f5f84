package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
)

// Kind is the classification of a delivery attempt.
type Kind int

const (
	Delivered Kind = iota + 1
	TransientFailure
	PermanentFailure
)

func (k Kind) String() string {
	switch k {
	case Delivered:
		return "delivered"
	case TransientFailure:
		return "transient_failure"
	case PermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind name in JSON.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "delivered":
		*k = Delivered
	case "transient_failure":
		*k = TransientFailure
	case "permanent_failure":
		*k = PermanentFailure
	default:
		return fmt.Errorf("delivery: unknown outcome %q", b)
	}
	return nil
}

// Outcome is the result of pushing one payload to one subscription.
type Outcome struct {
	Kind       Kind
	Reason     string
	StatusCode int
}

// StatusError is returned by a Sender when the push service replied with a
// non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("push service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("push service returned %d: %s", e.StatusCode, e.Body)
}

// Sender pushes an encrypted payload to one subscription.
type Sender interface {
	Send(ctx context.Context, rec subscription.Record, payload []byte) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, rec subscription.Record, payload []byte) error

func (f SenderFunc) Send(ctx context.Context, rec subscription.Record, payload []byte) error {
	return f(ctx, rec, payload)
}

// IsPermanentStatus reports whether code means the subscription no longer
// exists at the push service.
func IsPermanentStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusGone
}

// Classify maps a Sender result to an Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: Delivered}
	}
	var se *StatusError
	if errors.As(err, &se) {
		kind := TransientFailure
		if IsPermanentStatus(se.StatusCode) {
			kind = PermanentFailure
		}
		return Outcome{Kind: kind, Reason: err.Error(), StatusCode: se.StatusCode}
	}
	return Outcome{Kind: TransientFailure, Reason: err.Error()}
}
