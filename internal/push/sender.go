// Package push delivers encrypted Web Push messages signed with VAPID.
package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// ErrNotConfigured is returned when VAPID keys are missing.
var ErrNotConfigured = errors.New("push: VAPID keys are not configured")

const maxErrorBody = 512

// Options configures a Sender.
type Options struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Subject is the contact claim, a mailto: address or https URL.
	Subject string
	TTL     time.Duration
	Urgency string
	// Timeout bounds one delivery including the push service round trip.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logpkg.Logger
}

// Sender implements delivery.Sender with webpush-go.
type Sender struct {
	opts    webpush.Options
	pub     string
	timeout time.Duration
	logger  logpkg.Logger
}

var _ delivery.Sender = (*Sender)(nil)

// NewSender validates o and returns a Sender.
func NewSender(o Options) (*Sender, error) {
	if o.VAPIDPublicKey == "" || o.VAPIDPrivateKey == "" {
		return nil, ErrNotConfigured
	}
	urgency, err := parseUrgency(o.Urgency)
	if err != nil {
		return nil, err
	}
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := o.Logger
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("push"))
	}
	ttl := int(o.TTL / time.Second)
	if ttl <= 0 {
		ttl = 86400
	}
	return &Sender{
		opts: webpush.Options{
			HTTPClient: client,
			// webpush-go adds the mailto: scheme itself unless the subject is https.
			Subscriber:      strings.TrimPrefix(o.Subject, "mailto:"),
			TTL:             ttl,
			Urgency:         urgency,
			VAPIDPublicKey:  o.VAPIDPublicKey,
			VAPIDPrivateKey: o.VAPIDPrivateKey,
		},
		pub:     o.VAPIDPublicKey,
		timeout: o.Timeout,
		logger:  logger,
	}, nil
}

// PublicKey is the application server key browsers subscribe with.
func (s *Sender) PublicKey() string { return s.pub }

// Send pushes payload to rec. A non-2xx answer is returned as a
// *delivery.StatusError.
func (s *Sender) Send(ctx context.Context, rec subscription.Record, payload []byte) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	sub := &webpush.Subscription{
		Endpoint: rec.Endpoint,
		Keys:     webpush.Keys{P256dh: rec.Keys.P256dh, Auth: rec.Keys.Auth},
	}
	opts := s.opts
	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &opts)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	s.logger.Debug("push rejected", logpkg.Int("status", resp.StatusCode), logpkg.Str("host", rec.Host()))
	return &delivery.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func parseUrgency(s string) (webpush.Urgency, error) {
	switch s {
	case "", "normal":
		return webpush.UrgencyNormal, nil
	case "very-low":
		return webpush.UrgencyVeryLow, nil
	case "low":
		return webpush.UrgencyLow, nil
	case "high":
		return webpush.UrgencyHigh, nil
	default:
		return "", fmt.Errorf("push: urgency must be very-low, low, normal or high, got %q", s)
	}
}

// KeyPair is a VAPID key pair, both halves base64url encoded.
type KeyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// GenerateKeys creates a fresh VAPID key pair.
func GenerateKeys() (KeyPair, error) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}
