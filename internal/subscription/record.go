package subscription

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidSubscription marks client input that cannot become a Record.
var ErrInvalidSubscription = errors.New("invalid subscription")

const (
	// P256dhLen is the length of an uncompressed P-256 public key.
	P256dhLen = 65
	// AuthLen is the length of the push auth secret.
	AuthLen = 16
)

// Keys is the client key material needed to encrypt a push message.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Record is a stored push subscription. Values that came from outside the
// process are only obtained through Parse.
type Record struct {
	Endpoint       string     `json:"endpoint"`
	Keys           Keys       `json:"keys"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpirationTime *time.Time `json:"expirationTime,omitempty"`
}

// Raw is the subscription object as produced by PushSubscription.toJSON()
// in the browser. expirationTime is epoch milliseconds or null.
type Raw struct {
	Endpoint       string   `json:"endpoint"`
	ExpirationTime *float64 `json:"expirationTime"`
	Keys           *Keys    `json:"keys"`
}

// Parse validates raw and builds a Record. CreatedAt is left zero; the
// registry stamps it on insert.
func Parse(raw Raw) (Record, error) {
	if raw.Keys == nil {
		return Record{}, invalid("keys are required")
	}
	rec := Record{
		Endpoint: strings.TrimSpace(raw.Endpoint),
		Keys: Keys{
			P256dh: strings.TrimSpace(raw.Keys.P256dh),
			Auth:   strings.TrimSpace(raw.Keys.Auth),
		},
	}
	if raw.ExpirationTime != nil && *raw.ExpirationTime > 0 {
		exp := time.UnixMilli(int64(*raw.ExpirationTime)).UTC()
		rec.ExpirationTime = &exp
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ParseJSON decodes either a bare subscription or one wrapped as
// {"subscription": {...}}.
func ParseJSON(b []byte) (Record, error) {
	var wrapped struct {
		Subscription *Raw `json:"subscription"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return Record{}, invalid("malformed JSON: " + err.Error())
	}
	if wrapped.Subscription != nil {
		return Parse(*wrapped.Subscription)
	}
	var raw Raw
	if err := json.Unmarshal(b, &raw); err != nil {
		return Record{}, invalid("malformed JSON: " + err.Error())
	}
	return Parse(raw)
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	if r.Endpoint == "" {
		return invalid("endpoint is required")
	}
	u, err := url.Parse(r.Endpoint)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return invalid("endpoint must be an absolute http(s) URL")
	}
	if r.Keys.P256dh == "" {
		return invalid("keys.p256dh is required")
	}
	if r.Keys.Auth == "" {
		return invalid("keys.auth is required")
	}
	p, err := DecodeKey(r.Keys.P256dh)
	if err != nil {
		return invalid("keys.p256dh is not base64url")
	}
	if len(p) != P256dhLen {
		return invalid(fmt.Sprintf("keys.p256dh must decode to %d bytes, got %d", P256dhLen, len(p)))
	}
	a, err := DecodeKey(r.Keys.Auth)
	if err != nil {
		return invalid("keys.auth is not base64url")
	}
	if len(a) != AuthLen {
		return invalid(fmt.Sprintf("keys.auth must decode to %d bytes, got %d", AuthLen, len(a)))
	}
	return nil
}

// Host returns the push service host of the endpoint.
func (r Record) Host() string {
	u, err := url.Parse(r.Endpoint)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// DecodeKey decodes base64url key material with or without padding.
func DecodeKey(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSubscription, reason)
}
