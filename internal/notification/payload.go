// Package notification builds the JSON message the service worker renders.
package notification

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// DefaultBodyMaxRunes is the body length kept before truncation.
const DefaultBodyMaxRunes = 120

const ellipsis = "..."

// ErrEmptyPayload is returned when a payload has no title.
var ErrEmptyPayload = errors.New("notification: title is required")

// Payload is the message pushed to every subscriber.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Marshal validates p and encodes it.
func (p Payload) Marshal() ([]byte, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, ErrEmptyPayload
	}
	return json.Marshal(p)
}

// Truncate shortens s to at most max runes, appending "..." only when runes
// were dropped. max <= 0 disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + ellipsis
}

// Builder fills the fixed fields of payloads.
type Builder struct {
	Icon         string
	URL          string
	BodyMaxRunes int
}

// Daily builds the devotional payload: title as given, body truncated.
func (b Builder) Daily(title, content string) Payload {
	max := b.BodyMaxRunes
	if max == 0 {
		max = DefaultBodyMaxRunes
	}
	return Payload{
		Title: title,
		Body:  Truncate(content, max),
		Icon:  b.Icon,
		URL:   b.URL,
	}
}

// Custom builds an operator payload, falling back to the builder's icon and
// URL when empty.
func (b Builder) Custom(title, body, icon, url string) Payload {
	p := b.Daily(title, body)
	if icon != "" {
		p.Icon = icon
	}
	if url != "" {
		p.URL = url
	}
	return p
}
