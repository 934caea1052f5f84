package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`
	DataDir  string `json:"dataDir" yaml:"dataDir"`

	Store        StoreConfig        `json:"store" yaml:"store"`
	Log          LogConfig          `json:"log" yaml:"log"`
	VAPID        VAPIDConfig        `json:"vapid" yaml:"vapid"`
	Push         PushConfig         `json:"push" yaml:"push"`
	Devotional   DevotionalConfig   `json:"devotional" yaml:"devotional"`
	Notification NotificationConfig `json:"notification" yaml:"notification"`
	Schedule     ScheduleConfig     `json:"schedule" yaml:"schedule"`

	// AllowedOrigins is the CORS allowlist. "*" allows any origin.
	AllowedOrigins []string `json:"allowedOrigins" yaml:"allowedOrigins"`
	// AdminToken, when set, guards the broadcast and subscriber listing routes.
	AdminToken string `json:"adminToken" yaml:"adminToken"`
	// JournalMaxEntries bounds the broadcast history.
	JournalMaxEntries int `json:"journalMaxEntries" yaml:"journalMaxEntries"`
	// JournalMaxAgeDays drops broadcasts older than this many days. 0 keeps them.
	JournalMaxAgeDays int `json:"journalMaxAgeDays" yaml:"journalMaxAgeDays"`
}

// StoreConfig selects the subscriber registry backend.
type StoreConfig struct {
	Backend         string `json:"backend" yaml:"backend"` // pebble|sqlite
	Fsync           string `json:"fsync" yaml:"fsync"`     // always|interval|never
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	// SQLitePath defaults to {dataDir}/subscriptions.db.
	SQLitePath string `json:"sqlitePath" yaml:"sqlitePath"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// VAPIDConfig carries the application server keys used to sign push requests.
type VAPIDConfig struct {
	PublicKey  string `json:"publicKey" yaml:"publicKey"`
	PrivateKey string `json:"privateKey" yaml:"privateKey"`
	Subject    string `json:"subject" yaml:"subject"`
}

type PushConfig struct {
	TTLSeconds  int    `json:"ttlSeconds" yaml:"ttlSeconds"`
	Urgency     string `json:"urgency" yaml:"urgency"`
	TimeoutMs   int    `json:"timeoutMs" yaml:"timeoutMs"`
	MaxInFlight int    `json:"maxInFlight" yaml:"maxInFlight"`
}

type DevotionalConfig struct {
	SourceURL       string `json:"sourceUrl" yaml:"sourceUrl"`
	TitleSelector   string `json:"titleSelector" yaml:"titleSelector"`
	ContentSelector string `json:"contentSelector" yaml:"contentSelector"`
	DateSelector    string `json:"dateSelector" yaml:"dateSelector"`
	DefaultTitle    string `json:"defaultTitle" yaml:"defaultTitle"`
	TimeoutMs       int    `json:"timeoutMs" yaml:"timeoutMs"`
}

type NotificationConfig struct {
	Icon               string `json:"icon" yaml:"icon"`
	URL                string `json:"url" yaml:"url"`
	BodyMaxRunes       int    `json:"bodyMaxRunes" yaml:"bodyMaxRunes"`
	ConfirmOnSubscribe bool   `json:"confirmOnSubscribe" yaml:"confirmOnSubscribe"`
	ConfirmTitle       string `json:"confirmTitle" yaml:"confirmTitle"`
	ConfirmBody        string `json:"confirmBody" yaml:"confirmBody"`
}

// ScheduleConfig enables the in-process daily broadcast when DailyAt is set.
type ScheduleConfig struct {
	DailyAt  string `json:"dailyAt" yaml:"dailyAt"` // HH:MM
	Timezone string `json:"timezone" yaml:"timezone"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":3000",
		GRPCAddr: ":50051",
		Store: StoreConfig{
			Backend:         "pebble",
			Fsync:           "always",
			FsyncIntervalMs: 5,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		VAPID: VAPIDConfig{
			Subject: "mailto:contacto@misionvida.com",
		},
		Push: PushConfig{
			TTLSeconds: 86400,
			Urgency:    "normal",
			TimeoutMs:  10000,
		},
		Devotional: DevotionalConfig{
			SourceURL:       "https://www.bibliaon.com/es/palabra_del_dia/",
			TitleSelector:   ".daily-suptitle",
			ContentSelector: ".daily-content",
			DateSelector:    ".daily-date",
			DefaultTitle:    "Palabra del Día",
			TimeoutMs:       15000,
		},
		Notification: NotificationConfig{
			Icon:               "/icon-192x192.png",
			URL:                "/",
			BodyMaxRunes:       120,
			ConfirmOnSubscribe: true,
			ConfirmTitle:       "✅ Notificaciones Activadas",
			ConfirmBody:        "Recibirás la Palabra del Día cada mañana",
		},
		Schedule: ScheduleConfig{Timezone: "America/Argentina/Buenos_Aires"},
		AllowedOrigins: []string{
			"https://mision-vida-app.web.app",
			"http://127.0.0.1:5501",
			"http://localhost:5501",
		},
		JournalMaxEntries: 365,
		JournalMaxAgeDays: 400,
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

var dailyAtRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "pebble", "sqlite":
	default:
		return fmt.Errorf("store.backend must be pebble or sqlite, got %q", c.Store.Backend)
	}
	switch c.Store.Fsync {
	case "always", "interval", "never":
	default:
		return fmt.Errorf("store.fsync must be always, interval or never, got %q", c.Store.Fsync)
	}
	if c.HTTPAddr == "" {
		return errors.New("httpAddr is required")
	}
	if c.Notification.BodyMaxRunes <= 0 {
		return errors.New("notification.bodyMaxRunes must be positive")
	}
	if c.JournalMaxAgeDays < 0 {
		return errors.New("journalMaxAgeDays must not be negative")
	}
	if c.Push.MaxInFlight < 0 {
		return errors.New("push.maxInFlight must not be negative")
	}
	if c.Schedule.DailyAt != "" {
		if !dailyAtRe.MatchString(c.Schedule.DailyAt) {
			return fmt.Errorf("schedule.dailyAt must be HH:MM, got %q", c.Schedule.DailyAt)
		}
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule.timezone: %w", err)
		}
	}
	return nil
}

// PushTimeout returns the per-delivery timeout.
func (c Config) PushTimeout() time.Duration {
	return time.Duration(c.Push.TimeoutMs) * time.Millisecond
}

// JournalMaxAge returns the broadcast history retention, 0 for unbounded.
func (c Config) JournalMaxAge() time.Duration {
	return time.Duration(c.JournalMaxAgeDays) * 24 * time.Hour
}

// DevotionalTimeout returns the scrape timeout.
func (c Config) DevotionalTimeout() time.Duration {
	return time.Duration(c.Devotional.TimeoutMs) * time.Millisecond
}
