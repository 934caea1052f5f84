package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays PALABRA_* environment variables onto cfg. PORT,
// VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are honoured for hosts that
// inject them under those names; the PALABRA_ variants win.
func FromEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTPAddr = ":" + v
	}
	if v := os.Getenv("PALABRA_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("PALABRA_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("PALABRA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PALABRA_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PALABRA_STORE_FSYNC"); v != "" {
		cfg.Store.Fsync = strings.ToLower(v)
	}
	if v := os.Getenv("PALABRA_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("PALABRA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PALABRA_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	cfg.VAPID.PublicKey = firstNonEmpty(os.Getenv("PALABRA_VAPID_PUBLIC_KEY"), os.Getenv("VAPID_PUBLIC_KEY"), cfg.VAPID.PublicKey)
	cfg.VAPID.PrivateKey = firstNonEmpty(os.Getenv("PALABRA_VAPID_PRIVATE_KEY"), os.Getenv("VAPID_PRIVATE_KEY"), cfg.VAPID.PrivateKey)
	if v := os.Getenv("PALABRA_VAPID_SUBJECT"); v != "" {
		cfg.VAPID.Subject = v
	}

	if n, ok := envInt("PALABRA_PUSH_TTL_SECONDS"); ok {
		cfg.Push.TTLSeconds = n
	}
	if n, ok := envInt("PALABRA_PUSH_TIMEOUT_MS"); ok {
		cfg.Push.TimeoutMs = n
	}
	if n, ok := envInt("PALABRA_PUSH_MAX_IN_FLIGHT"); ok {
		cfg.Push.MaxInFlight = n
	}
	if v := os.Getenv("PALABRA_DEVOTIONAL_URL"); v != "" {
		cfg.Devotional.SourceURL = v
	}
	if n, ok := envInt("PALABRA_BODY_MAX_RUNES"); ok {
		cfg.Notification.BodyMaxRunes = n
	}
	if v := os.Getenv("PALABRA_CONFIRM_ON_SUBSCRIBE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Notification.ConfirmOnSubscribe = b
		}
	}
	if v := os.Getenv("PALABRA_DAILY_AT"); v != "" {
		cfg.Schedule.DailyAt = v
	}
	if v := os.Getenv("PALABRA_TIMEZONE"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if v := os.Getenv("PALABRA_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, p)
			}
		}
	}
	if v := os.Getenv("PALABRA_ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}
	if n, ok := envInt("PALABRA_JOURNAL_MAX_ENTRIES"); ok {
		cfg.JournalMaxEntries = n
	}
	if n, ok := envInt("PALABRA_JOURNAL_MAX_AGE_DAYS"); ok {
		cfg.JournalMaxAgeDays = n
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
