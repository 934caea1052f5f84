// Package config loads palabra's configuration: built-in defaults, an
// optional JSON or YAML file, then PALABRA_* environment overrides.
//
// Example:
//
//	cfg, err := config.Load("/etc/palabra.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
