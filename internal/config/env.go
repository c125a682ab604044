package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names recognized by the daemon.
const (
	EnvStartURL           = "DESKTOP_START_URL"
	EnvAllowedOrigin      = "DESKTOP_ALLOWED_ORIGIN"
	EnvPollIntervalMS     = "DESKTOP_REMINDER_POLL_INTERVAL_MS"
	EnvLogLevel           = "DESKTOP_LOG_LEVEL"
	EnvAutoUpdateDisabled = "DESKTOP_AUTO_UPDATE_DISABLED"
)

// Defaults applied when the environment is absent or malformed.
const (
	DefaultStartURL     = "https://crm.businesssuite.app"
	DefaultPollInterval = 15 * time.Second
	DefaultBridgePort   = 8576
)

// Config is the resolved daemon configuration. It is built once at startup;
// malformed values never prevent the daemon from running.
type Config struct {
	StartURL           string
	AllowedOrigin      string
	PollInterval       time.Duration
	BridgePort         int
	Debug              bool
	AutoUpdateDisabled bool
}

// Resolve builds the daemon configuration from the environment and the
// persisted settings file. Invalid values fall back to defaults.
func Resolve() Config {
	settings, err := LoadSettings()
	if err != nil {
		log.Printf("[config] failed to load settings, using defaults: %v", err)
		settings = nil
	}

	cfg := Config{
		StartURL:     ResolveStartURL(os.Getenv(EnvStartURL)),
		PollInterval: DefaultPollInterval,
		BridgePort:   DefaultBridgePort,
	}

	if settings != nil {
		if settings.PollIntervalMS > 0 {
			cfg.PollInterval = time.Duration(settings.PollIntervalMS) * time.Millisecond
		}
		if settings.BridgePort > 0 {
			cfg.BridgePort = settings.BridgePort
		}
		cfg.AutoUpdateDisabled = settings.Updates.Disabled
	}

	if d, ok := ParsePollInterval(os.Getenv(EnvPollIntervalMS)); ok {
		cfg.PollInterval = d
	}

	cfg.AllowedOrigin = ResolveAllowedOrigin(os.Getenv(EnvAllowedOrigin), cfg.StartURL)
	cfg.Debug = strings.EqualFold(os.Getenv(EnvLogLevel), "debug")
	if isTruthy(os.Getenv(EnvAutoUpdateDisabled)) {
		cfg.AutoUpdateDisabled = true
	}

	return cfg
}

// ResolveStartURL validates the given URL, returning the default when it is
// blank or malformed.
func ResolveStartURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultStartURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		log.Printf("[config] invalid %s %q, using default", EnvStartURL, raw)
		return DefaultStartURL
	}
	return raw
}

// ResolveAllowedOrigin returns the origin the poller may call and the bridge
// may accept renderer connections from. It defaults to the start URL's origin.
func ResolveAllowedOrigin(raw, startURL string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
		log.Printf("[config] invalid %s %q, deriving from start URL", EnvAllowedOrigin, raw)
	}
	u, err := url.Parse(startURL)
	if err != nil {
		return DefaultStartURL
	}
	return u.Scheme + "://" + u.Host
}

// ParsePollInterval parses a millisecond interval from the environment.
// Non-numeric or non-positive values are rejected.
func ParsePollInterval(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		log.Printf("[config] invalid %s %q, using default", EnvPollIntervalMS, raw)
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
