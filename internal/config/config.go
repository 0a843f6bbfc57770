package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the web service.
type Config struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	SessionSecret string

	ListenAddr      string
	LogLevel        string
	Timezone        *time.Location
	TemplatePath    string
	SessionTTL      time.Duration
	DefaultLanguage string
	SecureCookie    bool
	CalDAV          CalDAVConfig
}

// CalDAVConfig configures the optional CalDAV mirror. It is enabled when Endpoint
// and Calendar are both set.
type CalDAVConfig struct {
	Endpoint string
	Username string
	Password string
	Calendar string
}

// Enabled reports whether the mirror is configured.
func (c CalDAVConfig) Enabled() bool {
	return c.Endpoint != "" && c.Calendar != ""
}

// Load parses configuration values from the current process environment.
//
// Missing required values and unparsable optional values are collected and
// reported together in a single error.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:      ":8080",
		LogLevel:        "info",
		Timezone:        time.UTC,
		SessionTTL:      24 * time.Hour,
		DefaultLanguage: "en",
	}

	var missing, invalid []string

	required := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
			return
		}
		missing = append(missing, key)
	}
	required("GOOGLE_CLIENT_ID", &cfg.ClientID)
	required("GOOGLE_CLIENT_SECRET", &cfg.ClientSecret)
	required("GOOGLE_REDIRECT_URL", &cfg.RedirectURL)
	required("SESSION_SECRET", &cfg.SessionSecret)

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("PRIMARY_TIMEZONE")); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			invalid = append(invalid, "PRIMARY_TIMEZONE")
		} else {
			cfg.Timezone = loc
		}
	}
	cfg.TemplatePath = strings.TrimSpace(os.Getenv("SCHEDULE_TEMPLATE"))
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_LANGUAGE")); v != "" {
		cfg.DefaultLanguage = v
	}
	cfg.SecureCookie = strings.HasPrefix(strings.ToLower(cfg.RedirectURL), "https://")

	cfg.CalDAV = CalDAVConfig{
		Endpoint: strings.TrimSpace(os.Getenv("CALDAV_ENDPOINT")),
		Username: strings.TrimSpace(os.Getenv("CALDAV_USERNAME")),
		Password: os.Getenv("CALDAV_PASSWORD"),
		Calendar: strings.TrimSpace(os.Getenv("CALDAV_CALENDAR")),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}
