package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures environment driven configuration values for the station.
type Config struct {
	HTTPAddr            string
	APIBaseURL          string
	APIToken            string
	APITimeout          time.Duration
	ReturnAliasPath     string
	Location            *time.Location
	Locale              string
	SQLiteDSN           string
	LogLevel            string
	LogFormat           string
	ReturnWindow        time.Duration
	InfoDisplay         time.Duration
	KeyGap              time.Duration
	DurationChoices     []int
	OperatorPinHash     string
	OTelEndpoint        string
	ReservationCacheTTL time.Duration
	JournalRetention    time.Duration
	StdinScanner        bool
}

// stationEnv holds the raw environment values before validation.
type stationEnv struct {
	HTTPAddr            string        `env:"SCANVENTORY_HTTP_ADDR" envDefault:":8080"`
	APIBaseURL          string        `env:"SCANVENTORY_API_BASE_URL"`
	APIToken            string        `env:"SCANVENTORY_API_TOKEN"`
	APITimeout          time.Duration `env:"SCANVENTORY_API_TIMEOUT" envDefault:"10s"`
	ReturnAliasPath     string        `env:"SCANVENTORY_RETURN_ALIAS_PATH" envDefault:"/reservations/return"`
	Timezone            string        `env:"SCANVENTORY_TIMEZONE" envDefault:"Europe/Zurich"`
	Locale              string        `env:"SCANVENTORY_LOCALE" envDefault:"de"`
	SQLiteDSN           string        `env:"SCANVENTORY_SQLITE_DSN" envDefault:"data/journal.db"`
	LogLevel            string        `env:"SCANVENTORY_LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"SCANVENTORY_LOG_FORMAT" envDefault:"json"`
	ReturnWindow        time.Duration `env:"SCANVENTORY_RETURN_WINDOW" envDefault:"15s"`
	InfoDisplay         time.Duration `env:"SCANVENTORY_INFO_DISPLAY" envDefault:"20s"`
	KeyGap              time.Duration `env:"SCANVENTORY_KEY_GAP" envDefault:"1s"`
	DurationChoices     []int         `env:"SCANVENTORY_DURATION_CHOICES" envSeparator:"," envDefault:"1,2,3,4,5"`
	OperatorPinHash     string        `env:"SCANVENTORY_OPERATOR_PIN_HASH"`
	OTelEndpoint        string        `env:"SCANVENTORY_OTEL_ENDPOINT"`
	ReservationCacheTTL time.Duration `env:"SCANVENTORY_RESERVATION_CACHE_TTL" envDefault:"30s"`
	JournalRetention    time.Duration `env:"SCANVENTORY_JOURNAL_RETENTION" envDefault:"2160h"`
	StdinScanner        bool          `env:"SCANVENTORY_STDIN_SCANNER" envDefault:"false"`
}

// Load parses configuration values from the current process environment.
//
// Defaults apply to optional fields. Missing required values and invalid
// values are collected and reported by variable name.
func Load() (Config, error) {
	var raw stationEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("invalid environment variable values: %w", err)
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	cfg := Config{
		HTTPAddr:            strings.TrimSpace(raw.HTTPAddr),
		APIBaseURL:          strings.TrimRight(strings.TrimSpace(raw.APIBaseURL), "/"),
		APIToken:            strings.TrimSpace(raw.APIToken),
		APITimeout:          raw.APITimeout,
		ReturnAliasPath:     strings.TrimSpace(raw.ReturnAliasPath),
		Locale:              strings.ToLower(strings.TrimSpace(raw.Locale)),
		SQLiteDSN:           strings.TrimSpace(raw.SQLiteDSN),
		LogLevel:            strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		LogFormat:           strings.ToLower(strings.TrimSpace(raw.LogFormat)),
		ReturnWindow:        raw.ReturnWindow,
		InfoDisplay:         raw.InfoDisplay,
		KeyGap:              raw.KeyGap,
		DurationChoices:     raw.DurationChoices,
		OperatorPinHash:     strings.TrimSpace(raw.OperatorPinHash),
		OTelEndpoint:        strings.TrimSpace(raw.OTelEndpoint),
		ReservationCacheTTL: raw.ReservationCacheTTL,
		JournalRetention:    raw.JournalRetention,
		StdinScanner:        raw.StdinScanner,
	}

	if cfg.APIBaseURL == "" {
		missing = append(missing, "SCANVENTORY_API_BASE_URL")
	} else if u, err := url.Parse(cfg.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		invalid = append(invalid, "SCANVENTORY_API_BASE_URL")
	}

	if cfg.HTTPAddr == "" {
		invalid = append(invalid, "SCANVENTORY_HTTP_ADDR")
	}
	if cfg.APITimeout <= 0 {
		invalid = append(invalid, "SCANVENTORY_API_TIMEOUT")
	}
	if !strings.HasPrefix(cfg.ReturnAliasPath, "/") {
		invalid = append(invalid, "SCANVENTORY_RETURN_ALIAS_PATH")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(raw.Timezone))
	if err != nil {
		invalid = append(invalid, "SCANVENTORY_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	switch cfg.Locale {
	case "de", "en":
	default:
		invalid = append(invalid, "SCANVENTORY_LOCALE")
	}
	if cfg.SQLiteDSN == "" {
		invalid = append(invalid, "SCANVENTORY_SQLITE_DSN")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "SCANVENTORY_LOG_LEVEL")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		invalid = append(invalid, "SCANVENTORY_LOG_FORMAT")
	}

	if cfg.ReturnWindow < time.Second {
		invalid = append(invalid, "SCANVENTORY_RETURN_WINDOW")
	}
	if cfg.InfoDisplay <= 0 {
		invalid = append(invalid, "SCANVENTORY_INFO_DISPLAY")
	}
	if cfg.KeyGap <= 0 {
		invalid = append(invalid, "SCANVENTORY_KEY_GAP")
	}
	if !validChoices(cfg.DurationChoices) {
		invalid = append(invalid, "SCANVENTORY_DURATION_CHOICES")
	}
	if cfg.OperatorPinHash != "" && !strings.HasPrefix(cfg.OperatorPinHash, "$argon2id$") {
		invalid = append(invalid, "SCANVENTORY_OPERATOR_PIN_HASH")
	}
	if cfg.OTelEndpoint != "" {
		if u, err := url.Parse(cfg.OTelEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			invalid = append(invalid, "SCANVENTORY_OTEL_ENDPOINT")
		}
	}
	if cfg.ReservationCacheTTL <= 0 {
		invalid = append(invalid, "SCANVENTORY_RESERVATION_CACHE_TTL")
	}
	if cfg.JournalRetention < 0 {
		invalid = append(invalid, "SCANVENTORY_JOURNAL_RETENTION")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// validChoices accepts one to nine distinct positive day counts.
func validChoices(choices []int) bool {
	if len(choices) == 0 || len(choices) > 9 {
		return false
	}
	seen := make(map[int]bool, len(choices))
	for _, days := range choices {
		if days <= 0 || seen[days] {
			return false
		}
		seen[days] = true
	}
	return true
}
