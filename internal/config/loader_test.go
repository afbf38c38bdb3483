package config

import (
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/example/scanventory/internal/scan"
)

var allVariables = []string{
	"SCANVENTORY_HTTP_ADDR",
	"SCANVENTORY_API_BASE_URL",
	"SCANVENTORY_API_TOKEN",
	"SCANVENTORY_API_TIMEOUT",
	"SCANVENTORY_RETURN_ALIAS_PATH",
	"SCANVENTORY_TIMEZONE",
	"SCANVENTORY_LOCALE",
	"SCANVENTORY_SQLITE_DSN",
	"SCANVENTORY_LOG_LEVEL",
	"SCANVENTORY_LOG_FORMAT",
	"SCANVENTORY_RETURN_WINDOW",
	"SCANVENTORY_INFO_DISPLAY",
	"SCANVENTORY_KEY_GAP",
	"SCANVENTORY_DURATION_CHOICES",
	"SCANVENTORY_OPERATOR_PIN_HASH",
	"SCANVENTORY_OTEL_ENDPOINT",
	"SCANVENTORY_RESERVATION_CACHE_TTL",
	"SCANVENTORY_JOURNAL_RETENTION",
	"SCANVENTORY_STDIN_SCANNER",
}

// clearEnvironment registers every variable with t.Setenv so the original
// values come back after the test, then unsets them.
func clearEnvironment(t *testing.T) {
	t.Helper()
	for _, key := range allVariables {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("SCANVENTORY_API_BASE_URL", "https://tools.example.com/api/")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.APIBaseURL != "https://tools.example.com/api" {
			t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.APIBaseURL)
		}
		if cfg.HTTPAddr != ":8080" || cfg.APITimeout != 10*time.Second {
			t.Fatalf("unexpected transport defaults: %q %v", cfg.HTTPAddr, cfg.APITimeout)
		}
		if cfg.Location == nil || cfg.Location.String() != "Europe/Zurich" || cfg.Locale != "de" {
			t.Fatalf("unexpected locale defaults: %v %q", cfg.Location, cfg.Locale)
		}
		if cfg.ReturnWindow != 15*time.Second || cfg.InfoDisplay != 20*time.Second || cfg.KeyGap != scan.DefaultKeyGap {
			t.Fatalf("unexpected timer defaults: %v %v %v", cfg.ReturnWindow, cfg.InfoDisplay, cfg.KeyGap)
		}
		if !slices.Equal(cfg.DurationChoices, []int{1, 2, 3, 4, 5}) {
			t.Fatalf("unexpected duration choices %v", cfg.DurationChoices)
		}
		if cfg.ReturnAliasPath != "/reservations/return" || cfg.SQLiteDSN != "data/journal.db" {
			t.Fatalf("unexpected defaults: %q %q", cfg.ReturnAliasPath, cfg.SQLiteDSN)
		}
		if cfg.StdinScanner || cfg.OperatorPinHash != "" || cfg.OTelEndpoint != "" {
			t.Fatalf("expected optional features to be disabled")
		}
	})

	t.Run("default key gap keeps slow scanners within one token", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("SCANVENTORY_API_BASE_URL", "http://localhost:5000")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.KeyGap != scan.DefaultKeyGap {
			t.Fatalf("expected key gap %v, got %v", scan.DefaultKeyGap, cfg.KeyGap)
		}

		var tokens []string
		decoder := scan.NewDecoder(cfg.KeyGap, func(tok scan.Token) { tokens = append(tokens, tok.Text) })
		at := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
		for _, key := range []string{"u", "s", "r", "1"} {
			decoder.Feed(scan.KeyEvent{Key: key, At: at})
			at = at.Add(500 * time.Millisecond)
		}
		decoder.Feed(scan.KeyEvent{Key: "Enter", Code: "Enter", KeyCode: 13, At: at})
		if !slices.Equal(tokens, []string{"usr1"}) {
			t.Fatalf("expected [usr1], got %v", tokens)
		}
	})

	t.Run("reads explicit values", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("SCANVENTORY_API_BASE_URL", "http://localhost:5000")
		t.Setenv("SCANVENTORY_LOCALE", "EN")
		t.Setenv("SCANVENTORY_TIMEZONE", "UTC")
		t.Setenv("SCANVENTORY_DURATION_CHOICES", "1,7,14")
		t.Setenv("SCANVENTORY_RETURN_WINDOW", "30s")
		t.Setenv("SCANVENTORY_STDIN_SCANNER", "true")
		t.Setenv("SCANVENTORY_LOG_FORMAT", "text")
		t.Setenv("SCANVENTORY_OTEL_ENDPOINT", "http://collector:4318")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.Locale != "en" || cfg.Location != time.UTC {
			t.Fatalf("unexpected locale settings: %q %v", cfg.Locale, cfg.Location)
		}
		if !slices.Equal(cfg.DurationChoices, []int{1, 7, 14}) || cfg.ReturnWindow != 30*time.Second {
			t.Fatalf("unexpected session settings: %v %v", cfg.DurationChoices, cfg.ReturnWindow)
		}
		if !cfg.StdinScanner || cfg.LogFormat != "text" || cfg.OTelEndpoint != "http://collector:4318" {
			t.Fatalf("unexpected process settings: %+v", cfg)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnvironment(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: SCANVENTORY_API_BASE_URL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("SCANVENTORY_API_BASE_URL", "ftp://tools.example.com")
		t.Setenv("SCANVENTORY_LOCALE", "fr")
		t.Setenv("SCANVENTORY_TIMEZONE", "Mars/Olympus")
		t.Setenv("SCANVENTORY_DURATION_CHOICES", "1,1")
		t.Setenv("SCANVENTORY_OPERATOR_PIN_HASH", "1234")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{
			"SCANVENTORY_API_BASE_URL",
			"SCANVENTORY_LOCALE",
			"SCANVENTORY_TIMEZONE",
			"SCANVENTORY_DURATION_CHOICES",
			"SCANVENTORY_OPERATOR_PIN_HASH",
		} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("rejects unparsable values", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("SCANVENTORY_API_BASE_URL", "http://localhost:5000")
		t.Setenv("SCANVENTORY_RETURN_WINDOW", "soon")

		if _, err := Load(); err == nil || !strings.HasPrefix(err.Error(), "invalid environment variable values") {
			t.Fatalf("expected parse error, got %v", err)
		}
	})
}

func TestValidChoices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		choices []int
		want    bool
	}{
		{choices: nil, want: false},
		{choices: []int{1}, want: true},
		{choices: []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, want: true},
		{choices: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, want: false},
		{choices: []int{0, 1}, want: false},
		{choices: []int{2, 2}, want: false},
	}
	for _, tc := range tests {
		if got := validChoices(tc.choices); got != tc.want {
			t.Fatalf("validChoices(%v) = %v, want %v", tc.choices, got, tc.want)
		}
	}
}
