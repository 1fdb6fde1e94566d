package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-cms-composer/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"blank default locale", func(c *runtimeconfig.Config) { c.DefaultLocale = " " }, runtimeconfig.ErrDefaultLocaleRequired},
		{"default not configured", func(c *runtimeconfig.Config) { c.DefaultLocale = "fi" }, runtimeconfig.ErrDefaultLocaleNotConfigured},
		{"invalid locale", func(c *runtimeconfig.Config) { c.Locales = []string{"en", "not a locale"} }, runtimeconfig.ErrLocaleInvalid},
		{"duplicate locale", func(c *runtimeconfig.Config) { c.Locales = []string{"en", "EN"} }, runtimeconfig.ErrDuplicateLocale},
		{"unknown storage", func(c *runtimeconfig.Config) { c.Storage.Provider = "mongo" }, runtimeconfig.ErrStorageProviderUnknown},
		{"bun without dsn", func(c *runtimeconfig.Config) { c.Storage.Provider = "bun" }, runtimeconfig.ErrStorageDSNRequired},
		{"bun bad driver", func(c *runtimeconfig.Config) {
			c.Storage.Provider = "bun"
			c.Storage.Driver = "oracle"
		}, runtimeconfig.ErrStorageDriverUnknown},
		{"strategy", func(c *runtimeconfig.Config) { c.Sync.DefaultStrategy = "merge" }, runtimeconfig.ErrSyncStrategyInvalid},
		{"policy", func(c *runtimeconfig.Config) { c.Sync.UnknownProps = "drop" }, runtimeconfig.ErrUnknownPropsPolicyInvalid},
		{"workers", func(c *runtimeconfig.Config) { c.Sync.Workers = -1 }, runtimeconfig.ErrSyncWorkersInvalid},
		{"translation provider", func(c *runtimeconfig.Config) { c.Translation.Provider = "deepl" }, runtimeconfig.ErrTranslationProviderUnknown},
		{"openai key", func(c *runtimeconfig.Config) { c.Translation.Provider = "openai" }, runtimeconfig.ErrTranslationAPIKeyRequired},
		{"redis url", func(c *runtimeconfig.Config) {
			c.Translation.MemoEnabled = true
			c.Translation.MemoBackend = "redis"
		}, runtimeconfig.ErrTranslationRedisURLRequired},
		{"memo backend", func(c *runtimeconfig.Config) {
			c.Translation.MemoEnabled = true
			c.Translation.MemoBackend = "memcached"
		}, runtimeconfig.ErrTranslationMemoBackendUnknown},
		{"component conflict", func(c *runtimeconfig.Config) {
			c.Components = []runtimeconfig.ComponentConfig{{Type: "Promo", Translatable: []string{"label"}, Opaque: []string{"label"}}}
		}, runtimeconfig.ErrComponentsInvalid},
		{"logging provider", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"logging level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"logging format", func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"en":      "en",
		"EN-us":   "en-US",
		"pt_br":   "pt-BR",
		" fi ":    "fi",
		"zh-hant": "zh-Hant",
	}
	for in, want := range cases {
		got, err := runtimeconfig.NormalizeLocale(in)
		if err != nil {
			t.Fatalf("NormalizeLocale(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeLocale(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadEnvMap(t *testing.T) {
	cfg, err := runtimeconfig.LoadEnvMap(map[string]string{
		"COMPOSER_DEFAULT_LOCALE":       "en",
		"COMPOSER_LOCALES":              "en,fi,sv-fi",
		"COMPOSER_STORAGE_PROVIDER":     "bun",
		"COMPOSER_STORAGE_DRIVER":       "sqlite",
		"COMPOSER_STORAGE_DSN":          "file:composer.db",
		"COMPOSER_SYNC_WORKERS":         "8",
		"COMPOSER_SYNC_UNKNOWN_PROPS":   "reject",
		"COMPOSER_TRANSLATION_PROVIDER": "unavailable",
		"COMPOSER_TRANSLATION_TIMEOUT":  "5s",
		"COMPOSER_LOGGING_PROVIDER":     "gologger",
		"COMPOSER_LOGGING_FORMAT":       "console",
	})
	if err != nil {
		t.Fatalf("LoadEnvMap: %v", err)
	}
	if got := cfg.Locales; len(got) != 3 || got[2] != "sv-FI" {
		t.Fatalf("unexpected locales %v", got)
	}
	if cfg.Storage.Provider != "bun" || cfg.Storage.DSN != "file:composer.db" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Sync.Workers != 8 || cfg.Sync.UnknownProps != "reject" {
		t.Fatalf("unexpected sync %+v", cfg.Sync)
	}
	if cfg.Translation.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.Translation.Timeout)
	}
	// Unset variables keep their defaults.
	if cfg.Translation.MaxRetries != 2 {
		t.Fatalf("expected default retries, got %d", cfg.Translation.MaxRetries)
	}
}

func TestLoadEnvMapRejectsInvalidConfig(t *testing.T) {
	_, err := runtimeconfig.LoadEnvMap(map[string]string{
		"COMPOSER_LOCALES": "fi",
	})
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleNotConfigured) {
		t.Fatalf("expected ErrDefaultLocaleNotConfigured, got %v", err)
	}
}
