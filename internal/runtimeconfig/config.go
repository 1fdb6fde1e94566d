package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-cms-composer/internal/localesync"
	"github.com/goliatone/go-cms-composer/internal/props"
)

var (
	ErrDefaultLocaleRequired         = errors.New("composer config: default locale is required")
	ErrLocaleInvalid                 = errors.New("composer config: locale is not a valid BCP 47 tag")
	ErrDuplicateLocale               = errors.New("composer config: locale listed twice")
	ErrDefaultLocaleNotConfigured    = errors.New("composer config: default locale must be one of the configured locales")
	ErrStorageProviderUnknown        = errors.New("composer config: storage provider is invalid")
	ErrStorageDriverUnknown          = errors.New("composer config: storage driver is invalid")
	ErrStorageDSNRequired            = errors.New("composer config: storage dsn is required for the bun provider")
	ErrSyncStrategyInvalid           = errors.New("composer config: sync strategy is invalid")
	ErrUnknownPropsPolicyInvalid     = errors.New("composer config: unknown props policy is invalid")
	ErrSyncWorkersInvalid            = errors.New("composer config: sync workers must be zero or positive")
	ErrTranslationProviderUnknown    = errors.New("composer config: translation provider is invalid")
	ErrTranslationAPIKeyRequired     = errors.New("composer config: translation api key is required for openai")
	ErrTranslationMemoBackendUnknown = errors.New("composer config: translation memo backend is invalid")
	ErrTranslationRedisURLRequired   = errors.New("composer config: redis url is required for the redis memo backend")
	ErrComponentsInvalid             = errors.New("composer config: component registry is invalid")
	ErrLoggingProviderUnknown        = errors.New("composer config: logging provider is invalid")
	ErrLoggingLevelInvalid           = errors.New("composer config: logging level is invalid")
	ErrLoggingFormatInvalid          = errors.New("composer config: logging format is invalid")
)

// Config aggregates everything the composer module needs at startup.
type Config struct {
	DefaultLocale string            `env:"DEFAULT_LOCALE"`
	Locales       []string          `env:"LOCALES" envSeparator:","`
	Storage       StorageConfig     `envPrefix:"STORAGE_"`
	Cache         CacheConfig       `envPrefix:"CACHE_"`
	Sync          SyncConfig        `envPrefix:"SYNC_"`
	Translation   TranslationConfig `envPrefix:"TRANSLATION_"`
	Components    []ComponentConfig
	Logging       LoggingConfig     `envPrefix:"LOGGING_"`
}

// StorageConfig selects the persistence gateway.
type StorageConfig struct {
	Provider     string `env:"PROVIDER"`
	Driver       string `env:"DRIVER"`
	DSN          string `env:"DSN"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS"`
}

// CacheConfig controls the slug lookup cache of the bun repository.
type CacheConfig struct {
	Enabled    bool          `env:"ENABLED"`
	DefaultTTL time.Duration `env:"DEFAULT_TTL"`
}

// SyncConfig tunes propagation.
type SyncConfig struct {
	DefaultStrategy string `env:"DEFAULT_STRATEGY"`
	UnknownProps    string `env:"UNKNOWN_PROPS"`
	Workers         int    `env:"WORKERS"`
	ConflictRetries uint64 `env:"CONFLICT_RETRIES"`
}

// TranslationConfig selects and decorates the machine translation provider.
type TranslationConfig struct {
	Provider    string        `env:"PROVIDER"`
	Model       string        `env:"MODEL"`
	APIKey      string        `env:"API_KEY"`
	BaseURL     string        `env:"BASE_URL"`
	Timeout     time.Duration `env:"TIMEOUT"`
	MaxRetries  uint64        `env:"MAX_RETRIES"`
	RetryBase   time.Duration `env:"RETRY_BASE"`
	MemoEnabled bool          `env:"MEMO_ENABLED"`
	MemoBackend string        `env:"MEMO_BACKEND"`
	RedisURL    string        `env:"REDIS_URL"`
	RedisPrefix string        `env:"REDIS_PREFIX"`
	MemoTTL     time.Duration `env:"MEMO_TTL"`
}

// ComponentConfig registers or extends a component type.
type ComponentConfig struct {
	Type         string
	Structural   []string
	Translatable []string
	Opaque       []string
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `env:"PROVIDER"`
	Level     string   `env:"LEVEL"`
	Format    string   `env:"FORMAT"`
	AddSource bool     `env:"ADD_SOURCE"`
	Focus     []string `env:"FOCUS" envSeparator:","`
}

// DefaultConfig returns an in-memory, single-locale setup that needs no
// external services.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		Locales:       []string{"en"},
		Storage: StorageConfig{
			Provider: "memory",
			Driver:   "sqlite3",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Sync: SyncConfig{
			DefaultStrategy: string(localesync.StructureOnly),
			UnknownProps:    string(props.PolicyStructural),
			Workers:         4,
			ConflictRetries: 3,
		},
		Translation: TranslationConfig{
			Provider:    "passthrough",
			Model:       "gpt-4o-mini",
			Timeout:     30 * time.Second,
			MaxRetries:  2,
			RetryBase:   250 * time.Millisecond,
			MemoBackend: "memory",
			RedisPrefix: "composer:translation:",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// ComponentSpecs converts the configured components for the prop registry.
func (cfg Config) ComponentSpecs() []props.ComponentSpec {
	specs := make([]props.ComponentSpec, 0, len(cfg.Components))
	for _, component := range cfg.Components {
		specs = append(specs, props.ComponentSpec{
			Type:         component.Type,
			Structural:   component.Structural,
			Translatable: component.Translatable,
			Opaque:       component.Opaque,
		})
	}
	return specs
}

// Validate performs consistency checks. Locale codes must already be
// normalized; LoadEnv and Normalize take care of that.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}
	seen := make(map[string]struct{}, len(cfg.Locales))
	for _, locale := range cfg.Locales {
		normalized, err := NormalizeLocale(locale)
		if err != nil {
			return err
		}
		if _, dup := seen[normalized]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateLocale, normalized)
		}
		seen[normalized] = struct{}{}
	}
	defaultLocale, err := NormalizeLocale(cfg.DefaultLocale)
	if err != nil {
		return err
	}
	if _, ok := seen[defaultLocale]; !ok {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleNotConfigured, defaultLocale)
	}

	switch normalize(cfg.Storage.Provider) {
	case "memory":
	case "bun":
		if !isSupportedDriver(cfg.Storage.Driver) {
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}

	if _, err := localesync.ParseStrategy(cfg.Sync.DefaultStrategy); err != nil {
		return fmt.Errorf("%w: %s", ErrSyncStrategyInvalid, cfg.Sync.DefaultStrategy)
	}
	if _, err := props.ParsePolicy(cfg.Sync.UnknownProps); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownPropsPolicyInvalid, cfg.Sync.UnknownProps)
	}
	if cfg.Sync.Workers < 0 {
		return ErrSyncWorkersInvalid
	}

	switch normalize(cfg.Translation.Provider) {
	case "passthrough", "unavailable":
	case "openai":
		if strings.TrimSpace(cfg.Translation.APIKey) == "" {
			return ErrTranslationAPIKeyRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrTranslationProviderUnknown, cfg.Translation.Provider)
	}
	if cfg.Translation.MemoEnabled {
		switch normalize(cfg.Translation.MemoBackend) {
		case "", "memory":
		case "redis":
			if strings.TrimSpace(cfg.Translation.RedisURL) == "" {
				return ErrTranslationRedisURLRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrTranslationMemoBackendUnknown, cfg.Translation.MemoBackend)
		}
	}

	if _, err := props.Default().With(cfg.ComponentSpecs()...); err != nil {
		return fmt.Errorf("%w: %w", ErrComponentsInvalid, err)
	}

	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedDriver(driver string) bool {
	switch normalize(driver) {
	case "sqlite3", "sqlite", "postgres":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
