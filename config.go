package composer

import "github.com/goliatone/go-cms-composer/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired         = runtimeconfig.ErrDefaultLocaleRequired
	ErrLocaleInvalid                 = runtimeconfig.ErrLocaleInvalid
	ErrDuplicateLocale               = runtimeconfig.ErrDuplicateLocale
	ErrDefaultLocaleNotConfigured    = runtimeconfig.ErrDefaultLocaleNotConfigured
	ErrStorageProviderUnknown        = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDriverUnknown          = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired            = runtimeconfig.ErrStorageDSNRequired
	ErrSyncStrategyInvalid           = runtimeconfig.ErrSyncStrategyInvalid
	ErrUnknownPropsPolicyInvalid     = runtimeconfig.ErrUnknownPropsPolicyInvalid
	ErrTranslationProviderUnknown    = runtimeconfig.ErrTranslationProviderUnknown
	ErrTranslationAPIKeyRequired     = runtimeconfig.ErrTranslationAPIKeyRequired
	ErrTranslationMemoBackendUnknown = runtimeconfig.ErrTranslationMemoBackendUnknown
	ErrTranslationRedisURLRequired   = runtimeconfig.ErrTranslationRedisURLRequired
	ErrComponentsInvalid             = runtimeconfig.ErrComponentsInvalid
	ErrLoggingProviderUnknown        = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid           = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid          = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config            = runtimeconfig.Config
	StorageConfig     = runtimeconfig.StorageConfig
	CacheConfig       = runtimeconfig.CacheConfig
	SyncConfig        = runtimeconfig.SyncConfig
	TranslationConfig = runtimeconfig.TranslationConfig
	ComponentConfig   = runtimeconfig.ComponentConfig
	LoggingConfig     = runtimeconfig.LoggingConfig
)

// DefaultConfig returns an in-memory configuration with the passthrough translator.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadEnv reads dotenv files and COMPOSER_* variables over DefaultConfig.
func LoadEnv(files ...string) (Config, error) {
	return runtimeconfig.LoadEnv(files...)
}
