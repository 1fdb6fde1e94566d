package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	pagescmd "github.com/goliatone/go-cms-composer/internal/commands/pages"
	"github.com/goliatone/go-cms-composer/internal/editing"
	"github.com/goliatone/go-cms-composer/internal/localesync"
	"github.com/goliatone/go-cms-composer/internal/logging"
	"github.com/goliatone/go-cms-composer/internal/logging/console"
	"github.com/goliatone/go-cms-composer/internal/logging/gologger"
	"github.com/goliatone/go-cms-composer/internal/pages"
	"github.com/goliatone/go-cms-composer/internal/props"
	"github.com/goliatone/go-cms-composer/internal/runtimeconfig"
	"github.com/goliatone/go-cms-composer/internal/storage"
	"github.com/goliatone/go-cms-composer/internal/translation"
	"github.com/goliatone/go-cms-composer/internal/workflow"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

const startupTimeout = 30 * time.Second

// Container wires module dependencies from runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	now            func() time.Time

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	registry   *props.Registry
	repo       pages.Repository
	translator interfaces.Translator
	memoStore  translation.MemoStore
	engine     *localesync.Engine
	workflow   interfaces.WorkflowEngine
	service    *editing.Service

	commandRegistry pagescmd.CommandRegistry
	commands        *pagescmd.HandlerSet

	closers []func() error
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies an open database. The container does not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the slug lookup cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithRepository replaces the page repository selected by Config.Storage.
func WithRepository(repo pages.Repository) Option {
	return func(c *Container) {
		c.repo = repo
	}
}

// WithTranslator replaces the provider selected by Config.Translation. The
// retry and memo decorators are still applied.
func WithTranslator(translator interfaces.Translator) Option {
	return func(c *Container) {
		c.translator = translator
	}
}

// WithMemoStore replaces the memo backend selected by Config.Translation.
func WithMemoStore(store translation.MemoStore) Option {
	return func(c *Container) {
		c.memoStore = store
	}
}

// WithWorkflowEngine replaces the built-in publish state machine.
func WithWorkflowEngine(engine interfaces.WorkflowEngine) Option {
	return func(c *Container) {
		c.workflow = engine
	}
}

// WithCommandRegistry registers the page command handlers with reg.
func WithCommandRegistry(reg pagescmd.CommandRegistry) Option {
	return func(c *Container) {
		c.commandRegistry = reg
	}
}

// WithClock overrides the time source used by repositories and services.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// NewContainer validates cfg and builds every collaborator. Callers own the
// returned container and must Close it.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		now:      time.Now,
		cacheTTL: cfg.Cache.DefaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	steps := []func(context.Context) error{
		c.configureLoggerProvider,
		c.configureRegistry,
		c.configureRepository,
		c.configureTranslator,
		c.configureServices,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLoggerProvider(context.Context) error {
	if c.loggerProvider == nil {
		provider, err := newLoggerProvider(c.Config.Logging)
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "composer.di")
	return nil
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	case "noop":
		return nil, nil
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(cfg.Level); ok {
			opts.MinLevel = &level
		}
		return console.NewProvider(opts), nil
	}
}

func (c *Container) configureRegistry(context.Context) error {
	registry, err := props.Default().With(c.Config.ComponentSpecs()...)
	if err != nil {
		return fmt.Errorf("%w: %w", runtimeconfig.ErrComponentsInvalid, err)
	}
	c.registry = registry
	return nil
}

func (c *Container) configureRepository(ctx context.Context) error {
	if c.repo != nil {
		c.logger.Info("storage.configured", "provider", "custom")
		return nil
	}

	storageCfg := c.Config.Storage
	if strings.EqualFold(storageCfg.Provider, "memory") && c.bunDB == nil {
		c.repo = pages.NewMemoryRepository(pages.WithClock(c.now))
		c.logger.Info("storage.configured", "provider", "memory")
		return nil
	}

	if c.bunDB == nil {
		db, err := storage.Open(ctx, storageCfg.Driver, storageCfg.DSN, storage.Options{
			MaxOpenConns: storageCfg.MaxOpenConns,
		})
		if err != nil {
			return err
		}
		c.bunDB = db
		c.closers = append(c.closers, db.Close)
	}
	if storageCfg.AutoMigrate {
		if err := storage.Migrate(ctx, c.bunDB); err != nil {
			return err
		}
	}

	c.configureCacheDefaults()
	if c.cacheService != nil {
		c.repo = pages.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer, pages.WithClock(c.now))
	} else {
		c.repo = pages.NewBunRepository(c.bunDB, pages.WithClock(c.now))
	}
	c.logger.Info("storage.configured",
		"provider", "bun",
		"driver", storageCfg.Driver,
		"cache", c.cacheService != nil,
		"migrated", storageCfg.AutoMigrate,
	)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("cache.disabled", "error", err)
			return
		}
		c.cacheService = service
	}

	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureTranslator(ctx context.Context) error {
	cfg := c.Config.Translation
	logger := logging.ModuleLogger(c.loggerProvider, "composer.translation")

	provider := "custom"
	base := c.translator
	if base == nil {
		provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
		switch provider {
		case translation.ProviderOpenAI:
			client, err := translation.NewOpenAI(translation.OpenAIConfig{
				APIKey:  cfg.APIKey,
				Model:   cfg.Model,
				BaseURL: cfg.BaseURL,
				Timeout: cfg.Timeout,
			})
			if err != nil {
				return err
			}
			base = client
		case translation.ProviderUnavailable:
			base = translation.Unavailable{}
		default:
			provider = translation.ProviderPassthrough
			base = translation.Passthrough{}
		}
	}

	var decorators []func(interfaces.Translator) interfaces.Translator
	if cfg.MemoEnabled || c.memoStore != nil {
		if c.memoStore == nil {
			store, err := c.newMemoStore(ctx)
			if err != nil {
				return err
			}
			c.memoStore = store
		}
		decorators = append(decorators, translation.WithMemo(c.memoStore, logger))
	}
	if cfg.MaxRetries > 0 && provider != translation.ProviderUnavailable {
		decorators = append(decorators, translation.WithRetry(cfg.MaxRetries, cfg.RetryBase))
	}

	c.translator = translation.Chain(base, decorators...)
	logger.Info("translation.configured",
		"provider", provider,
		"memo", c.memoStore != nil,
		"max_retries", cfg.MaxRetries,
	)
	return nil
}

func (c *Container) newMemoStore(ctx context.Context) (translation.MemoStore, error) {
	cfg := c.Config.Translation
	if !strings.EqualFold(cfg.MemoBackend, "redis") {
		return translation.NewMemoryStore(), nil
	}
	store, err := translation.NewRedisStore(ctx, translation.RedisOptions{
		URL:            cfg.RedisURL,
		Prefix:         cfg.RedisPrefix,
		TTL:            cfg.MemoTTL,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("di: connect translation memo: %w", err)
	}
	c.closers = append(c.closers, store.Close)
	return store, nil
}

func (c *Container) configureServices(context.Context) error {
	strategy, err := localesync.ParseStrategy(c.Config.Sync.DefaultStrategy)
	if err != nil {
		return err
	}
	policy, err := props.ParsePolicy(c.Config.Sync.UnknownProps)
	if err != nil {
		return err
	}

	c.engine = localesync.NewEngine(c.registry, c.translator,
		localesync.WithWorkers(c.Config.Sync.Workers),
		localesync.WithClock(c.now),
		localesync.WithLogger(logging.SyncLogger(c.loggerProvider)),
	)
	if c.workflow == nil {
		c.workflow = workflow.New(workflow.WithClock(c.now))
	}

	c.service = editing.NewService(c.repo, c.registry, c.engine, c.translator, editing.Config{
		Locales:         c.Config.Locales,
		DefaultStrategy: strategy,
		UnknownProps:    policy,
		ConflictRetries: c.Config.Sync.ConflictRetries,
	},
		editing.WithLogger(logging.EditingLogger(c.loggerProvider)),
		editing.WithClock(c.now),
		editing.WithWorkflow(c.workflow),
	)

	set, err := pagescmd.RegisterPageCommands(c.commandRegistry, c.service, c.loggerProvider)
	if err != nil {
		return err
	}
	c.commands = set
	return nil
}

// Close releases connections opened by the container.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// LoggerProvider returns the active provider; nil means no-op logging.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// BunDB returns the database handle, or nil for the memory provider.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// Registry returns the component registry.
func (c *Container) Registry() *props.Registry {
	return c.registry
}

// Repository returns the page repository.
func (c *Container) Repository() pages.Repository {
	return c.repo
}

// Translator returns the decorated translator chain.
func (c *Container) Translator() interfaces.Translator {
	return c.translator
}

// Engine returns the sync engine.
func (c *Container) Engine() *localesync.Engine {
	return c.engine
}

// EditingService returns the editing service.
func (c *Container) EditingService() *editing.Service {
	return c.service
}

// Commands returns the page command handlers.
func (c *Container) Commands() *pagescmd.HandlerSet {
	return c.commands
}
