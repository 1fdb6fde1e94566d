package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

// MemoStore keeps translated strings keyed by locale pair and source text.
type MemoStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Memo serves repeated translations from a MemoStore. Store errors fall back
// to the wrapped translator; failed translations are never memoized.
type Memo struct {
	next   interfaces.Translator
	store  MemoStore
	logger interfaces.Logger
}

// WithMemo returns a decorator for Chain.
func WithMemo(store MemoStore, logger interfaces.Logger) func(interfaces.Translator) interfaces.Translator {
	return func(next interfaces.Translator) interfaces.Translator {
		return NewMemo(next, store, logger)
	}
}

func NewMemo(next interfaces.Translator, store MemoStore, logger interfaces.Logger) *Memo {
	return &Memo{next: next, store: store, logger: logger}
}

func (m *Memo) Translate(ctx context.Context, text, from, to string) (string, error) {
	key := MemoKey(text, from, to)
	if cached, ok, err := m.store.Get(ctx, key); err != nil {
		m.warn("translation.memo.get_failed", err)
	} else if ok {
		return cached, nil
	}
	out, err := m.next.Translate(ctx, text, from, to)
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, key, out); err != nil {
		m.warn("translation.memo.set_failed", err)
	}
	return out, nil
}

func (m *Memo) warn(msg string, err error) {
	if m.logger != nil {
		m.logger.Warn(msg, "error", err)
	}
}

// MemoKey is "<from>:<to>:<sha256 of text>".
func MemoKey(text, from, to string) string {
	sum := sha256.Sum256([]byte(text))
	return normalizeLocale(from) + ":" + normalizeLocale(to) + ":" + hex.EncodeToString(sum[:])
}

// MemoryStore is an unbounded in-process MemoStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

// RedisStore shares memoized translations across processes.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	URL            string
	Prefix         string
	TTL            time.Duration
	ConnectTimeout time.Duration
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("translation: redis url required")
	}
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStoreFromClient(client, opts.Prefix, opts.TTL), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "composer:translation:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
