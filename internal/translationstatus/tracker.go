package translationstatus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/goliatone/go-cms-composer/internal/logging"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

// Snapshot is the persisted state the tracker reads: every stored locale
// tree, the page's metadata and the version token they were read at.
type Snapshot struct {
	PageID        uuid.UUID
	DefaultLocale string
	Version       int64
	Trees         map[string]*nodes.Tree
	Meta          PageMeta
}

// Store loads snapshots and writes metadata under optimistic concurrency.
type Store interface {
	LoadSnapshot(ctx context.Context, pageID uuid.UUID) (Snapshot, error)
	SaveMeta(ctx context.Context, pageID uuid.UUID, meta PageMeta, expectedVersion int64) (int64, error)
}

// Tracker answers translation status queries and records reviews.
type Tracker struct {
	store     Store
	locales   []string
	logger    interfaces.Logger
	retryIf   func(error) bool
	attempts  uint64
	retryBase time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithConflictRetry retries MarkReviewed up to attempts times when retryIf
// accepts the store error.
func WithConflictRetry(retryIf func(error) bool, attempts uint64, base time.Duration) Option {
	return func(t *Tracker) {
		t.retryIf = retryIf
		t.attempts = attempts
		if base > 0 {
			t.retryBase = base
		}
	}
}

// NewTracker builds a tracker for the configured site locales.
func NewTracker(store Store, locales []string, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		locales:   append([]string(nil), locales...),
		logger:    logging.NoOp(),
		retryBase: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// MissingLocales lists configured locales with no content for the page.
func (t *Tracker) MissingLocales(ctx context.Context, pageID uuid.UUID) ([]string, error) {
	snapshot, err := t.store.LoadSnapshot(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return MissingLocales(t.locales, snapshot.Trees), nil
}

// NeedsReview lists nodes auto-translated into locale and not yet reviewed.
func (t *Tracker) NeedsReview(ctx context.Context, pageID uuid.UUID, locale string) ([]string, error) {
	snapshot, err := t.store.LoadSnapshot(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return snapshot.Meta.NeedsReview(locale), nil
}

// Report returns the per-locale, per-node status of the page.
func (t *Tracker) Report(ctx context.Context, pageID uuid.UUID) (Report, error) {
	snapshot, err := t.store.LoadSnapshot(ctx, pageID)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(snapshot, t.locales), nil
}

// MarkReviewed records a human review of nodeID in locale and returns the new
// version token. Version conflicts are retried against a fresh read.
func (t *Tracker) MarkReviewed(ctx context.Context, pageID uuid.UUID, nodeID, locale string) (int64, error) {
	var version int64
	attempt := func(ctx context.Context) error {
		snapshot, err := t.store.LoadSnapshot(ctx, pageID)
		if err != nil {
			return err
		}
		meta := snapshot.Meta.Clone()
		if err := meta.MarkReviewed(nodeID, locale); err != nil {
			return err
		}
		next, err := t.store.SaveMeta(ctx, pageID, meta, snapshot.Version)
		if err != nil {
			if t.retryIf != nil && t.retryIf(err) {
				t.logger.Debug("status.review.retry", "page_id", pageID, "node_id", nodeID, "locale", locale)
				return retry.RetryableError(err)
			}
			return err
		}
		version = next
		return nil
	}

	if t.retryIf == nil || t.attempts == 0 {
		if err := attempt(ctx); err != nil {
			return 0, err
		}
	} else {
		backoff := retry.WithMaxRetries(t.attempts, retry.NewExponential(t.retryBase))
		if err := retry.Do(ctx, backoff, attempt); err != nil {
			return 0, fmt.Errorf("mark reviewed: %w", err)
		}
	}

	t.logger.Info("status.review.recorded", "page_id", pageID, "node_id", nodeID, "locale", locale, "version", version)
	return version, nil
}
