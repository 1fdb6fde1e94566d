// Package editing is the entry point editors and renderers use for pages.
// Every save is validated, diffed and propagated to sibling locales before a
// single versioned write.
package editing

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/goliatone/go-cms-composer/internal/localesync"
	"github.com/goliatone/go-cms-composer/internal/logging"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/pages"
	"github.com/goliatone/go-cms-composer/internal/props"
	"github.com/goliatone/go-cms-composer/internal/translationstatus"
	"github.com/goliatone/go-cms-composer/internal/treediff"
	"github.com/goliatone/go-cms-composer/internal/workflow"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

// Config carries the site settings the service needs.
type Config struct {
	Locales         []string
	DefaultStrategy localesync.Strategy
	UnknownProps    props.Policy
	ConflictRetries uint64
}

// Service implements the editing operations.
type Service struct {
	repo       pages.Repository
	registry   *props.Registry
	differ     *treediff.Differ
	engine     *localesync.Engine
	tracker    *translationstatus.Tracker
	workflow   interfaces.WorkflowEngine
	translator interfaces.Translator
	locales    []string
	strategy   localesync.Strategy
	policy     props.Policy
	retries    uint64
	retryBase  time.Duration
	now        func() time.Time
	logger     interfaces.Logger
}

// Option configures the service.
type Option func(*Service)

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWorkflow replaces the default publish state machine.
func WithWorkflow(engine interfaces.WorkflowEngine) Option {
	return func(s *Service) {
		if engine != nil {
			s.workflow = engine
		}
	}
}

// WithTracker replaces the default status tracker.
func WithTracker(tracker *translationstatus.Tracker) Option {
	return func(s *Service) {
		if tracker != nil {
			s.tracker = tracker
		}
	}
}

// NewService wires the service. translator is used for page metadata of
// locales created by sync; engine uses its own.
func NewService(repo pages.Repository, registry *props.Registry, engine *localesync.Engine, translator interfaces.Translator, cfg Config, opts ...Option) *Service {
	if registry == nil {
		registry = props.Default()
	}
	s := &Service{
		repo:       repo,
		registry:   registry,
		differ:     treediff.New(registry),
		engine:     engine,
		translator: translator,
		locales:    normalizeLocales(cfg.Locales),
		strategy:   cfg.DefaultStrategy,
		policy:     cfg.UnknownProps,
		retries:    cfg.ConflictRetries,
		retryBase:  10 * time.Millisecond,
		now:        time.Now,
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.engine == nil {
		s.engine = localesync.NewEngine(registry, translator, localesync.WithLogger(s.logger))
	}
	if s.translator == nil {
		s.translator = interfaces.TranslatorFunc(func(context.Context, string, string, string) (string, error) {
			return "", localesync.ErrTranslationUnavailable
		})
	}
	if s.workflow == nil {
		s.workflow = workflow.New(workflow.WithClock(s.now))
	}
	if s.tracker == nil {
		s.tracker = translationstatus.NewTracker(repo, s.locales,
			translationstatus.WithLogger(s.logger),
			translationstatus.WithConflictRetry(pages.IsConflict, s.retries, s.retryBase),
		)
	}
	return s
}

// Locales returns the configured site locales.
func (s *Service) Locales() []string {
	return slices.Clone(s.locales)
}

// CreatePage stores a new draft page with its first locale.
func (s *Service) CreatePage(ctx context.Context, req CreatePageRequest) (*pages.Page, error) {
	req.Locale = strings.TrimSpace(req.Locale)
	if err := req.validate(s.locales); err != nil {
		return nil, err
	}
	normalized, err := slug.Normalize(req.Slug)
	if err != nil || normalized == "" {
		return nil, fmt.Errorf("%w: %q", ErrSlugInvalid, req.Slug)
	}
	if err := s.registry.Check(req.Tree, s.policy); err != nil {
		return nil, err
	}

	page, err := s.repo.CreatePage(ctx, &pages.Page{
		Slug:          normalized,
		Status:        string(workflow.StateDraft),
		DefaultLocale: req.Locale,
	}, pages.Content{Locale: req.Locale, Tree: req.Tree, SEO: req.SEO})
	if err != nil {
		return nil, err
	}
	logging.WithPage(s.logger, page.ID.String(), req.Locale).Info("editing.page.created", "slug", page.Slug)
	return page, nil
}

// LoadTree returns the draft of locale and the version token to save against.
func (s *Service) LoadTree(ctx context.Context, pageID uuid.UUID, locale string) (pages.Content, int64, error) {
	return s.repo.ReadTree(ctx, pageID, strings.TrimSpace(locale))
}

// SaveEdit validates the edited tree, diffs it against the stored baseline of
// the same locale, propagates the diff to every other locale and writes all
// locales in one versioned transaction.
func (s *Service) SaveEdit(ctx context.Context, req SaveRequest) (SaveResult, error) {
	req.Locale = strings.TrimSpace(req.Locale)
	if err := req.validate(s.locales); err != nil {
		return SaveResult{}, err
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = s.strategy
	}
	strategy, err := localesync.ParseStrategy(string(strategy))
	if err != nil {
		return SaveResult{}, err
	}
	logger := logging.WithPage(s.logger, req.PageID.String(), req.Locale).WithContext(ctx)

	if err := s.registry.Check(req.Tree, s.policy); err != nil {
		logger.Warn("editing.save.rejected", "error", err)
		return SaveResult{}, err
	}

	state, err := s.repo.ReadAll(ctx, req.PageID)
	if err != nil {
		return SaveResult{}, err
	}
	if state.Page.Version != req.Version {
		logger.Info("editing.save.conflict", "expected", req.Version, "actual", state.Page.Version)
		return SaveResult{}, &pages.ConflictError{PageID: req.PageID, Expected: req.Version, Actual: state.Page.Version}
	}

	baseline := req.Tree
	if stored, ok := state.Contents[req.Locale]; ok {
		baseline = stored.Tree
	} else if baseline, err = treediff.Bare(req.Tree); err != nil {
		return SaveResult{}, err
	}
	diff, err := s.differ.Diff(baseline, req.Tree)
	if err != nil {
		logger.Warn("editing.save.rejected", "error", err)
		return SaveResult{}, err
	}

	targets := make(map[string]*nodes.Tree, len(s.locales)+len(state.Contents))
	for _, locale := range s.locales {
		targets[locale] = nil
	}
	for locale, content := range state.Contents {
		targets[locale] = content.Tree
	}
	delete(targets, req.Locale)

	result, err := s.engine.Propagate(ctx, localesync.Request{
		SourceLocale: req.Locale,
		Source:       req.Tree,
		Diff:         diff,
		Targets:      targets,
		Meta:         state.Meta,
		Strategy:     strategy,
	})
	if err != nil {
		return SaveResult{}, err
	}

	sourceSEO := state.Contents[req.Locale].SEO
	if req.SEO != nil {
		sourceSEO = *req.SEO
	}
	set := pages.WriteSet{
		Contents: map[string]pages.Content{
			req.Locale: {Locale: req.Locale, Tree: req.Tree, SEO: sourceSEO},
		},
		Meta: result.Meta,
	}
	failures := slices.Clone(result.Failures)
	for _, locale := range result.Changed {
		content := pages.Content{Locale: locale, Tree: result.Trees[locale], SEO: state.Contents[locale].SEO}
		if slices.Contains(result.Created, locale) {
			seo, seoFailures, err := s.translateSEO(ctx, sourceSEO, req.Locale, locale)
			if err != nil {
				return SaveResult{}, err
			}
			content.SEO = seo
			failures = append(failures, seoFailures...)
		}
		set.Contents[locale] = content
	}

	version, err := s.repo.WriteAll(ctx, req.PageID, set, req.Version)
	if err != nil {
		if pages.IsConflict(err) {
			logger.Info("editing.save.conflict", "expected", req.Version, "error", err)
		} else {
			logger.Error("editing.save.failed", "error", err)
		}
		return SaveResult{}, err
	}

	logger.Info("editing.save.committed",
		"version", version,
		"strategy", string(strategy),
		"ops", len(diff.Ops),
		"changed", result.Changed,
		"created", result.Created,
		"translation_failures", len(failures),
	)
	return SaveResult{
		PageID:              req.PageID,
		Version:             version,
		Operations:          len(diff.Ops),
		Changed:             slices.Clone(result.Changed),
		Created:             slices.Clone(result.Created),
		TranslationFailures: failures,
	}, nil
}

// translateSEO fills the text metadata of a newly created locale. The featured
// image is a shared resource and is copied as is.
func (s *Service) translateSEO(ctx context.Context, source pages.SEO, from, to string) (pages.SEO, []localesync.TranslationFailure, error) {
	out := pages.SEO{FeaturedImage: source.FeaturedImage}
	var failures []localesync.TranslationFailure
	fields := []struct {
		name   string
		source string
		target *string
	}{
		{"seo_title", source.Title, &out.Title},
		{"seo_description", source.Description, &out.Description},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.source) == "" {
			continue
		}
		translated, err := s.translator.Translate(ctx, field.source, from, to)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return pages.SEO{}, nil, ctxErr
			}
			failures = append(failures, localesync.TranslationFailure{Locale: to, Prop: field.name, Err: err})
			continue
		}
		*field.target = translated
	}
	return out, failures, nil
}

// Publish validates every stored locale and copies the drafts to the live
// snapshot. Publishing a published page refreshes the snapshot.
func (s *Service) Publish(ctx context.Context, pageID uuid.UUID) (PublishResult, error) {
	return s.transition(ctx, pageID, workflow.TransitionPublish, func(state pages.State) error {
		if len(state.Contents) == 0 {
			return ErrNothingToPublish
		}
		return nil
	})
}

// Unpublish takes a published page offline and drops its live snapshot.
func (s *Service) Unpublish(ctx context.Context, pageID uuid.UUID) (PublishResult, error) {
	return s.transition(ctx, pageID, workflow.TransitionUnpublish, nil)
}

func (s *Service) transition(ctx context.Context, pageID uuid.UUID, name string, guard func(pages.State) error) (PublishResult, error) {
	logger := logging.WithPage(s.logger, pageID.String(), "").WithContext(ctx)
	var out PublishResult
	attempt := func(ctx context.Context) error {
		// ReadAll decodes and validates every stored tree, so a page with a
		// corrupt locale never reaches the live snapshot.
		state, err := s.repo.ReadAll(ctx, pageID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(state); err != nil {
				return err
			}
		}
		res, err := s.workflow.Transition(ctx, interfaces.TransitionInput{
			EntityID:     pageID.String(),
			EntityType:   workflow.EntityTypePage,
			CurrentState: interfaces.WorkflowState(state.Page.Status),
			Transition:   name,
		})
		if err != nil {
			return err
		}

		var version int64
		var publishedAt *time.Time
		switch res.ToState {
		case workflow.StatePublished:
			at := res.CompletedAt.UTC()
			version, err = s.repo.Publish(ctx, pageID, state.Page.Version, at)
			publishedAt = &at
		default:
			version, err = s.repo.Unpublish(ctx, pageID, state.Page.Version)
		}
		if err != nil {
			if pages.IsConflict(err) {
				logger.Debug("editing.transition.retry", "transition", name)
				return retry.RetryableError(err)
			}
			return err
		}
		out = PublishResult{PageID: pageID, Status: string(res.ToState), Version: version, PublishedAt: publishedAt}
		return nil
	}

	var err error
	if s.retries == 0 {
		err = attempt(ctx)
	} else {
		err = retry.Do(ctx, retry.WithMaxRetries(s.retries, retry.NewExponential(s.retryBase)), attempt)
	}
	if err != nil {
		logger.Warn("editing.transition.failed", "transition", name, "error", err)
		return PublishResult{}, err
	}
	logger.Info("editing.transition.completed", "transition", name, "status", out.Status, "version", out.Version)
	return out, nil
}

// ReadLive returns the published snapshot of locale.
func (s *Service) ReadLive(ctx context.Context, pageID uuid.UUID, locale string) (LiveContent, error) {
	content, err := s.repo.ReadLive(ctx, pageID, strings.TrimSpace(locale))
	if err != nil {
		return LiveContent{}, err
	}
	unknown := map[string]struct{}{}
	for _, id := range content.Tree.IDs() {
		if typ := content.Tree.Type(id); !s.registry.Known(typ) {
			unknown[typ] = struct{}{}
		}
	}
	live := LiveContent{Content: content, UnknownTypes: slices.Sorted(maps.Keys(unknown))}
	if len(live.UnknownTypes) > 0 {
		logging.WithPage(s.logger, pageID.String(), locale).Warn("editing.live.unknown_types", "types", live.UnknownTypes)
	}
	return live, nil
}

// TranslationStatus reports per-locale, per-node translation state.
func (s *Service) TranslationStatus(ctx context.Context, pageID uuid.UUID) (translationstatus.Report, error) {
	return s.tracker.Report(ctx, pageID)
}

// MissingLocales lists configured locales the page has no content for.
func (s *Service) MissingLocales(ctx context.Context, pageID uuid.UUID) ([]string, error) {
	return s.tracker.MissingLocales(ctx, pageID)
}

// NeedsReview lists auto-translated nodes of locale awaiting review.
func (s *Service) NeedsReview(ctx context.Context, pageID uuid.UUID, locale string) ([]string, error) {
	return s.tracker.NeedsReview(ctx, pageID, strings.TrimSpace(locale))
}

// MarkReviewed records a human review and returns the new version token.
func (s *Service) MarkReviewed(ctx context.Context, pageID uuid.UUID, nodeID, locale string) (int64, error) {
	return s.tracker.MarkReviewed(ctx, pageID, strings.TrimSpace(nodeID), strings.TrimSpace(locale))
}

// DeletePage removes the page and every locale row.
func (s *Service) DeletePage(ctx context.Context, pageID uuid.UUID) error {
	if err := s.repo.DeletePage(ctx, pageID); err != nil {
		return err
	}
	logging.WithPage(s.logger, pageID.String(), "").Info("editing.page.deleted")
	return nil
}

// IsIntegrityError reports a malformed or rejected tree.
func IsIntegrityError(err error) bool {
	return errors.Is(err, nodes.ErrIntegrity)
}
