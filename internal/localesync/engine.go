package localesync

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-cms-composer/internal/logging"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/props"
	"github.com/goliatone/go-cms-composer/internal/translationstatus"
	"github.com/goliatone/go-cms-composer/internal/treediff"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

// Request describes one propagation. Diff turns the source locale's baseline
// into Source. A nil entry in Targets is a locale with no content yet.
type Request struct {
	SourceLocale string
	Source       *nodes.Tree
	Diff         treediff.Diff
	Targets      map[string]*nodes.Tree
	Meta         translationstatus.PageMeta
	Strategy     Strategy
}

// Result holds every target tree after propagation. Inputs are never mutated;
// Trees reuses the input pointer for locales nothing touched.
type Result struct {
	Trees    map[string]*nodes.Tree
	Changed  []string
	Created  []string
	Meta     translationstatus.PageMeta
	Failures []TranslationFailure
}

// Engine propagates structural diffs across locales.
type Engine struct {
	classifier props.Classifier
	translator interfaces.Translator
	workers    int
	now        func() time.Time
	logger     interfaces.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds how many locales are processed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClock overrides the timestamp source used for translation metadata.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine builds an engine. A nil classifier uses the default registry and
// a nil translator fails every translation.
func NewEngine(classifier props.Classifier, translator interfaces.Translator, opts ...Option) *Engine {
	if classifier == nil {
		classifier = props.Default()
	}
	if translator == nil {
		translator = interfaces.TranslatorFunc(func(context.Context, string, string, string) (string, error) {
			return "", interfaces.ErrTranslationUnavailable
		})
	}
	e := &Engine{
		classifier: classifier,
		translator: translator,
		workers:    4,
		now:        time.Now,
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

type outcome struct {
	locale   string
	tree     *nodes.Tree
	changed  bool
	created  bool
	records  []record
	failures []TranslationFailure
}

type record struct {
	nodeID string
	failed bool
}

// Propagate applies req to every target locale. Any target that fails
// validation, or a cancelled context, rejects the whole propagation and
// returns an error with no partial result. Translator failures are absorbed:
// the prop is left empty and reported in Result.Failures.
func (e *Engine) Propagate(ctx context.Context, req Request) (Result, error) {
	if req.Source == nil || req.SourceLocale == "" {
		return Result{}, ErrSourceRequired
	}
	strategy, err := ParseStrategy(string(req.Strategy))
	if err != nil {
		return Result{}, err
	}

	locales := make([]string, 0, len(req.Targets))
	for locale := range req.Targets {
		if locale != req.SourceLocale {
			locales = append(locales, locale)
		}
	}
	slices.Sort(locales)

	logger := e.logger.WithContext(ctx)
	logger.Debug("sync.propagate.start",
		"source_locale", req.SourceLocale,
		"strategy", string(strategy),
		"targets", locales,
		"ops", len(req.Diff.Ops),
	)

	outcomes := make([]outcome, len(locales))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)
	for i, locale := range locales {
		group.Go(func() error {
			out, err := e.propagateLocale(gctx, req, strategy, locale, req.Targets[locale])
			if err != nil {
				return fmt.Errorf("localesync: locale %s: %w", locale, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Warn("sync.propagate.rejected", "error", err)
		return Result{}, err
	}

	result := Result{
		Trees: make(map[string]*nodes.Tree, len(req.Targets)),
		Meta:  req.Meta.Clone(),
	}
	if tree, ok := req.Targets[req.SourceLocale]; ok {
		result.Trees[req.SourceLocale] = tree
	}
	for _, op := range req.Diff.Ops {
		if op.Kind == treediff.OpDelete {
			result.Meta.Remove(op.NodeID)
		}
	}
	for _, out := range outcomes {
		result.Trees[out.locale] = out.tree
		if out.changed {
			result.Changed = append(result.Changed, out.locale)
		}
		if out.created {
			result.Created = append(result.Created, out.locale)
		}
		for _, rec := range out.records {
			result.Meta.RecordAutoTranslation(rec.nodeID, req.SourceLocale, out.locale, e.now(), rec.failed)
		}
		result.Failures = append(result.Failures, out.failures...)
	}
	result.Meta.Retain(req.Source.Has)

	logger.Info("sync.propagate.complete",
		"source_locale", req.SourceLocale,
		"changed", result.Changed,
		"created", result.Created,
		"translation_failures", len(result.Failures),
	)
	return result, nil
}

func (e *Engine) propagateLocale(ctx context.Context, req Request, strategy Strategy, locale string, target *nodes.Tree) (outcome, error) {
	out := outcome{locale: locale, tree: target}

	diff := req.Diff
	var working nodes.NodeMap
	switch {
	case target == nil || strategy == FullOverride:
		bare, err := treediff.Bare(req.Source)
		if err != nil {
			return out, err
		}
		seed, err := treediff.Seed(e.classifier, req.Source)
		if err != nil {
			return out, err
		}
		working, diff = bare.Map(), seed
		if err := e.translateInto(ctx, working, req, locale, nodes.RootID, &out); err != nil {
			return out, err
		}
		out.created = target == nil
		out.changed = true
	case diff.Empty():
		return out, nil
	default:
		working = target.Map()
	}

	for _, op := range diff.Ops {
		applied, err := treediff.Apply(working, op, req.Source)
		if err != nil {
			return out, err
		}
		if applied.Changed {
			out.changed = true
		}
		if applied.Inserted {
			if err := e.translateInto(ctx, working, req, locale, op.NodeID, &out); err != nil {
				return out, err
			}
		}
	}
	if !out.changed {
		return out, nil
	}

	tree, err := nodes.Validate(working)
	if err != nil {
		return out, err
	}
	out.tree = tree
	e.logger.Debug("sync.locale.applied", "locale", locale, "nodes", tree.Len(), "created", out.created)
	return out, nil
}

// translateInto fills the translatable props of nodeID in working from the
// source tree. Props whose translation fails are blanked and recorded.
func (e *Engine) translateInto(ctx context.Context, working nodes.NodeMap, req Request, locale, nodeID string, out *outcome) error {
	source, ok := req.Source.Node(nodeID)
	if !ok {
		return nil
	}
	localized := props.Localized(e.classifier, source.Type, source.Props)
	if len(localized) == 0 {
		return nil
	}

	node := working[nodeID]
	node.Props = maps.Clone(node.Props)
	if node.Props == nil {
		node.Props = map[string]any{}
	}
	failed := false
	for _, name := range slices.Sorted(maps.Keys(localized)) {
		value, err := props.MapStrings(ctx, localized[name], func(ctx context.Context, text string) (string, error) {
			return e.translator.Translate(ctx, text, req.SourceLocale, locale)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			failed = true
			value = props.Blank(localized[name])
			out.failures = append(out.failures, TranslationFailure{Locale: locale, NodeID: nodeID, Prop: name, Err: err})
			e.logger.Warn("sync.translation.unavailable", "locale", locale, "node_id", nodeID, "prop", name, "error", err)
		}
		node.Props[name] = value
	}
	working[nodeID] = node
	out.records = append(out.records, record{nodeID: nodeID, failed: failed})
	return nil
}
