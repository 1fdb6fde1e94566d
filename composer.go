// Package composer keeps one component tree per locale for every page and
// propagates structural edits between locales while preserving authored text.
package composer

import (
	"context"

	"github.com/google/uuid"

	pagescmd "github.com/goliatone/go-cms-composer/internal/commands/pages"
	"github.com/goliatone/go-cms-composer/internal/di"
	"github.com/goliatone/go-cms-composer/internal/editing"
	"github.com/goliatone/go-cms-composer/internal/localesync"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/pages"
	"github.com/goliatone/go-cms-composer/internal/props"
	"github.com/goliatone/go-cms-composer/internal/translationstatus"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

type (
	Node     = nodes.Node
	NodeMap  = nodes.NodeMap
	Tree     = nodes.Tree
	Page     = pages.Page
	SEO      = pages.SEO
	Content  = pages.Content
	Strategy = localesync.Strategy

	CreatePageRequest  = editing.CreatePageRequest
	SaveRequest        = editing.SaveRequest
	SaveResult         = editing.SaveResult
	PublishResult      = editing.PublishResult
	LiveContent        = editing.LiveContent
	TranslationFailure = localesync.TranslationFailure
	StatusReport       = translationstatus.Report
	Translator         = interfaces.Translator
	TranslatorFunc     = interfaces.TranslatorFunc
	Logger             = interfaces.Logger
	LoggerProvider     = interfaces.LoggerProvider

	// EditingService is the collaborator surface editors and renderers call.
	EditingService = *editing.Service
	// CommandHandlers groups the go-command handlers for page operations.
	CommandHandlers = *pagescmd.HandlerSet
)

const (
	RootID        = nodes.RootID
	StructureOnly = localesync.StructureOnly
	FullOverride  = localesync.FullOverride
)

var (
	ErrIntegrity              = nodes.ErrIntegrity
	ErrConflict               = pages.ErrConflict
	ErrPageNotFound           = pages.ErrPageNotFound
	ErrNotPublished           = pages.ErrNotPublished
	ErrPersistence            = pages.ErrPersistence
	ErrTranslationUnavailable = localesync.ErrTranslationUnavailable
)

// ErrTranslatorUnavailable is what Translator implementations return when
// they cannot serve a request.
var ErrTranslatorUnavailable = interfaces.ErrTranslationUnavailable

// Option customises the container behind a Module.
type Option = di.Option

var (
	WithLoggerProvider  = di.WithLoggerProvider
	WithBunDB           = di.WithBunDB
	WithCache           = di.WithCache
	WithTranslator      = di.WithTranslator
	WithMemoStore       = di.WithMemoStore
	WithWorkflowEngine  = di.WithWorkflowEngine
	WithCommandRegistry = di.WithCommandRegistry
	WithClock           = di.WithClock
)

// ValidateTree checks a node map and returns the immutable tree.
func ValidateTree(m NodeMap) (*Tree, error) {
	return nodes.Validate(m)
}

// ParseTree decodes the wire format used by editors.
func ParseTree(data []byte) (*Tree, error) {
	return nodes.Deserialize(data)
}

// SerializeTree encodes a tree in the wire format.
func SerializeTree(tree *Tree) ([]byte, error) {
	return nodes.Serialize(tree)
}

// IsRetryable reports whether a save or transition should be retried after
// reloading the page.
func IsRetryable(err error) bool {
	return editing.IsRetryable(err)
}

// Module represents the top level composer runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a composer module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Close releases database and cache connections the module opened.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Editing returns the editing service.
func (m *Module) Editing() EditingService {
	return m.container.EditingService()
}

// Commands returns the page command handlers.
func (m *Module) Commands() CommandHandlers {
	return m.container.Commands()
}

// Components returns the component registry used to classify props.
func (m *Module) Components() *props.Registry {
	return m.container.Registry()
}

// Locales returns the configured site locales.
func (m *Module) Locales() []string {
	return m.container.EditingService().Locales()
}

// CreatePage creates a draft page with its first locale.
func (m *Module) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	return m.Editing().CreatePage(ctx, req)
}

// LoadTree returns a locale tree with the page version to save against.
func (m *Module) LoadTree(ctx context.Context, pageID uuid.UUID, locale string) (Content, int64, error) {
	return m.Editing().LoadTree(ctx, pageID, locale)
}

// SaveEdit stores an edited locale and propagates the change to sibling locales.
func (m *Module) SaveEdit(ctx context.Context, req SaveRequest) (SaveResult, error) {
	return m.Editing().SaveEdit(ctx, req)
}

// Publish snapshots every locale as live content.
func (m *Module) Publish(ctx context.Context, pageID uuid.UUID) (PublishResult, error) {
	return m.Editing().Publish(ctx, pageID)
}

// Unpublish removes the live snapshot.
func (m *Module) Unpublish(ctx context.Context, pageID uuid.UUID) (PublishResult, error) {
	return m.Editing().Unpublish(ctx, pageID)
}

// ReadLive returns the published content of a locale.
func (m *Module) ReadLive(ctx context.Context, pageID uuid.UUID, locale string) (LiveContent, error) {
	return m.Editing().ReadLive(ctx, pageID, locale)
}

// TranslationStatus reports the per-locale translation state of a page.
func (m *Module) TranslationStatus(ctx context.Context, pageID uuid.UUID) (StatusReport, error) {
	return m.Editing().TranslationStatus(ctx, pageID)
}

// MarkReviewed clears the needs-review flag of a node in a locale.
func (m *Module) MarkReviewed(ctx context.Context, pageID uuid.UUID, nodeID, locale string) (int64, error) {
	return m.Editing().MarkReviewed(ctx, pageID, nodeID, locale)
}

// DeletePage removes a page with all locales, live content and metadata.
func (m *Module) DeletePage(ctx context.Context, pageID uuid.UUID) error {
	return m.Editing().DeletePage(ctx, pageID)
}
