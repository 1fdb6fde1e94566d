package pagescmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-composer/internal/editing"
	"github.com/goliatone/go-cms-composer/internal/localesync"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/pages"
)

const (
	createPageMessageType   = "composer.pages.create"
	saveEditMessageType     = "composer.pages.save"
	publishPageMessageType  = "composer.pages.publish"
	unpublishMessageType    = "composer.pages.unpublish"
	markReviewedMessageType = "composer.pages.mark_reviewed"
	deletePageMessageType   = "composer.pages.delete"
)

// CreatePageCommand creates a page with its first locale. When Result is
// set the created page is written to it.
type CreatePageCommand struct {
	Slug   string      `json:"slug"`
	Locale string      `json:"locale"`
	Tree   *nodes.Tree `json:"-"`
	SEO    pages.SEO   `json:"seo"`

	Result *pages.Page `json:"-"`
}

// Type implements command.Message.
func (CreatePageCommand) Type() string { return createPageMessageType }

// Validate implements command.Message.
func (m CreatePageCommand) Validate() error {
	errs := validation.Errors{}
	if m.Slug == "" {
		errs["slug"] = validation.NewError("composer.pages.create.slug_required", "slug is required")
	}
	if m.Locale == "" {
		errs["locale"] = validation.NewError("composer.pages.create.locale_required", "locale is required")
	}
	if m.Tree == nil {
		errs["tree"] = validation.NewError("composer.pages.create.tree_required", "tree is required")
	}
	return filterErrors(errs)
}

// SaveEditCommand saves an edited locale tree and syncs the sibling locales.
type SaveEditCommand struct {
	PageID   uuid.UUID           `json:"page_id"`
	Locale   string              `json:"locale"`
	Tree     *nodes.Tree         `json:"-"`
	Version  int64               `json:"version"`
	Strategy localesync.Strategy `json:"strategy,omitempty"`
	SEO      *pages.SEO          `json:"seo,omitempty"`

	Result *editing.SaveResult `json:"-"`
}

// Type implements command.Message.
func (SaveEditCommand) Type() string { return saveEditMessageType }

// Validate implements command.Message.
func (m SaveEditCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("composer.pages.save.page_id_required", "page_id is required")
	}
	if m.Locale == "" {
		errs["locale"] = validation.NewError("composer.pages.save.locale_required", "locale is required")
	}
	if m.Tree == nil {
		errs["tree"] = validation.NewError("composer.pages.save.tree_required", "tree is required")
	}
	if m.Version <= 0 {
		errs["version"] = validation.NewError("composer.pages.save.version_invalid", "version must be greater than zero")
	}
	if m.Strategy != "" {
		if _, err := localesync.ParseStrategy(string(m.Strategy)); err != nil {
			errs["strategy"] = validation.NewError("composer.pages.save.strategy_invalid", "strategy must be structure-only or full-override")
		}
	}
	return filterErrors(errs)
}

// PublishPageCommand copies every draft locale to the live snapshot.
type PublishPageCommand struct {
	PageID uuid.UUID `json:"page_id"`

	Result *editing.PublishResult `json:"-"`
}

// Type implements command.Message.
func (PublishPageCommand) Type() string { return publishPageMessageType }

// Validate implements command.Message.
func (m PublishPageCommand) Validate() error {
	return requirePageID(m.PageID, publishPageMessageType)
}

// UnpublishPageCommand removes the live snapshot.
type UnpublishPageCommand struct {
	PageID uuid.UUID `json:"page_id"`

	Result *editing.PublishResult `json:"-"`
}

// Type implements command.Message.
func (UnpublishPageCommand) Type() string { return unpublishMessageType }

// Validate implements command.Message.
func (m UnpublishPageCommand) Validate() error {
	return requirePageID(m.PageID, unpublishMessageType)
}

// MarkReviewedCommand clears the auto-translated flag of a node in a locale.
type MarkReviewedCommand struct {
	PageID uuid.UUID `json:"page_id"`
	NodeID string    `json:"node_id"`
	Locale string    `json:"locale"`
}

// Type implements command.Message.
func (MarkReviewedCommand) Type() string { return markReviewedMessageType }

// Validate implements command.Message.
func (m MarkReviewedCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("composer.pages.mark_reviewed.page_id_required", "page_id is required")
	}
	if m.NodeID == "" {
		errs["node_id"] = validation.NewError("composer.pages.mark_reviewed.node_id_required", "node_id is required")
	}
	if m.Locale == "" {
		errs["locale"] = validation.NewError("composer.pages.mark_reviewed.locale_required", "locale is required")
	}
	return filterErrors(errs)
}

// DeletePageCommand removes a page with all of its locales.
type DeletePageCommand struct {
	PageID uuid.UUID `json:"page_id"`
}

// Type implements command.Message.
func (DeletePageCommand) Type() string { return deletePageMessageType }

// Validate implements command.Message.
func (m DeletePageCommand) Validate() error {
	return requirePageID(m.PageID, deletePageMessageType)
}

func requirePageID(id uuid.UUID, prefix string) error {
	if id != uuid.Nil {
		return nil
	}
	return validation.Errors{
		"page_id": validation.NewError(prefix+".page_id_required", "page_id is required"),
	}
}

func filterErrors(errs validation.Errors) error {
	if len(errs) > 0 {
		return errs
	}
	return nil
}
