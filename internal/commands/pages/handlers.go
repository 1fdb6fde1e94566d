package pagescmd

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-composer/internal/commands"
	"github.com/goliatone/go-cms-composer/internal/editing"
	"github.com/goliatone/go-cms-composer/internal/pages"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

// PageService is the slice of the editing service the handlers drive.
type PageService interface {
	CreatePage(ctx context.Context, req editing.CreatePageRequest) (*pages.Page, error)
	SaveEdit(ctx context.Context, req editing.SaveRequest) (editing.SaveResult, error)
	Publish(ctx context.Context, pageID uuid.UUID) (editing.PublishResult, error)
	Unpublish(ctx context.Context, pageID uuid.UUID) (editing.PublishResult, error)
	MarkReviewed(ctx context.Context, pageID uuid.UUID, nodeID, locale string) (int64, error)
	DeletePage(ctx context.Context, pageID uuid.UUID) error
}

var _ PageService = (*editing.Service)(nil)

func pageFields(id uuid.UUID) map[string]any {
	return map[string]any{"page_id": id.String()}
}

// CreatePageHandler creates pages through the editing service.
type CreatePageHandler struct {
	inner *commands.Handler[CreatePageCommand]
}

// NewCreatePageHandler constructs the handler.
func NewCreatePageHandler(service PageService, logger interfaces.Logger, opts ...commands.HandlerOption[CreatePageCommand]) *CreatePageHandler {
	exec := func(ctx context.Context, msg CreatePageCommand) error {
		page, err := service.CreatePage(ctx, editing.CreatePageRequest{
			Slug:   msg.Slug,
			Locale: msg.Locale,
			Tree:   msg.Tree,
			SEO:    msg.SEO,
		})
		if err != nil {
			return err
		}
		if msg.Result != nil {
			*msg.Result = *page
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[CreatePageCommand]{
		commands.WithLogger[CreatePageCommand](logger),
		commands.WithOperation[CreatePageCommand]("pages.create"),
		commands.WithMessageFields(func(msg CreatePageCommand) map[string]any {
			return map[string]any{"slug": msg.Slug, "locale": msg.Locale}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CreatePageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[CreatePageCommand].
func (h *CreatePageHandler) Execute(ctx context.Context, msg CreatePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SaveEditHandler saves a locale and propagates the edit.
type SaveEditHandler struct {
	inner *commands.Handler[SaveEditCommand]
}

// NewSaveEditHandler constructs the handler.
func NewSaveEditHandler(service PageService, logger interfaces.Logger, opts ...commands.HandlerOption[SaveEditCommand]) *SaveEditHandler {
	exec := func(ctx context.Context, msg SaveEditCommand) error {
		result, err := service.SaveEdit(ctx, editing.SaveRequest{
			PageID:   msg.PageID,
			Locale:   msg.Locale,
			Tree:     msg.Tree,
			Version:  msg.Version,
			Strategy: msg.Strategy,
			SEO:      msg.SEO,
		})
		if err != nil {
			return err
		}
		if msg.Result != nil {
			*msg.Result = result
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[SaveEditCommand]{
		commands.WithLogger[SaveEditCommand](logger),
		commands.WithOperation[SaveEditCommand]("pages.save"),
		commands.WithTimeout[SaveEditCommand](commands.SaveCommandTimeout),
		commands.WithMessageFields(func(msg SaveEditCommand) map[string]any {
			fields := pageFields(msg.PageID)
			fields["locale"] = msg.Locale
			fields["version"] = msg.Version
			if msg.Strategy != "" {
				fields["strategy"] = string(msg.Strategy)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SaveEditCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SaveEditHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[SaveEditCommand].
func (h *SaveEditHandler) Execute(ctx context.Context, msg SaveEditCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PublishPageHandler publishes pages.
type PublishPageHandler struct {
	inner *commands.Handler[PublishPageCommand]
}

// NewPublishPageHandler constructs the handler.
func NewPublishPageHandler(service PageService, logger interfaces.Logger, opts ...commands.HandlerOption[PublishPageCommand]) *PublishPageHandler {
	exec := func(ctx context.Context, msg PublishPageCommand) error {
		result, err := service.Publish(ctx, msg.PageID)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			*msg.Result = result
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[PublishPageCommand]{
		commands.WithLogger[PublishPageCommand](logger),
		commands.WithOperation[PublishPageCommand]("pages.publish"),
		commands.WithMessageFields(func(msg PublishPageCommand) map[string]any { return pageFields(msg.PageID) }),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishPageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PublishPageCommand].
func (h *PublishPageHandler) Execute(ctx context.Context, msg PublishPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UnpublishPageHandler unpublishes pages.
type UnpublishPageHandler struct {
	inner *commands.Handler[UnpublishPageCommand]
}

// NewUnpublishPageHandler constructs the handler.
func NewUnpublishPageHandler(service PageService, logger interfaces.Logger, opts ...commands.HandlerOption[UnpublishPageCommand]) *UnpublishPageHandler {
	exec := func(ctx context.Context, msg UnpublishPageCommand) error {
		result, err := service.Unpublish(ctx, msg.PageID)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			*msg.Result = result
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[UnpublishPageCommand]{
		commands.WithLogger[UnpublishPageCommand](logger),
		commands.WithOperation[UnpublishPageCommand]("pages.unpublish"),
		commands.WithMessageFields(func(msg UnpublishPageCommand) map[string]any { return pageFields(msg.PageID) }),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UnpublishPageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[UnpublishPageCommand].
func (h *UnpublishPageHandler) Execute(ctx context.Context, msg UnpublishPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// MarkReviewedHandler clears review flags.
type MarkReviewedHandler struct {
	inner *commands.Handler[MarkReviewedCommand]
}

// NewMarkReviewedHandler constructs the handler.
func NewMarkReviewedHandler(service PageService, logger interfaces.Logger, opts ...commands.HandlerOption[MarkReviewedCommand]) *MarkReviewedHandler {
	exec := func(ctx context.Context, msg MarkReviewedCommand) error {
		_, err := service.MarkReviewed(ctx, msg.PageID, msg.NodeID, msg.Locale)
		return err
	}

	handlerOpts := []commands.HandlerOption[MarkReviewedCommand]{
		commands.WithLogger[MarkReviewedCommand](logger),
		commands.WithOperation[MarkReviewedCommand]("pages.mark_reviewed"),
		commands.WithMessageFields(func(msg MarkReviewedCommand) map[string]any {
			fields := pageFields(msg.PageID)
			fields["node_id"] = msg.NodeID
			fields["locale"] = msg.Locale
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &MarkReviewedHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[MarkReviewedCommand].
func (h *MarkReviewedHandler) Execute(ctx context.Context, msg MarkReviewedCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DeletePageHandler deletes pages.
type DeletePageHandler struct {
	inner *commands.Handler[DeletePageCommand]
}

// NewDeletePageHandler constructs the handler.
func NewDeletePageHandler(service PageService, logger interfaces.Logger, opts ...commands.HandlerOption[DeletePageCommand]) *DeletePageHandler {
	exec := func(ctx context.Context, msg DeletePageCommand) error {
		return service.DeletePage(ctx, msg.PageID)
	}

	handlerOpts := []commands.HandlerOption[DeletePageCommand]{
		commands.WithLogger[DeletePageCommand](logger),
		commands.WithOperation[DeletePageCommand]("pages.delete"),
		commands.WithMessageFields(func(msg DeletePageCommand) map[string]any { return pageFields(msg.PageID) }),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DeletePageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[DeletePageCommand].
func (h *DeletePageHandler) Execute(ctx context.Context, msg DeletePageCommand) error {
	return h.inner.Execute(ctx, msg)
}
