package pagescmd

import (
	"errors"

	"github.com/goliatone/go-cms-composer/internal/commands"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the page command handlers.
type HandlerSet struct {
	Create       *CreatePageHandler
	Save         *SaveEditHandler
	Publish      *PublishPageHandler
	Unpublish    *UnpublishPageHandler
	MarkReviewed *MarkReviewedHandler
	Delete       *DeletePageHandler
}

// Handlers lists the set in registration order.
func (s *HandlerSet) Handlers() []any {
	return []any{s.Create, s.Save, s.Publish, s.Unpublish, s.MarkReviewed, s.Delete}
}

// RegisterPageCommands builds the page handlers and registers them with reg
// when it is non-nil.
func RegisterPageCommands(reg CommandRegistry, service PageService, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("page command registration: service is nil")
	}

	logger := commands.CommandLogger(provider, "pages")
	set := &HandlerSet{
		Create:       NewCreatePageHandler(service, logger),
		Save:         NewSaveEditHandler(service, logger),
		Publish:      NewPublishPageHandler(service, logger),
		Unpublish:    NewUnpublishPageHandler(service, logger),
		MarkReviewed: NewMarkReviewedHandler(service, logger),
		Delete:       NewDeletePageHandler(service, logger),
	}

	if reg != nil {
		for _, handler := range set.Handlers() {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
