package commands

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-composer/internal/editing"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/pages"
	"github.com/goliatone/go-cms-composer/internal/translationstatus"
	"github.com/goliatone/go-cms-composer/internal/workflow"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"

	CodeValidationFailed  = commandValidationCode
	CodePageNotFound      = "PAGE_NOT_FOUND"
	CodeContentNotFound   = "PAGE_CONTENT_NOT_FOUND"
	CodePageConflict      = "PAGE_CONFLICT"
	CodeSlugTaken         = "PAGE_SLUG_TAKEN"
	CodeNotPublished      = "PAGE_NOT_PUBLISHED"
	CodeNothingToPublish  = "PAGE_NOTHING_TO_PUBLISH"
	CodeTreeIntegrity     = "TREE_INTEGRITY"
	CodeInvalidTransition = "WORKFLOW_INVALID_TRANSITION"
	CodeNotAutoTranslated = "TRANSLATION_NOT_AUTO"
	CodeMetaNotFound      = "TRANSLATION_META_NOT_FOUND"
	CodePersistence       = "PAGE_PERSISTENCE_FAILED"
)

type domainCode struct {
	target   error
	category goerrors.Category
	code     string
	message  string
}

// Ordered: the first matching sentinel wins.
var domainCodes = []domainCode{
	{pages.ErrConflict, goerrors.CategoryCommand, CodePageConflict, "page changed since it was read"},
	{pages.ErrPageNotFound, goerrors.CategoryCommand, CodePageNotFound, "page not found"},
	{pages.ErrContentNotFound, goerrors.CategoryCommand, CodeContentNotFound, "locale content not found"},
	{pages.ErrSlugTaken, goerrors.CategoryValidation, CodeSlugTaken, "slug already in use"},
	{pages.ErrNotPublished, goerrors.CategoryCommand, CodeNotPublished, "page is not published"},
	{editing.ErrNothingToPublish, goerrors.CategoryCommand, CodeNothingToPublish, "page has no content to publish"},
	{editing.ErrSlugInvalid, goerrors.CategoryValidation, commandValidationCode, "slug is invalid"},
	{nodes.ErrIntegrity, goerrors.CategoryValidation, CodeTreeIntegrity, "tree failed integrity checks"},
	{workflow.ErrInvalidTransition, goerrors.CategoryCommand, CodeInvalidTransition, "transition not allowed"},
	{translationstatus.ErrNotAutoTranslated, goerrors.CategoryCommand, CodeNotAutoTranslated, "locale is not auto-translated"},
	{translationstatus.ErrMetaNotFound, goerrors.CategoryCommand, CodeMetaNotFound, "node has no translation metadata"},
	{pages.ErrPersistence, goerrors.CategoryCommand, CodePersistence, "storage failure"},
}

// wrapValidationError always tags the command code. go-command already
// returns a wrapped error with its own code; Wrap clones it so the original
// category and field errors survive.
func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError tags service errors with a stable text code so callers
// can branch on the code without importing the domain packages.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapContextError(err)
	}
	for _, entry := range domainCodes {
		if errors.Is(err, entry.target) {
			return goerrors.Wrap(err, entry.category, entry.message).WithTextCode(entry.code)
		}
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return wrapValidationError(err)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}

// TextCode returns the text code attached by the handler, or "".
func TextCode(err error) string {
	var tagged *goerrors.Error
	if errors.As(err, &tagged) {
		return tagged.TextCode
	}
	return ""
}
