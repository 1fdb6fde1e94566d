package editing

import (
	"errors"

	"github.com/goliatone/go-cms-composer/internal/pages"
)

var (
	// ErrNothingToPublish reports a page without any locale content.
	ErrNothingToPublish = errors.New("editing: page has no content to publish")
	ErrSlugInvalid      = errors.New("editing: slug is invalid")
)

// IsRetryable reports whether the caller should re-read and retry.
func IsRetryable(err error) bool {
	return pages.IsConflict(err)
}
