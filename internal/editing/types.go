package editing

import (
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-composer/internal/localesync"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/pages"
)

// CreatePageRequest creates a page together with its first locale.
type CreatePageRequest struct {
	Slug   string
	Locale string
	Tree   *nodes.Tree
	SEO    pages.SEO
}

func (r CreatePageRequest) validate(locales []string) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Slug, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Locale, validation.Required, validation.In(toAny(locales)...).Error("locale is not configured")),
		validation.Field(&r.Tree, validation.NotNil),
	)
}

// SaveRequest is one editor save. Version is the token returned by LoadTree;
// a nil SEO keeps the stored metadata of the locale.
type SaveRequest struct {
	PageID   uuid.UUID
	Locale   string
	Tree     *nodes.Tree
	Version  int64
	Strategy localesync.Strategy
	SEO      *pages.SEO
}

func (r SaveRequest) validate(locales []string) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageID, validation.By(requiredUUID)),
		validation.Field(&r.Locale, validation.Required, validation.In(toAny(locales)...).Error("locale is not configured")),
		validation.Field(&r.Tree, validation.NotNil),
		validation.Field(&r.Version, validation.Min(int64(1))),
	)
}

// SaveResult reports what a save wrote.
type SaveResult struct {
	PageID              uuid.UUID
	Version             int64
	Operations          int
	Changed             []string
	Created             []string
	TranslationFailures []localesync.TranslationFailure
}

// PublishResult reports a publish or unpublish.
type PublishResult struct {
	PageID      uuid.UUID
	Status      string
	Version     int64
	PublishedAt *time.Time
}

// LiveContent is a published locale as served to renderers. UnknownTypes
// lists component types the registry does not know; renderers must skip them.
type LiveContent struct {
	pages.Content
	UnknownTypes []string
}

func requiredUUID(value any) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func normalizeLocales(locales []string) []string {
	out := make([]string, 0, len(locales))
	for _, locale := range locales {
		if locale = strings.TrimSpace(locale); locale != "" && !slices.Contains(out, locale) {
			out = append(out, locale)
		}
	}
	return out
}
