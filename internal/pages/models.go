package pages

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Page is the identity root shared by every locale of a page.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID            uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	Slug          string     `bun:"slug,notnull,unique" json:"slug"`
	Status        string     `bun:"status,notnull" json:"status"`
	DefaultLocale string     `bun:"default_locale,notnull" json:"default_locale"`
	Version       int64      `bun:"version,notnull" json:"version"`
	PublishedAt   *time.Time `bun:"published_at,nullzero" json:"published_at,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Clone returns a copy safe to hand to callers.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	cloned := *p
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		cloned.PublishedAt = &at
	}
	return &cloned
}

// LocaleContent is the draft row for one (page, locale). Tree holds the wire
// encoding of the node map.
type LocaleContent struct {
	bun.BaseModel `bun:"table:locale_contents,alias:lc"`

	ID             uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID         uuid.UUID `bun:"page_id,notnull,type:uuid" json:"page_id"`
	Locale         string    `bun:"locale,notnull" json:"locale"`
	Tree           string    `bun:"tree,notnull" json:"tree"`
	SEOTitle       string    `bun:"seo_title" json:"seo_title"`
	SEODescription string    `bun:"seo_description" json:"seo_description"`
	FeaturedImage  string    `bun:"featured_image" json:"featured_image"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// LiveContent is the published snapshot of a LocaleContent.
type LiveContent struct {
	bun.BaseModel `bun:"table:live_contents,alias:lv"`

	ID             uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID         uuid.UUID `bun:"page_id,notnull,type:uuid" json:"page_id"`
	Locale         string    `bun:"locale,notnull" json:"locale"`
	Tree           string    `bun:"tree,notnull" json:"tree"`
	SEOTitle       string    `bun:"seo_title" json:"seo_title"`
	SEODescription string    `bun:"seo_description" json:"seo_description"`
	FeaturedImage  string    `bun:"featured_image" json:"featured_image"`
	PublishedAt    time.Time `bun:"published_at,notnull" json:"published_at"`
}

// BlockTranslationMeta persists translationstatus.BlockMeta for one node.
type BlockTranslationMeta struct {
	bun.BaseModel `bun:"table:block_translation_meta,alias:btm"`

	ID               uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	PageID           uuid.UUID  `bun:"page_id,notnull,type:uuid" json:"page_id"`
	NodeID           string     `bun:"node_id,notnull" json:"node_id"`
	DefaultLocale    string     `bun:"default_locale,notnull" json:"default_locale"`
	AutoTranslated   []string   `bun:"auto_translated,type:text" json:"auto_translated"`
	ManuallyReviewed []string   `bun:"manually_reviewed,type:text" json:"manually_reviewed"`
	Failed           []string   `bun:"failed,type:text" json:"failed"`
	LastTranslatedAt *time.Time `bun:"last_translated_at,nullzero" json:"last_translated_at,omitempty"`
}
