package pages

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-composer/internal/identity"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/translationstatus"
)

// SEO is the per-locale page metadata stored next to the tree.
type SEO struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	FeaturedImage string `json:"featured_image,omitempty"`
}

// Content is one locale of a page in decoded form.
type Content struct {
	Locale    string
	Tree      *nodes.Tree
	SEO       SEO
	UpdatedAt time.Time
}

// State is everything stored for a page, read at Page.Version.
type State struct {
	Page     *Page
	Contents map[string]Content
	Meta     translationstatus.PageMeta
}

// Trees returns the tree of every stored locale.
func (s State) Trees() map[string]*nodes.Tree {
	out := make(map[string]*nodes.Tree, len(s.Contents))
	for locale, content := range s.Contents {
		out[locale] = content.Tree
	}
	return out
}

// Snapshot adapts the state for the translation status tracker.
func (s State) Snapshot() translationstatus.Snapshot {
	snapshot := translationstatus.Snapshot{
		Trees: s.Trees(),
		Meta:  s.Meta,
	}
	if s.Page != nil {
		snapshot.PageID = s.Page.ID
		snapshot.DefaultLocale = s.Page.DefaultLocale
		snapshot.Version = s.Page.Version
	}
	return snapshot
}

// WriteSet is one atomic save. Contents replaces the listed locales wholesale;
// a nil Meta leaves the stored metadata untouched, otherwise it replaces it.
type WriteSet struct {
	Contents map[string]Content
	Meta     translationstatus.PageMeta
}

// Locales returns the written locales in sorted order.
func (w WriteSet) Locales() []string {
	return slices.Sorted(maps.Keys(w.Contents))
}

// Repository is the persistence gateway. Every write takes the version token
// the caller read and fails with *ConflictError when it is stale; a successful
// write returns the next token.
type Repository interface {
	CreatePage(ctx context.Context, page *Page, content Content) (*Page, error)
	GetPage(ctx context.Context, id uuid.UUID) (*Page, error)
	GetPageBySlug(ctx context.Context, slug string) (*Page, error)
	ListPages(ctx context.Context) ([]*Page, error)
	DeletePage(ctx context.Context, id uuid.UUID) error

	ReadTree(ctx context.Context, id uuid.UUID, locale string) (Content, int64, error)
	ReadAll(ctx context.Context, id uuid.UUID) (State, error)
	LoadSnapshot(ctx context.Context, id uuid.UUID) (translationstatus.Snapshot, error)
	WriteAll(ctx context.Context, id uuid.UUID, set WriteSet, expectedVersion int64) (int64, error)
	SaveMeta(ctx context.Context, id uuid.UUID, meta translationstatus.PageMeta, expectedVersion int64) (int64, error)

	Publish(ctx context.Context, id uuid.UUID, expectedVersion int64, at time.Time) (int64, error)
	Unpublish(ctx context.Context, id uuid.UUID, expectedVersion int64) (int64, error)
	ReadLive(ctx context.Context, id uuid.UUID, locale string) (Content, error)
}

var _ translationstatus.Store = Repository(nil)

func encodeContent(pageID uuid.UUID, content Content, now time.Time) (*LocaleContent, error) {
	if content.Tree == nil {
		return nil, fmt.Errorf("pages: locale %s has no tree", content.Locale)
	}
	payload, err := nodes.Serialize(content.Tree)
	if err != nil {
		return nil, err
	}
	locale := strings.TrimSpace(content.Locale)
	updated := content.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	return &LocaleContent{
		ID:             identity.LocaleContentUUID(pageID, locale),
		PageID:         pageID,
		Locale:         locale,
		Tree:           string(payload),
		SEOTitle:       content.SEO.Title,
		SEODescription: content.SEO.Description,
		FeaturedImage:  content.SEO.FeaturedImage,
		UpdatedAt:      updated.UTC(),
	}, nil
}

func decodeContent(row *LocaleContent) (Content, error) {
	tree, err := nodes.Deserialize([]byte(row.Tree))
	if err != nil {
		return Content{}, fmt.Errorf("pages: stored tree %s/%s: %w", row.PageID, row.Locale, err)
	}
	return Content{
		Locale: row.Locale,
		Tree:   tree,
		SEO: SEO{
			Title:         row.SEOTitle,
			Description:   row.SEODescription,
			FeaturedImage: row.FeaturedImage,
		},
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func liveFromDraft(row *LocaleContent, at time.Time) *LiveContent {
	return &LiveContent{
		ID:             identity.LiveContentUUID(row.PageID, row.Locale),
		PageID:         row.PageID,
		Locale:         row.Locale,
		Tree:           row.Tree,
		SEOTitle:       row.SEOTitle,
		SEODescription: row.SEODescription,
		FeaturedImage:  row.FeaturedImage,
		PublishedAt:    at.UTC(),
	}
}

func decodeLive(row *LiveContent) (Content, error) {
	return decodeContent(&LocaleContent{
		PageID:         row.PageID,
		Locale:         row.Locale,
		Tree:           row.Tree,
		SEOTitle:       row.SEOTitle,
		SEODescription: row.SEODescription,
		FeaturedImage:  row.FeaturedImage,
		UpdatedAt:      row.PublishedAt,
	})
}

func encodeMeta(pageID uuid.UUID, meta translationstatus.PageMeta) []*BlockTranslationMeta {
	rows := make([]*BlockTranslationMeta, 0, len(meta))
	for _, nodeID := range slices.Sorted(maps.Keys(meta)) {
		block := meta[nodeID]
		if block == nil {
			continue
		}
		row := &BlockTranslationMeta{
			ID:               identity.BlockMetaUUID(pageID, nodeID),
			PageID:           pageID,
			NodeID:           nodeID,
			DefaultLocale:    block.DefaultLocale,
			AutoTranslated:   block.AutoTranslated.Sorted(),
			ManuallyReviewed: block.ManuallyReviewed.Sorted(),
			Failed:           block.Failed.Sorted(),
		}
		if block.LastTranslatedAt != nil {
			at := block.LastTranslatedAt.UTC()
			row.LastTranslatedAt = &at
		}
		rows = append(rows, row)
	}
	return rows
}

func decodeMeta(rows []*BlockTranslationMeta) translationstatus.PageMeta {
	meta := make(translationstatus.PageMeta, len(rows))
	for _, row := range rows {
		block := &translationstatus.BlockMeta{
			NodeID:           row.NodeID,
			DefaultLocale:    row.DefaultLocale,
			AutoTranslated:   translationstatus.NewLocaleSet(row.AutoTranslated...),
			ManuallyReviewed: translationstatus.NewLocaleSet(row.ManuallyReviewed...),
			Failed:           translationstatus.NewLocaleSet(row.Failed...),
		}
		if row.LastTranslatedAt != nil {
			at := *row.LastTranslatedAt
			block.LastTranslatedAt = &at
		}
		meta[row.NodeID] = block
	}
	return meta
}
