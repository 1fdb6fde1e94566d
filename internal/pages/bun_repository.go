package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-composer/internal/translationstatus"
)

// BunRepository stores pages in a SQL database. Every write runs in one
// transaction guarded by the page version.
type BunRepository struct {
	db     *bun.DB
	now    func() time.Time
	pages  repository.Repository[*Page]
	lookup repository.Repository[*Page]
}

var _ Repository = (*BunRepository)(nil)

func NewBunRepository(db *bun.DB, opts ...Option) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil, opts...)
}

// NewBunRepositoryWithCache caches slug resolution. Only the slug to id step
// goes through the cache; page rows are always read fresh because their
// version moves on every write. DeletePage evicts the slug so it can be reused.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *BunRepository {
	o := resolveOptions(opts)
	base := NewPageRepository(db)
	return &BunRepository{
		db:     db,
		now:    o.now,
		pages:  base,
		lookup: wrapWithCache(base, cacheService, keySerializer),
	}
}

func (r *BunRepository) CreatePage(ctx context.Context, page *Page, content Content) (*Page, error) {
	now := r.now().UTC()
	record := page.Clone()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	row, err := encodeContent(record.ID, content, now)
	if err != nil {
		return nil, persistenceFailure("create_page", err)
	}
	stampPage(record, now)

	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := tx.NewSelect().Model((*Page)(nil)).Where("?TableAlias.slug = ?", record.Slug).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return ErrSlugTaken
		}
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("insert page: %w", err)
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert locale content: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, persistenceFailure("create_page", err)
	}
	return record.Clone(), nil
}

func (r *BunRepository) GetPage(ctx context.Context, id uuid.UUID) (*Page, error) {
	result, err := r.pages.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "page", id.String())
	}
	return result, nil
}

func (r *BunRepository) GetPageBySlug(ctx context.Context, slug string) (*Page, error) {
	slug = strings.TrimSpace(slug)
	found, err := r.lookup.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "page", slug)
	}
	page, err := r.GetPage(ctx, found.ID)
	if err == nil && page.Slug == slug {
		return page, nil
	}
	var notFound *PageNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	// A cached id may belong to a deleted page whose slug was reused.
	fresh, err := r.pages.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "page", slug)
	}
	return r.GetPage(ctx, fresh.ID)
}

func (r *BunRepository) ListPages(ctx context.Context) ([]*Page, error) {
	records, _, err := r.pages.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.slug ASC")
	}))
	if err != nil {
		return nil, mapRepositoryError(err, "page", "")
	}
	return records, nil
}

// DeletePage removes the page row through the lookup repository so the
// cached slug resolution is dropped with it.
func (r *BunRepository) DeletePage(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := selectPage(ctx, tx, id); err != nil {
			var notFound *PageNotFoundError
			if errors.As(err, &notFound) {
				return err
			}
			return persistenceFailure("delete_page", err)
		}
		for _, model := range []any{(*BlockTranslationMeta)(nil), (*LiveContent)(nil), (*LocaleContent)(nil)} {
			if _, err := tx.NewDelete().Model(model).Where("?TableAlias.page_id = ?", id).Exec(ctx); err != nil {
				return persistenceFailure("delete_page", err)
			}
		}
		if err := r.lookup.DeleteManyTx(ctx, tx, repository.DeleteByID(id.String())); err != nil {
			return persistenceFailure("delete_page", err)
		}
		return nil
	})
}

func (r *BunRepository) ReadTree(ctx context.Context, id uuid.UUID, locale string) (Content, int64, error) {
	var (
		content Content
		version int64
	)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		page, err := selectPage(ctx, tx, id)
		if err != nil {
			return err
		}
		version = page.Version
		row := new(LocaleContent)
		err = tx.NewSelect().Model(row).
			Where("?TableAlias.page_id = ?", id).
			Where("?TableAlias.locale = ?", strings.TrimSpace(locale)).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrContentNotFound
		}
		if err != nil {
			return fmt.Errorf("select locale content: %w", err)
		}
		content, err = decodeContent(row)
		return err
	})
	if err != nil {
		return Content{}, version, err
	}
	return content, version, nil
}

func (r *BunRepository) ReadAll(ctx context.Context, id uuid.UUID) (State, error) {
	var state State
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		page, err := selectPage(ctx, tx, id)
		if err != nil {
			return err
		}
		var rows []*LocaleContent
		if err := tx.NewSelect().Model(&rows).Where("?TableAlias.page_id = ?", id).OrderExpr("?TableAlias.locale ASC").Scan(ctx); err != nil {
			return fmt.Errorf("select locale contents: %w", err)
		}
		var metaRows []*BlockTranslationMeta
		if err := tx.NewSelect().Model(&metaRows).Where("?TableAlias.page_id = ?", id).Scan(ctx); err != nil {
			return fmt.Errorf("select translation meta: %w", err)
		}
		state = State{
			Page:     page,
			Contents: make(map[string]Content, len(rows)),
			Meta:     decodeMeta(metaRows),
		}
		for _, row := range rows {
			content, err := decodeContent(row)
			if err != nil {
				return err
			}
			state.Contents[row.Locale] = content
		}
		return nil
	})
	if err != nil {
		return State{}, err
	}
	return state, nil
}

func (r *BunRepository) LoadSnapshot(ctx context.Context, id uuid.UUID) (translationstatus.Snapshot, error) {
	state, err := r.ReadAll(ctx, id)
	if err != nil {
		return translationstatus.Snapshot{}, err
	}
	return state.Snapshot(), nil
}

func (r *BunRepository) WriteAll(ctx context.Context, id uuid.UUID, set WriteSet, expectedVersion int64) (int64, error) {
	now := r.now().UTC()
	rows := make([]*LocaleContent, 0, len(set.Contents))
	for _, locale := range set.Locales() {
		row, err := encodeContent(id, set.Contents[locale], now)
		if err != nil {
			return 0, persistenceFailure("write_all", err)
		}
		rows = append(rows, row)
	}

	var version int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		next, err := bumpVersion(ctx, tx, id, expectedVersion, now, nil)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if _, err := tx.NewDelete().Model((*LocaleContent)(nil)).
				Where("?TableAlias.page_id = ?", id).
				Where("?TableAlias.locale = ?", row.Locale).
				Exec(ctx); err != nil {
				return fmt.Errorf("replace locale %s: %w", row.Locale, err)
			}
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				return fmt.Errorf("insert locale %s: %w", row.Locale, err)
			}
		}
		if set.Meta != nil {
			if err := replaceMeta(ctx, tx, id, set.Meta); err != nil {
				return err
			}
		}
		version = next
		return nil
	})
	if err != nil {
		return 0, persistenceFailure("write_all", err)
	}
	return version, nil
}

func (r *BunRepository) SaveMeta(ctx context.Context, id uuid.UUID, meta translationstatus.PageMeta, expectedVersion int64) (int64, error) {
	now := r.now().UTC()
	var version int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		next, err := bumpVersion(ctx, tx, id, expectedVersion, now, nil)
		if err != nil {
			return err
		}
		if err := replaceMeta(ctx, tx, id, meta); err != nil {
			return err
		}
		version = next
		return nil
	})
	if err != nil {
		return 0, persistenceFailure("save_meta", err)
	}
	return version, nil
}

func (r *BunRepository) Publish(ctx context.Context, id uuid.UUID, expectedVersion int64, at time.Time) (int64, error) {
	now := r.now().UTC()
	publishedAt := at.UTC()
	var version int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		next, err := bumpVersion(ctx, tx, id, expectedVersion, now, func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Set("status = ?", StatusPublished).Set("published_at = ?", publishedAt)
		})
		if err != nil {
			return err
		}
		var drafts []*LocaleContent
		if err := tx.NewSelect().Model(&drafts).Where("?TableAlias.page_id = ?", id).Scan(ctx); err != nil {
			return fmt.Errorf("select drafts: %w", err)
		}
		if _, err := tx.NewDelete().Model((*LiveContent)(nil)).Where("?TableAlias.page_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("clear live snapshot: %w", err)
		}
		if len(drafts) > 0 {
			live := make([]*LiveContent, 0, len(drafts))
			for _, draft := range drafts {
				live = append(live, liveFromDraft(draft, publishedAt))
			}
			if _, err := tx.NewInsert().Model(&live).Exec(ctx); err != nil {
				return fmt.Errorf("insert live snapshot: %w", err)
			}
		}
		version = next
		return nil
	})
	if err != nil {
		return 0, persistenceFailure("publish", err)
	}
	return version, nil
}

func (r *BunRepository) Unpublish(ctx context.Context, id uuid.UUID, expectedVersion int64) (int64, error) {
	now := r.now().UTC()
	var version int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		next, err := bumpVersion(ctx, tx, id, expectedVersion, now, func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Set("status = ?", StatusDraft).Set("published_at = NULL")
		})
		if err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*LiveContent)(nil)).Where("?TableAlias.page_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("clear live snapshot: %w", err)
		}
		version = next
		return nil
	})
	if err != nil {
		return 0, persistenceFailure("unpublish", err)
	}
	return version, nil
}

func (r *BunRepository) ReadLive(ctx context.Context, id uuid.UUID, locale string) (Content, error) {
	var content Content
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		page, err := selectPage(ctx, tx, id)
		if err != nil {
			return err
		}
		if page.Status != StatusPublished {
			return ErrNotPublished
		}
		row := new(LiveContent)
		err = tx.NewSelect().Model(row).
			Where("?TableAlias.page_id = ?", id).
			Where("?TableAlias.locale = ?", strings.TrimSpace(locale)).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrContentNotFound
		}
		if err != nil {
			return fmt.Errorf("select live content: %w", err)
		}
		content, err = decodeLive(row)
		return err
	})
	if err != nil {
		return Content{}, err
	}
	return content, nil
}

func selectPage(ctx context.Context, tx bun.Tx, id uuid.UUID) (*Page, error) {
	page := new(Page)
	err := tx.NewSelect().Model(page).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("select page: %w", err)
	}
	return page, nil
}

// bumpVersion advances the page version if it still equals expected. It is
// the single guard every write goes through.
func bumpVersion(ctx context.Context, tx bun.Tx, id uuid.UUID, expected int64, now time.Time, extra func(*bun.UpdateQuery) *bun.UpdateQuery) (int64, error) {
	query := tx.NewUpdate().Model((*Page)(nil)).
		Set("version = version + 1").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("version = ?", expected)
	if extra != nil {
		query = extra(query)
	}
	result, err := query.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("advance version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("advance version rows affected: %w", err)
	}
	if affected == 1 {
		return expected + 1, nil
	}
	current, err := selectPage(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	return 0, &ConflictError{PageID: id, Expected: expected, Actual: current.Version}
}

func replaceMeta(ctx context.Context, tx bun.Tx, id uuid.UUID, meta translationstatus.PageMeta) error {
	if _, err := tx.NewDelete().Model((*BlockTranslationMeta)(nil)).Where("?TableAlias.page_id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("clear translation meta: %w", err)
	}
	rows := encodeMeta(id, meta)
	if len(rows) == 0 {
		return nil
	}
	if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert translation meta: %w", err)
	}
	return nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows) {
		return &PageNotFoundError{Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
