package pages

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-composer/internal/translationstatus"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the timestamp source for written rows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func resolveOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// MemoryRepository keeps pages in process. Rows are stored encoded so reads
// go through the same decoding and validation as the database store.
type MemoryRepository struct {
	mu        sync.RWMutex
	now       func() time.Time
	pages     map[uuid.UUID]*Page
	slugIndex map[string]uuid.UUID
	contents  map[uuid.UUID]map[string]*LocaleContent
	live      map[uuid.UUID]map[string]*LiveContent
	meta      map[uuid.UUID]translationstatus.PageMeta
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository(opts ...Option) *MemoryRepository {
	o := resolveOptions(opts)
	return &MemoryRepository{
		now:       o.now,
		pages:     make(map[uuid.UUID]*Page),
		slugIndex: make(map[string]uuid.UUID),
		contents:  make(map[uuid.UUID]map[string]*LocaleContent),
		live:      make(map[uuid.UUID]map[string]*LiveContent),
		meta:      make(map[uuid.UUID]translationstatus.PageMeta),
	}
}

func (m *MemoryRepository) CreatePage(_ context.Context, page *Page, content Content) (*Page, error) {
	now := m.now().UTC()
	record := page.Clone()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	row, err := encodeContent(record.ID, content, now)
	if err != nil {
		return nil, persistenceFailure("create_page", err)
	}
	stampPage(record, now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.slugIndex[record.Slug]; exists {
		return nil, ErrSlugTaken
	}
	if _, exists := m.pages[record.ID]; exists {
		return nil, persistenceFailure("create_page", fmt.Errorf("page %s already exists", record.ID))
	}
	m.pages[record.ID] = record
	m.slugIndex[record.Slug] = record.ID
	m.contents[record.ID] = map[string]*LocaleContent{row.Locale: row}
	m.meta[record.ID] = translationstatus.PageMeta{}
	return record.Clone(), nil
}

func (m *MemoryRepository) GetPage(_ context.Context, id uuid.UUID) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, ok := m.pages[id]
	if !ok {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	return page.Clone(), nil
}

func (m *MemoryRepository) GetPageBySlug(_ context.Context, slug string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.slugIndex[strings.TrimSpace(slug)]
	if !ok {
		return nil, &PageNotFoundError{Key: slug}
	}
	return m.pages[id].Clone(), nil
}

func (m *MemoryRepository) ListPages(_ context.Context) ([]*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Page, 0, len(m.pages))
	for _, page := range m.pages {
		out = append(out, page.Clone())
	}
	slices.SortFunc(out, func(a, b *Page) int { return cmp.Compare(a.Slug, b.Slug) })
	return out, nil
}

func (m *MemoryRepository) DeletePage(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[id]
	if !ok {
		return &PageNotFoundError{Key: id.String()}
	}
	delete(m.slugIndex, page.Slug)
	delete(m.pages, id)
	delete(m.contents, id)
	delete(m.live, id)
	delete(m.meta, id)
	return nil
}

func (m *MemoryRepository) ReadTree(_ context.Context, id uuid.UUID, locale string) (Content, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, ok := m.pages[id]
	if !ok {
		return Content{}, 0, &PageNotFoundError{Key: id.String()}
	}
	row, ok := m.contents[id][strings.TrimSpace(locale)]
	if !ok {
		return Content{}, page.Version, ErrContentNotFound
	}
	content, err := decodeContent(row)
	if err != nil {
		return Content{}, 0, err
	}
	return content, page.Version, nil
}

func (m *MemoryRepository) ReadAll(_ context.Context, id uuid.UUID) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, ok := m.pages[id]
	if !ok {
		return State{}, &PageNotFoundError{Key: id.String()}
	}
	state := State{
		Page:     page.Clone(),
		Contents: make(map[string]Content, len(m.contents[id])),
		Meta:     m.meta[id].Clone(),
	}
	for locale, row := range m.contents[id] {
		content, err := decodeContent(row)
		if err != nil {
			return State{}, err
		}
		state.Contents[locale] = content
	}
	return state, nil
}

func (m *MemoryRepository) LoadSnapshot(ctx context.Context, id uuid.UUID) (translationstatus.Snapshot, error) {
	state, err := m.ReadAll(ctx, id)
	if err != nil {
		return translationstatus.Snapshot{}, err
	}
	return state.Snapshot(), nil
}

func (m *MemoryRepository) WriteAll(_ context.Context, id uuid.UUID, set WriteSet, expectedVersion int64) (int64, error) {
	now := m.now().UTC()
	rows := make(map[string]*LocaleContent, len(set.Contents))
	for _, locale := range set.Locales() {
		row, err := encodeContent(id, set.Contents[locale], now)
		if err != nil {
			return 0, persistenceFailure("write_all", err)
		}
		rows[row.Locale] = row
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	page, err := m.checkVersion(id, expectedVersion)
	if err != nil {
		return 0, err
	}
	contents := maps.Clone(m.contents[id])
	if contents == nil {
		contents = make(map[string]*LocaleContent, len(rows))
	}
	maps.Copy(contents, rows)
	m.contents[id] = contents
	if set.Meta != nil {
		m.meta[id] = set.Meta.Clone()
	}
	return m.advance(page, now), nil
}

func (m *MemoryRepository) SaveMeta(_ context.Context, id uuid.UUID, meta translationstatus.PageMeta, expectedVersion int64) (int64, error) {
	now := m.now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	page, err := m.checkVersion(id, expectedVersion)
	if err != nil {
		return 0, err
	}
	m.meta[id] = meta.Clone()
	return m.advance(page, now), nil
}

func (m *MemoryRepository) Publish(_ context.Context, id uuid.UUID, expectedVersion int64, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, err := m.checkVersion(id, expectedVersion)
	if err != nil {
		return 0, err
	}
	live := make(map[string]*LiveContent, len(m.contents[id]))
	for locale, row := range m.contents[id] {
		live[locale] = liveFromDraft(row, at)
	}
	m.live[id] = live
	publishedAt := at.UTC()
	page.Status = StatusPublished
	page.PublishedAt = &publishedAt
	return m.advance(page, m.now().UTC()), nil
}

func (m *MemoryRepository) Unpublish(_ context.Context, id uuid.UUID, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, err := m.checkVersion(id, expectedVersion)
	if err != nil {
		return 0, err
	}
	delete(m.live, id)
	page.Status = StatusDraft
	page.PublishedAt = nil
	return m.advance(page, m.now().UTC()), nil
}

func (m *MemoryRepository) ReadLive(_ context.Context, id uuid.UUID, locale string) (Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.pages[id]; !ok {
		return Content{}, &PageNotFoundError{Key: id.String()}
	}
	live, ok := m.live[id]
	if !ok {
		return Content{}, ErrNotPublished
	}
	row, ok := live[strings.TrimSpace(locale)]
	if !ok {
		return Content{}, ErrContentNotFound
	}
	return decodeLive(row)
}

// checkVersion must be called with the write lock held.
func (m *MemoryRepository) checkVersion(id uuid.UUID, expected int64) (*Page, error) {
	page, ok := m.pages[id]
	if !ok {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	if page.Version != expected {
		return nil, &ConflictError{PageID: id, Expected: expected, Actual: page.Version}
	}
	return page, nil
}

func (m *MemoryRepository) advance(page *Page, now time.Time) int64 {
	page.Version++
	page.UpdatedAt = now
	return page.Version
}

func stampPage(page *Page, now time.Time) {
	if page.Status == "" {
		page.Status = StatusDraft
	}
	if page.Version == 0 {
		page.Version = 1
	}
	if page.CreatedAt.IsZero() {
		page.CreatedAt = now
	}
	page.UpdatedAt = now
}
